package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/usrn-labs/streetwise/internal/model"
)

// Normalizer applies the field-map table to raw features.
type Normalizer struct {
	mapping Mapping
	caser   cases.Caser
}

// New creates a Normalizer over a mapping table. Pass DefaultMapping() unless
// overrides are configured.
func New(mapping Mapping) *Normalizer {
	return &Normalizer{
		mapping: mapping,
		caser:   cases.Title(language.BritishEnglish),
	}
}

// Outcome is one domain's normalisation result: the surviving records in
// input order plus the count of features dropped by validation.
type Outcome struct {
	Records  []model.NormalizedRecord
	Rejected int
}

// Normalize projects one domain's raw features into normalized records.
// Features failing required-field validation are counted and dropped.
// Duplicates are suppressed: by feature id when the source provides one,
// otherwise by a content hash of domain, geometry and mapped fields.
// The operation is deterministic and idempotent over its input order.
func (n *Normalizer) Normalize(usrn string, domain model.Domain, raw []model.RawFeature) Outcome {
	fm, ok := n.mapping[domain]
	if !ok {
		fm = FieldMap{}
	}

	var out Outcome
	seen := make(map[string]bool, len(raw))

	for _, ft := range raw {
		fields := n.project(ft, fm)

		if missing := missingRequired(fields, fm.Required); missing != "" {
			out.Rejected++
			zap.L().Debug("rejected feature",
				zap.String("collection", ft.Collection),
				zap.String("feature_id", ft.ID),
				zap.String("missing", missing),
			)
			continue
		}

		key := dedupKey(domain, ft, fields)
		if seen[key] {
			continue
		}
		seen[key] = true

		out.Records = append(out.Records, model.NormalizedRecord{
			USRN:       usrn,
			Domain:     domain,
			Collection: ft.Collection,
			FeatureID:  ft.ID,
			Fields:     fields,
		})
	}
	return out
}

func (n *Normalizer) project(ft model.RawFeature, fm FieldMap) map[string]any {
	fields := make(map[string]any, len(fm.Fields))
	for _, name := range fm.Fields {
		v, ok := ft.Properties[name]
		if !ok || v == nil {
			continue
		}
		fields[name] = v
	}
	for _, name := range fm.Canonical {
		if s, ok := fields[name].(string); ok && s != "" {
			fields[name] = n.canonicalName(s)
		}
	}
	return fields
}

// canonicalName normalises organisation names so the same authority spelled
// with different casing or padding merges into one breakdown bucket.
func (n *Normalizer) canonicalName(s string) string {
	return n.caser.String(strings.Join(strings.Fields(s), " "))
}

func missingRequired(fields map[string]any, required []string) string {
	for _, name := range required {
		v, ok := fields[name]
		if !ok || v == nil {
			return name
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			return name
		}
	}
	return ""
}

// dedupKey prefers the upstream feature id. Sources without stable ids fall
// back to a content hash over domain, geometry and the mapped fields.
func dedupKey(domain model.Domain, ft model.RawFeature, fields map[string]any) string {
	if ft.ID != "" {
		return ft.Collection + "#" + ft.ID
	}

	h := sha256.New()
	h.Write([]byte(domain))
	h.Write(ft.Geometry)

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(h, "%s=%v;", name, fields[name])
	}
	return hex.EncodeToString(h.Sum(nil))
}
