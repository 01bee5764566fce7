// Package report shapes a merged report into the externally consumed
// structure: deterministic record ordering, metrics flattened and sorted, and
// per-domain provenance so an empty domain is never ambiguous.
package report

import (
	"encoding/json"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/usrn-labs/streetwise/internal/model"
)

// Assemble builds the external report. The same merged input always yields a
// byte-identical serialisation: record sequences are stably sorted by the
// domain's natural key, metrics by name, provenance in fixed domain order.
func Assemble(merged *model.MergedReport, requested []model.CollectionSpec) *model.ExternalReport {
	out := &model.ExternalReport{
		USRN:     merged.USRN,
		Analysis: merged.Analysis,
		Records:  make(map[model.Domain][]model.NormalizedRecord, len(merged.Records)),
	}

	for domain, records := range merged.Records {
		sorted := make([]model.NormalizedRecord, len(records))
		copy(sorted, records)
		sort.SliceStable(sorted, func(i, j int) bool {
			return recordKey(domain, sorted[i]) < recordKey(domain, sorted[j])
		})
		out.Records[domain] = sorted
	}

	out.Metrics = make([]model.DerivedMetric, len(merged.Metrics))
	copy(out.Metrics, merged.Metrics)
	sort.SliceStable(out.Metrics, func(i, j int) bool {
		return out.Metrics[i].Name < out.Metrics[j].Name
	})

	out.Provenance = provenance(merged, requested)
	return out
}

// recordKey is the domain's natural sort key. Designations order by type then
// feature id; everything else by collection then feature id.
func recordKey(domain model.Domain, rec model.NormalizedRecord) string {
	if domain == model.DomainDesignation {
		return rec.StringField("designation") + "\x00" + rec.FeatureID
	}
	return rec.Collection + "\x00" + rec.FeatureID
}

func provenance(merged *model.MergedReport, requested []model.CollectionSpec) []model.DomainProvenance {
	byDomain := make(map[model.Domain][]string)
	for _, spec := range requested {
		byDomain[spec.Domain] = append(byDomain[spec.Domain], spec.ID)
	}

	out := make([]model.DomainProvenance, 0, len(model.Domains()))
	for _, domain := range model.Domains() {
		p := model.DomainProvenance{
			Domain:      domain,
			Collections: byDomain[domain],
			Records:     len(merged.Records[domain]),
			Rejected:    merged.Rejected[domain],
		}

		failure, failed := merged.Failures[domain]
		switch {
		case len(byDomain[domain]) == 0:
			p.Status = model.DomainNotRequested
		case failed && p.Records == 0:
			p.Status = model.DomainFailed
			p.Reason = failure.Reason
		case failed || p.Rejected > 0:
			p.Status = model.DomainPartial
			if failed {
				p.Reason = failure.Reason
			}
		default:
			p.Status = model.DomainOK
		}
		out = append(out, p)
	}
	return out
}

// ContextJSON renders the report as indented JSON for the summarisation
// layer. Map keys serialise sorted and every slice is pre-sorted, so
// identical reports produce identical bytes.
func ContextJSON(r *model.ExternalReport) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "report: serialise context")
	}
	return data, nil
}
