// Package normalize projects raw upstream features onto the typed record
// shape the merge engine consumes: schema-aware field mapping, required-field
// validation, and duplicate suppression.
package normalize

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/usrn-labs/streetwise/internal/model"
)

// FieldMap says which upstream properties survive normalisation for one
// domain. The mapping is data, not code, so collection schema drift is a
// config change.
type FieldMap struct {
	// Fields lists the property names projected into the normalized record.
	Fields []string `yaml:"fields"`

	// Required properties must be present and non-empty; features missing one
	// are counted and dropped, never silently passed through.
	Required []string `yaml:"required"`

	// Canonical names the fields run through organisation-name
	// canonicalisation.
	Canonical []string `yaml:"canonical"`
}

// Mapping is the per-domain field map table.
type Mapping map[model.Domain]FieldMap

// DefaultMapping returns the built-in field maps for the OS NGD, works and
// impact sources.
func DefaultMapping() Mapping {
	return Mapping{
		model.DomainDesignation: {
			Fields: []string{
				"usrn", "designation", "designationdescription",
				"effectivestartdate", "effectiveenddate", "timeinterval",
				"geometry_length", "authorityid", "contactauthority_authorityname",
			},
			Required:  []string{"designation"},
			Canonical: []string{"contactauthority_authorityname"},
		},
		model.DomainNetwork: {
			Fields:   []string{"usrn", "name1_text", "name2_text", "roadclassification", "operationalstate"},
			Required: []string{"usrn"},
		},
		model.DomainLandUse: {
			Fields: []string{
				"name1_text", "name2_text",
				"oslandusetiera", "oslandusetierb",
				"primaryuprn", "geometry_area",
			},
			Required: []string{"geometry_area"},
		},
		model.DomainWorks: {
			Fields:    []string{"usrn", "promoter", "promoter_swa", "sector", "total_works", "last_completed"},
			Required:  []string{"promoter", "total_works"},
			Canonical: []string{"promoter"},
		},
		// Two record shapes share this domain: store impact rows and the NUAR
		// asset-count metric. Nothing is required so neither shape rejects the
		// other.
		model.DomainImpact: {
			Fields: []string{"usrn", "score", "band", "assessed_at", "asset_count", "bbox"},
		},
	}
}

// LoadMapping reads YAML field-map overrides and merges them over the
// defaults. Domains absent from the file keep their built-in maps.
func LoadMapping(path string) (Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "normalize: read field maps %s", path)
	}

	var overrides Mapping
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, eris.Wrapf(err, "normalize: parse field maps %s", path)
	}

	m := DefaultMapping()
	for domain, fm := range overrides {
		m[domain] = fm
	}
	return m, nil
}
