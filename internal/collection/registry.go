// Package collection defines the known upstream feature collections and the
// fetchers that pull raw features from them.
package collection

import "github.com/usrn-labs/streetwise/internal/model"

// Well-known collection identifiers.
const (
	StreetNetwork    = "trn-ntwk-street-1"
	DesignationLine  = "trn-rami-specialdesignationline-1"
	DesignationArea  = "trn-rami-specialdesignationarea-1"
	DesignationPoint = "trn-rami-specialdesignationpoint-1"
	LandUseSite      = "lus-fts-site-1"
	BuildingPart     = "bld-fts-buildingpart-1"
	WorksHistory     = "works-history"
	ImpactScore      = "impact-score"
	NUARAssetCount   = "nuar-asset-count"
)

// registry lists every collection the engine knows how to query, in stable
// order. Order matters: reports iterate collections deterministically.
var registry = []model.CollectionSpec{
	{ID: StreetNetwork, Domain: model.DomainNetwork, Mode: model.QueryDirect},
	{ID: DesignationLine, Domain: model.DomainDesignation, Mode: model.QueryDirect},
	{ID: DesignationArea, Domain: model.DomainDesignation, Mode: model.QueryDirect},
	{ID: DesignationPoint, Domain: model.DomainDesignation, Mode: model.QueryDirect},
	{ID: LandUseSite, Domain: model.DomainLandUse, Mode: model.QueryBBox},
	{ID: BuildingPart, Domain: model.DomainLandUse, Mode: model.QueryBBox},
	{ID: WorksHistory, Domain: model.DomainWorks, Mode: model.QueryStore},
	{ID: ImpactScore, Domain: model.DomainImpact, Mode: model.QueryStore},
	{ID: NUARAssetCount, Domain: model.DomainImpact, Mode: model.QueryBBox},
}

// Specs returns a copy of the full collection registry.
func Specs() []model.CollectionSpec {
	out := make([]model.CollectionSpec, len(registry))
	copy(out, registry)
	return out
}

// Spec looks a collection up by id.
func Spec(id string) (model.CollectionSpec, bool) {
	for _, s := range registry {
		if s.ID == id {
			return s, true
		}
	}
	return model.CollectionSpec{}, false
}

// ForAnalysis returns the collections an analysis type queries, in registry
// order.
func ForAnalysis(t model.AnalysisType) []model.CollectionSpec {
	var ids []string
	switch t {
	case model.AnalysisStreet:
		ids = []string{StreetNetwork, DesignationLine, DesignationArea, DesignationPoint, WorksHistory}
	case model.AnalysisLandUse:
		ids = []string{LandUseSite, BuildingPart}
	case model.AnalysisCollaborative:
		ids = []string{
			DesignationLine, DesignationArea, DesignationPoint,
			LandUseSite, BuildingPart,
			WorksHistory, ImpactScore, NUARAssetCount,
		}
	default:
		return nil
	}

	out := make([]model.CollectionSpec, 0, len(ids))
	for _, s := range registry {
		for _, id := range ids {
			if s.ID == id {
				out = append(out, s)
				break
			}
		}
	}
	return out
}
