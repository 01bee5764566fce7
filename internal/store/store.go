// Package store provides the analytical data providers backing the street
// intelligence engine: street geometry by USRN, works-history summaries,
// impact scores, and the SWA code register used for promoter sector
// classification. Two drivers implement the same interface: Postgres for
// deployments and SQLite for local use.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a USRN has no matching row.
var ErrNotFound = errors.New("store: not found")

// Street is one street geometry row keyed by USRN. Geometry is WKT in
// British National Grid coordinates.
type Street struct {
	USRN     string
	Geometry string
}

// WorksRow is one aggregated works-history row for a USRN: completed works
// grouped by promoter organisation.
type WorksRow struct {
	USRN          string
	Promoter      string
	PromoterSWA   string
	Sector        string
	TotalWorks    int
	LastCompleted time.Time
}

// ImpactRow is one street-works impact score row for a USRN.
type ImpactRow struct {
	USRN       string
	Score      float64
	Band       string
	AssessedAt time.Time
}

// SWACode is one entry from the GeoPlace Street Works Act code register.
// Licence flags drive promoter sector classification.
type SWACode struct {
	Code            string
	Name            string
	OfwatLicence    bool
	OfgemElectric   bool
	OfgemGas        bool
	OfcomLicence    bool
	HighwayAuth     bool
}

// Store is the read side consumed by the engine plus the load side used by
// the import commands.
type Store interface {
	// StreetGeometry returns the WKT geometry for a USRN, or ErrNotFound.
	StreetGeometry(ctx context.Context, usrn string) (string, error)

	// WorksSummary returns completed-works aggregates for a USRN, ordered by
	// total works descending then promoter name.
	WorksSummary(ctx context.Context, usrn string) ([]WorksRow, error)

	// ImpactScores returns impact score rows for a USRN, newest first.
	ImpactScores(ctx context.Context, usrn string) ([]ImpactRow, error)

	// LoadStreets upserts street geometries. Returns rows written.
	LoadStreets(ctx context.Context, streets []Street) (int, error)

	// ImportSWACodes replaces the SWA code register. Returns rows written.
	ImportSWACodes(ctx context.Context, codes []SWACode) (int, error)

	// Migrate creates or updates the schema.
	Migrate(ctx context.Context) error

	Close() error
}

// classifySector maps SWA licence flags to a promoter sector. Water takes
// precedence over telecoms for dual-licence promoters, matching the register
// convention.
func classifySector(ofwat, ofgemElec, ofgemGas, ofcom, highway bool) string {
	switch {
	case ofwat:
		return "Water"
	case ofgemElec:
		return "Electricity"
	case ofgemGas:
		return "Gas"
	case ofcom:
		return "Telecommunications"
	case highway:
		return "Highway Authority"
	default:
		return "Other"
	}
}
