// Package model defines the shared domain types for street intelligence
// reports: features, bounding boxes, normalized records, and merge output.
package model

import (
	"encoding/json"
	"fmt"
)

// Domain identifies the logical data domain a record belongs to.
type Domain string

const (
	DomainDesignation Domain = "designation"
	DomainNetwork     Domain = "network"
	DomainLandUse     Domain = "land-use"
	DomainWorks       Domain = "works-history"
	DomainImpact      Domain = "impact-score"
)

// Domains lists all known domains in stable order.
func Domains() []Domain {
	return []Domain{DomainDesignation, DomainNetwork, DomainLandUse, DomainWorks, DomainImpact}
}

// QueryMode describes how a collection is filtered upstream.
type QueryMode string

const (
	// QueryDirect filters server-side by USRN equality.
	QueryDirect QueryMode = "direct-filter"
	// QueryBBox requires a computed bounding box.
	QueryBBox QueryMode = "bbox-filter"
	// QueryStore reads rows from the analytical store keyed by USRN.
	QueryStore QueryMode = "store"
)

// CollectionSpec identifies one upstream feature collection and the query
// mode it supports.
type CollectionSpec struct {
	ID     string    `json:"id"`
	Domain Domain    `json:"domain"`
	Mode   QueryMode `json:"mode"`
}

// BoundingBox is an axis-aligned box in British National Grid (EPSG:27700)
// coordinates. Valid boxes satisfy MinX <= MaxX and MinY <= MaxY.
type BoundingBox struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Valid reports whether the box satisfies the min/max invariant.
func (b BoundingBox) Valid() bool {
	return b.MinX <= b.MaxX && b.MinY <= b.MaxY
}

// Degenerate reports whether the box has zero area.
func (b BoundingBox) Degenerate() bool {
	return b.MinX == b.MaxX || b.MinY == b.MaxY
}

// Expand grows the box outward by d on every side.
func (b BoundingBox) Expand(d float64) BoundingBox {
	return BoundingBox{
		MinX: b.MinX - d,
		MinY: b.MinY - d,
		MaxX: b.MaxX + d,
		MaxY: b.MaxY + d,
	}
}

// Contains reports whether other lies entirely within b.
func (b BoundingBox) Contains(other BoundingBox) bool {
	return b.MinX <= other.MinX && b.MinY <= other.MinY &&
		b.MaxX >= other.MaxX && b.MaxY >= other.MaxY
}

// String renders the box in the "minx,miny,maxx,maxy" form the NGD API expects.
// Coordinates are rounded to the nearest metre.
func (b BoundingBox) String() string {
	return fmt.Sprintf("%.0f,%.0f,%.0f,%.0f", b.MinX, b.MinY, b.MaxX, b.MaxY)
}

// Query is the resolved upstream query for one collection: either a direct
// USRN filter expression or a bounding box, never both.
type Query struct {
	Filter string
	BBox   *BoundingBox
}

// RawFeature is one feature exactly as an upstream source returned it: an
// optional geometry plus an open-ended attribute mapping.
type RawFeature struct {
	ID         string          `json:"id"`
	Collection string          `json:"collection"`
	Geometry   json.RawMessage `json:"geometry,omitempty"`
	Properties map[string]any  `json:"properties"`
}

// NormalizedRecord is the typed projection of a RawFeature restricted to the
// fields this system cares about. Every record carries the USRN it was
// resolved against, even when the source did not key on USRN directly.
type NormalizedRecord struct {
	USRN       string         `json:"usrn"`
	Domain     Domain         `json:"domain"`
	Collection string         `json:"collection"`
	FeatureID  string         `json:"feature_id"`
	Fields     map[string]any `json:"fields"`
}

// StringField returns the named field as a string, or "" when absent.
func (r NormalizedRecord) StringField(name string) string {
	v, ok := r.Fields[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// NumberField returns the named field as a float64 with an ok flag. JSON
// numbers decode as float64; integer-typed store rows are widened.
func (r NormalizedRecord) NumberField(name string) (float64, bool) {
	switch v := r.Fields[name].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
