// Package resolver converts a USRN into either a direct attribute filter or a
// buffered bounding box, depending on what the target collection supports.
package resolver

import (
	"context"
	"errors"
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/wkt"
	"go.uber.org/zap"

	"github.com/usrn-labs/streetwise/internal/model"
	"github.com/usrn-labs/streetwise/internal/store"
)

// GeometryProvider supplies street geometry as WKT in British National Grid
// coordinates. The analytical store implements it.
type GeometryProvider interface {
	StreetGeometry(ctx context.Context, usrn string) (string, error)
}

// Resolver resolves USRNs for upstream queries.
type Resolver struct {
	geoms  GeometryProvider
	buffer float64
}

// New creates a Resolver. bufferMetres pads the street extent so adjacent
// features that touch but do not strictly intersect the street are captured;
// it also guarantees a non-degenerate box for point geometries.
func New(geoms GeometryProvider, bufferMetres float64) *Resolver {
	if bufferMetres <= 0 {
		bufferMetres = 50
	}
	return &Resolver{geoms: geoms, buffer: bufferMetres}
}

// Resolve returns the upstream query for one collection: a USRN filter for
// direct-filter and store collections, a buffered bounding box otherwise.
func (r *Resolver) Resolve(ctx context.Context, usrn string, spec model.CollectionSpec) (model.Query, error) {
	switch spec.Mode {
	case model.QueryDirect, model.QueryStore:
		return model.Query{Filter: "usrn=" + usrn}, nil
	case model.QueryBBox:
		box, err := r.BBox(ctx, usrn)
		if err != nil {
			return model.Query{}, err
		}
		return model.Query{BBox: &box}, nil
	default:
		return model.Query{}, eris.Errorf("resolver: unknown query mode %q for collection %s", spec.Mode, spec.ID)
	}
}

// BBox computes the buffered bounding box for a USRN from its street
// geometry. Coordinates are rounded to the nearest metre. Returns a
// ResolutionError when the USRN has no known geometry.
func (r *Resolver) BBox(ctx context.Context, usrn string) (model.BoundingBox, error) {
	raw, err := r.geoms.StreetGeometry(ctx, usrn)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.BoundingBox{}, &model.ResolutionError{USRN: usrn}
		}
		return model.BoundingBox{}, eris.Wrapf(err, "resolver: geometry lookup for %s", usrn)
	}

	g, err := wkt.Unmarshal(raw)
	if err != nil {
		return model.BoundingBox{}, eris.Wrapf(err, "resolver: parse geometry for %s", usrn)
	}

	bounds := g.Bounds()
	box := model.BoundingBox{
		MinX: bounds.Min(0),
		MinY: bounds.Min(1),
		MaxX: bounds.Max(0),
		MaxY: bounds.Max(1),
	}

	box = box.Expand(r.buffer)
	box.MinX = math.Round(box.MinX)
	box.MinY = math.Round(box.MinY)
	box.MaxX = math.Round(box.MaxX)
	box.MaxY = math.Round(box.MaxY)

	zap.L().Debug("resolved bbox",
		zap.String("usrn", usrn),
		zap.String("bbox", box.String()),
	)
	return box, nil
}
