// Package ingest loads reference datasets into the analytical store: OS Open
// Roads street geometry from shapefiles and the GeoPlace SWA code register
// from XLSX.
package ingest

import (
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"
	"go.uber.org/zap"

	"github.com/usrn-labs/streetwise/internal/store"
)

// ReadStreets parses a shapefile into street rows keyed by the named USRN
// attribute. Records without a USRN or an encodable geometry are skipped and
// counted, not fatal.
func ReadStreets(path, usrnField string) ([]store.Street, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	usrnIdx := -1
	for i, f := range reader.Fields() {
		name := strings.TrimRight(f.String(), "\x00")
		if strings.EqualFold(name, usrnField) {
			usrnIdx = i
			break
		}
	}
	if usrnIdx < 0 {
		return nil, eris.Errorf("ingest: shapefile has no %q field", usrnField)
	}

	var streets []store.Street
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()

		usrn := strings.TrimSpace(strings.TrimRight(reader.Attribute(usrnIdx), "\x00"))
		if usrn == "" || shape == nil {
			skipped++
			continue
		}

		text, err := shapeWKT(shape)
		if err != nil {
			skipped++
			continue
		}
		streets = append(streets, store.Street{USRN: usrn, Geometry: text})
	}

	if skipped > 0 {
		zap.L().Debug("skipped shapefile records", zap.Int("skipped", skipped))
	}
	return streets, nil
}

// shapeWKT encodes the shapefile geometries streets come in: points and
// polylines (single or multi part).
func shapeWKT(shape shp.Shape) (string, error) {
	switch s := shape.(type) {
	case *shp.Point:
		return wkt.Marshal(geom.NewPointFlat(geom.XY, []float64{s.X, s.Y}))
	case *shp.PolyLine:
		return polylineWKT(s)
	case *shp.Polygon:
		return polylineWKT((*shp.PolyLine)(s))
	default:
		return "", eris.Errorf("ingest: unsupported shape type %T", shape)
	}
}

func polylineWKT(pl *shp.PolyLine) (string, error) {
	if len(pl.Points) == 0 {
		return "", eris.New("ingest: empty polyline")
	}

	parts := make([][]shp.Point, 0, len(pl.Parts))
	for i, start := range pl.Parts {
		end := len(pl.Points)
		if i+1 < len(pl.Parts) {
			end = int(pl.Parts[i+1])
		}
		parts = append(parts, pl.Points[int(start):end])
	}
	if len(parts) == 0 {
		parts = append(parts, pl.Points)
	}

	if len(parts) == 1 {
		return wkt.Marshal(lineString(parts[0]))
	}

	ml := geom.NewMultiLineString(geom.XY)
	for _, part := range parts {
		if err := ml.Push(lineString(part)); err != nil {
			return "", eris.Wrap(err, "ingest: build multilinestring")
		}
	}
	return wkt.Marshal(ml)
}

func lineString(points []shp.Point) *geom.LineString {
	flat := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flat = append(flat, p.X, p.Y)
	}
	return geom.NewLineStringFlat(geom.XY, flat)
}
