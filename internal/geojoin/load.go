package geojoin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// Load reads a polygon collection from a GeoJSON FeatureCollection or,
// when the path ends in .shp, a shapefile whose DBF carries the id
// attribute. Features lacking the id property are dropped with a debug
// log; they could never be reported as a match.
func Load(path, idKey string) (*Collection, error) {
	if idKey == "" {
		return nil, eris.New("geojoin: polygon id key is required")
	}
	if strings.EqualFold(filepath.Ext(path), ".shp") {
		return loadShapefile(path, idKey)
	}
	return loadGeoJSON(path, idKey)
}

// Raw envelope kept separate from go-geom so feature properties survive
// verbatim (numbers stay json.Number) and a bad geometry in one feature
// cannot fail the whole file.
type rawFeature struct {
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

type rawCollection struct {
	Features []rawFeature `json:"features"`
}

// ParseGeoJSON reads a FeatureCollection from raw bytes, for callers
// that receive the document inline rather than from a file.
func ParseGeoJSON(data []byte, idKey string) (*Collection, error) {
	if idKey == "" {
		return nil, eris.New("geojoin: polygon id key is required")
	}
	return decodeGeoJSON(bytes.NewReader(data), idKey)
}

func loadGeoJSON(path, idKey string) (*Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "geojoin: open polygons")
	}
	defer func() { _ = f.Close() }()
	return decodeGeoJSON(f, idKey)
}

func decodeGeoJSON(r io.Reader, idKey string) (*Collection, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var rc rawCollection
	if err := dec.Decode(&rc); err != nil {
		return nil, eris.Wrap(err, "geojoin: decode geojson")
	}

	coll := &Collection{IDKey: idKey}
	for i, rf := range rc.Features {
		val, ok := rf.Properties[idKey]
		if !ok {
			zap.L().Debug("geojoin: feature missing id property",
				zap.Int("feature", i),
				zap.String("key", idKey),
			)
			continue
		}
		coll.Features = append(coll.Features, Feature{
			ID:       propertyString(val),
			Geometry: decodeGeometry(rf.Geometry, i),
		})
	}
	return coll, nil
}

// decodeGeometry returns nil for absent, malformed, or non-polygon
// geometry; such features stay in the collection but match nothing.
func decodeGeometry(raw json.RawMessage, feature int) geom.T {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var g geom.T
	if err := geojson.Unmarshal(raw, &g); err != nil {
		zap.L().Debug("geojoin: undecodable geometry matches nothing",
			zap.Int("feature", feature),
			zap.Error(err),
		)
		return nil
	}
	switch g.(type) {
	case *geom.Polygon, *geom.MultiPolygon:
		return g
	default:
		zap.L().Debug("geojoin: non-polygon geometry matches nothing",
			zap.Int("feature", feature),
			zap.String("type", fmt.Sprintf("%T", g)),
		)
		return nil
	}
}

// propertyString renders a decoded property value the way it appeared
// in the source document where possible.
func propertyString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

func loadShapefile(path, idKey string) (*Collection, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "geojoin: open shapefile")
	}
	defer func() { _ = reader.Close() }()

	idIdx := fieldIndex(reader, idKey)
	if idIdx < 0 {
		return nil, eris.Errorf("geojoin: shapefile has no attribute %q", idKey)
	}

	coll := &Collection{IDKey: idKey}
	record := 0
	for reader.Next() {
		_, shape := reader.Shape()
		coll.Features = append(coll.Features, Feature{
			ID:       strings.TrimSpace(reader.Attribute(idIdx)),
			Geometry: shapeToGeometry(shape, record),
		})
		record++
	}
	return coll, nil
}

// fieldIndex returns the index of a named DBF field, or -1 if not found.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

// shapeToGeometry converts a shapefile polygon record to a MultiPolygon.
// Shapefile outer rings wind clockwise and holes counter-clockwise; each
// hole is attached to the polygon opened by the preceding outer ring.
func shapeToGeometry(shape shp.Shape, record int) geom.T {
	poly, ok := shape.(*shp.Polygon)
	if !ok {
		if shape != nil {
			zap.L().Debug("geojoin: non-polygon shapefile record matches nothing",
				zap.Int("record", record),
			)
		}
		return nil
	}
	if poly.NumParts == 0 || len(poly.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)
	var current *geom.Polygon
	flush := func() {
		if current == nil {
			return
		}
		if err := mp.Push(current); err != nil {
			zap.L().Debug("geojoin: skipping malformed polygon part",
				zap.Int("record", record),
				zap.Error(err),
			)
		}
		current = nil
	}

	for i := int32(0); i < poly.NumParts; i++ {
		start := poly.Parts[i]
		end := int32(len(poly.Points))
		if i+1 < poly.NumParts {
			end = poly.Parts[i+1]
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, poly.Points[j].X, poly.Points[j].Y)
		}
		ring := geom.NewLinearRingFlat(geom.XY, flat)

		if ringSignedArea(flat) > 0 && current != nil {
			if err := current.Push(ring); err != nil {
				zap.L().Debug("geojoin: skipping malformed hole ring",
					zap.Int("record", record),
					zap.Int32("part", i),
					zap.Error(err),
				)
			}
			continue
		}

		flush()
		current = geom.NewPolygon(geom.XY)
		if err := current.Push(ring); err != nil {
			zap.L().Debug("geojoin: skipping malformed outer ring",
				zap.Int("record", record),
				zap.Int32("part", i),
				zap.Error(err),
			)
			current = nil
		}
	}
	flush()

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// ringSignedArea is the shoelace area of a flat XY ring, positive for
// counter-clockwise winding.
func ringSignedArea(flat []float64) float64 {
	n := len(flat) / 2
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += flat[2*i]*flat[2*j+1] - flat[2*j]*flat[2*i+1]
	}
	return sum / 2
}
