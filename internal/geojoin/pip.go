package geojoin

import "github.com/twpayne/go-geom"

// containsPoint reports whether the geometry contains (x, y). Polygons
// require the point inside the outer ring and in none of the holes;
// multipolygons match when any member polygon does. Every other
// geometry, nil included, contains nothing.
func containsPoint(g geom.T, x, y float64) bool {
	switch s := g.(type) {
	case *geom.Polygon:
		return polygonContains(s, x, y)
	case *geom.MultiPolygon:
		for i := 0; i < s.NumPolygons(); i++ {
			if polygonContains(s.Polygon(i), x, y) {
				return true
			}
		}
	}
	return false
}

func polygonContains(p *geom.Polygon, x, y float64) bool {
	if p.NumLinearRings() == 0 {
		return false
	}
	if !ringContains(p.LinearRing(0), x, y) {
		return false
	}
	for i := 1; i < p.NumLinearRings(); i++ {
		if ringContains(p.LinearRing(i), x, y) {
			return false
		}
	}
	return true
}

// ringContains ray-casts from the point along +x, toggling on each edge
// whose y-span straddles the point. Works on both closed and unclosed
// rings: the wrap-around edge of a closed ring is degenerate and never
// straddles.
func ringContains(ring *geom.LinearRing, x, y float64) bool {
	flat := ring.FlatCoords()
	stride := ring.Stride()
	n := len(flat) / stride

	inside := false
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		x1, y1 := flat[i*stride], flat[i*stride+1]
		x2, y2 := flat[j*stride], flat[j*stride+1]
		if (y1 > y) == (y2 > y) {
			continue
		}
		dy := y2 - y1
		if dy == 0 {
			dy = 1e-12
		}
		if x < (x2-x1)*(y-y1)/dy+x1 {
			inside = !inside
		}
	}
	return inside
}
