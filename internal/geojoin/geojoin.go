// Package geojoin assigns scored points to polygon features and
// aggregates significance tiers per polygon.
//
// Matching is point-in-polygon over GeoJSON-ordered coordinates. A
// feature whose geometry could not be decoded, or whose type is neither
// Polygon nor MultiPolygon, stays in the collection but never contains
// any point.
package geojoin

import (
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/hotspot-cli/internal/hotspot"
	"github.com/sells-group/hotspot-cli/internal/table"
)

// MatchPolicy names how a point overlapped by several polygons is resolved.
type MatchPolicy string

// MatchFirstInOrder assigns the point to the first feature in file order
// whose geometry contains it.
const MatchFirstInOrder MatchPolicy = "first_in_order"

// UnmatchedID marks points contained by no polygon.
const UnmatchedID = ""

// Feature is one polygon with the id property it was loaded under.
type Feature struct {
	ID       string
	Geometry geom.T
}

// Collection holds polygon features in file order.
type Collection struct {
	// IDKey is the property or attribute name the feature IDs came from,
	// and names the column Join appends.
	IDKey    string
	Features []Feature
}

// match returns the id of the first feature containing the point.
func (c *Collection) match(x, y float64) string {
	for _, f := range c.Features {
		if containsPoint(f.Geometry, x, y) {
			return f.ID
		}
	}
	return UnmatchedID
}

// Options binds the point table's coordinate columns.
type Options struct {
	LatCol string
	LonCol string
	// Policy resolves overlapping polygons. Empty means MatchFirstInOrder.
	Policy MatchPolicy
}

// Join assigns every row of tbl to a polygon and puts the assigned ids
// on the table in a column named by the collection's id key. Unmatched
// rows get the UnmatchedID sentinel. An existing column with that name
// is overwritten.
func Join(tbl *table.Table, coll *Collection, opts Options) error {
	if opts.Policy != "" && opts.Policy != MatchFirstInOrder {
		return eris.Errorf("geojoin: unsupported match policy %q", opts.Policy)
	}
	if tbl.Len() == 0 {
		return eris.New("geojoin: points table has no rows")
	}
	if missing := tbl.MissingColumns(opts.LatCol, opts.LonCol); len(missing) > 0 {
		return eris.Errorf("geojoin: missing required columns: %v", missing)
	}

	assigned := make([]string, tbl.Len())
	for i := 0; i < tbl.Len(); i++ {
		lat, err := tbl.Float(i, opts.LatCol)
		if err != nil {
			return eris.Wrap(err, "geojoin: parse latitude")
		}
		lon, err := tbl.Float(i, opts.LonCol)
		if err != nil {
			return eris.Wrap(err, "geojoin: parse longitude")
		}
		assigned[i] = coll.match(lon, lat)
	}
	if err := tbl.PutColumn(coll.IDKey, assigned); err != nil {
		return eris.Wrap(err, "geojoin: put polygon id column")
	}
	return nil
}

// Summary table schema, in emission order.
var summaryColumns = []string{
	"polygon_id", "point_count",
	"hotspot_99", "hotspot_95", "hotspot_90",
	"coldspot_99", "coldspot_95", "coldspot_90",
	"mean_zscore", "min_pvalue",
}

var tierSlot = map[string]int{
	hotspot.BinHotSpot99:  0,
	hotspot.BinHotSpot95:  1,
	hotspot.BinHotSpot90:  2,
	hotspot.BinColdSpot99: 3,
	hotspot.BinColdSpot95: 4,
	hotspot.BinColdSpot90: 5,
}

type bucket struct {
	count int
	tiers [6]int
	zSum  float64
	minP  float64
}

// Summarize aggregates a joined table into one row per assigned polygon
// id, in first-seen order, the unmatched sentinel included. Tier counts
// go by exact bin label; mean z-score and minimum p-value are emitted as
// six-decimal strings.
func Summarize(tbl *table.Table, idCol string) (*table.Table, error) {
	required := []string{idCol, hotspot.ColZScore, hotspot.ColPValue, hotspot.ColBin}
	if missing := tbl.MissingColumns(required...); len(missing) > 0 {
		return nil, eris.Errorf("geojoin: missing required columns: %v", missing)
	}

	var order []string
	buckets := make(map[string]*bucket)
	for i := 0; i < tbl.Len(); i++ {
		pid := tbl.Get(i, idCol)
		b, ok := buckets[pid]
		if !ok {
			b = &bucket{minP: 1.0}
			buckets[pid] = b
			order = append(order, pid)
		}
		z, err := tbl.Float(i, hotspot.ColZScore)
		if err != nil {
			return nil, eris.Wrap(err, "geojoin: parse z-score")
		}
		p, err := tbl.Float(i, hotspot.ColPValue)
		if err != nil {
			return nil, eris.Wrap(err, "geojoin: parse p-value")
		}
		b.count++
		if slot, ok := tierSlot[tbl.Get(i, hotspot.ColBin)]; ok {
			b.tiers[slot]++
		}
		b.zSum += z
		if p < b.minP {
			b.minP = p
		}
	}

	out := table.New(summaryColumns)
	for _, pid := range order {
		b := buckets[pid]
		var meanZ, minP string
		if b.count > 0 {
			meanZ = fmt.Sprintf("%.6f", b.zSum/float64(b.count))
			minP = fmt.Sprintf("%.6f", b.minP)
		}
		out.AppendRow([]string{
			pid,
			strconv.Itoa(b.count),
			strconv.Itoa(b.tiers[0]),
			strconv.Itoa(b.tiers[1]),
			strconv.Itoa(b.tiers[2]),
			strconv.Itoa(b.tiers[3]),
			strconv.Itoa(b.tiers[4]),
			strconv.Itoa(b.tiers[5]),
			meanZ,
			minP,
		})
	}
	return out, nil
}
