package hotspot

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"github.com/montanaflynn/stats"
	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sells-group/hotspot-cli/internal/table"
)

// Columns appended to a scored table.
const (
	ColZScore = "gi_star_zscore"
	ColPValue = "gi_star_pvalue"
	ColBin    = "gi_bin"
)

// Options binds a point table's columns and tunes the computation.
type Options struct {
	IDCol    string
	LatCol   string
	LonCol   string
	ValueCol string
	// KNeighbors is the number of nearest neighbors (beyond the point
	// itself) in each point's weighted neighborhood.
	KNeighbors int
	// Workers caps concurrent scoring goroutines. Zero means GOMAXPROCS.
	Workers int
}

type point struct {
	lat   float64
	lon   float64
	value float64
}

// Compute scores every row of tbl with the Getis-Ord Gi* statistic and
// puts three derived columns on the table: the z-score and two-tailed
// p-value formatted to six decimals, and the significance tier label.
// Existing columns with those names are overwritten, so rescoring an
// already scored table replaces the old results.
//
// Neighborhoods use binary weights over the k nearest points by
// great-circle distance, the point itself included. Any error aborts
// the whole computation; the table is not modified on error.
func Compute(ctx context.Context, tbl *table.Table, opts Options) error {
	if tbl.Len() == 0 {
		return eris.New("hotspot: input table has no rows")
	}
	if missing := tbl.MissingColumns(opts.IDCol, opts.LatCol, opts.LonCol, opts.ValueCol); len(missing) > 0 {
		return eris.Errorf("hotspot: missing required columns: %v", missing)
	}
	if opts.KNeighbors < 1 {
		return eris.New("hotspot: k_neighbors must be >= 1")
	}
	n := tbl.Len()
	if n < 3 {
		return eris.New("hotspot: at least 3 points are required")
	}

	pts := make([]point, n)
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		lat, err := tbl.Float(i, opts.LatCol)
		if err != nil {
			return eris.Wrap(err, "hotspot: parse latitude")
		}
		lon, err := tbl.Float(i, opts.LonCol)
		if err != nil {
			return eris.Wrap(err, "hotspot: parse longitude")
		}
		val, err := tbl.Float(i, opts.ValueCol)
		if err != nil {
			return eris.Wrap(err, "hotspot: parse value")
		}
		pts[i] = point{lat: lat, lon: lon, value: val}
		values[i] = val
	}

	mean, err := stats.Mean(values)
	if err != nil {
		return eris.Wrap(err, "hotspot: mean")
	}
	stddev, err := stats.StandardDeviationSample(values)
	if err != nil {
		return eris.Wrap(err, "hotspot: sample standard deviation")
	}
	if stddev == 0 {
		return eris.New("hotspot: value column has no variance")
	}

	// Neighborhood size: the k nearest neighbors plus the point itself,
	// capped at the number of points.
	take := opts.KNeighbors + 1
	if take > n {
		take = n
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	zs := make([]float64, n)
	ps := make([]float64, n)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range pts {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			z, err := scorePoint(pts, i, take, float64(n), mean, stddev)
			if err != nil {
				return err
			}
			zs[i] = z
			ps[i] = 2 * distuv.UnitNormal.Survival(math.Abs(z))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	zCol := make([]string, n)
	pCol := make([]string, n)
	binCol := make([]string, n)
	for i := range zs {
		zCol[i] = fmt.Sprintf("%.6f", zs[i])
		pCol[i] = fmt.Sprintf("%.6f", ps[i])
		binCol[i] = Classify(zs[i], ps[i])
	}
	if err := tbl.PutColumn(ColZScore, zCol); err != nil {
		return eris.Wrap(err, "hotspot: put z-score column")
	}
	if err := tbl.PutColumn(ColPValue, pCol); err != nil {
		return eris.Wrap(err, "hotspot: put p-value column")
	}
	if err := tbl.PutColumn(ColBin, binCol); err != nil {
		return eris.Wrap(err, "hotspot: put bin column")
	}
	return nil
}

// scorePoint computes the Gi* z-score for point i against the full set.
func scorePoint(pts []point, i, take int, n, mean, stddev float64) (float64, error) {
	type neighbor struct {
		idx  int
		dist float64
	}
	dists := make([]neighbor, len(pts))
	for j, p := range pts {
		dists[j] = neighbor{
			idx:  j,
			dist: haversineKM(pts[i].lat, pts[i].lon, p.lat, p.lon),
		}
	}
	// Stable so equidistant points keep input order.
	sort.SliceStable(dists, func(a, b int) bool { return dists[a].dist < dists[b].dist })

	// Binary weights over the selected neighborhood.
	wSum := float64(take)
	wSqSum := float64(take)
	var weightedSum float64
	for _, nb := range dists[:take] {
		weightedSum += pts[nb.idx].value
	}

	denomTerm := (n*wSqSum - wSum*wSum) / (n - 1)
	denominator := stddev * math.Sqrt(denomTerm)
	if denominator == 0 {
		return 0, eris.New("hotspot: zero denominator in Gi* computation")
	}
	return (weightedSum - mean*wSum) / denominator, nil
}
