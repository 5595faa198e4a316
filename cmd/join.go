package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/hotspot-cli/internal/geojoin"
	"github.com/sells-group/hotspot-cli/internal/model"
	"github.com/sells-group/hotspot-cli/internal/table"
)

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Assign scored points to polygons and summarize tiers",
	Long: `Joins a scored point table against a polygon file (GeoJSON
FeatureCollection or shapefile) by point-in-polygon containment, writes
the points back out with the polygon id attached, and writes a summary
CSV counting each significance tier per polygon.

Examples:
  hotspot-cli join --points scored.csv --polygons tracts.geojson \
    --polygon-id-key GEOID --output-points joined.csv --output-summary summary.csv

  # Shapefile polygons, id from the DBF attribute table
  hotspot-cli join --points scored.csv --polygons counties.shp \
    --polygon-id-key GEOID --output-points joined.csv --output-summary summary.csv`,
	RunE: runJoin,
}

func init() {
	f := joinCmd.Flags()
	f.String("points", "", "scored points CSV path (required)")
	f.String("polygons", "", "GeoJSON or shapefile path (required)")
	f.String("polygon-id-key", "", "feature property or DBF attribute holding the polygon id")
	f.String("output-points", "", "joined points CSV path (required)")
	f.String("output-summary", "", "polygon summary CSV path (required)")
	f.String("lat-col", "", "latitude column (overrides config)")
	f.String("lon-col", "", "longitude column (overrides config)")
	f.String("profiles", "", "column profiles YAML path")
	f.String("profile", "", "profile name within --profiles")

	rootCmd.AddCommand(joinCmd)
}

func runJoin(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("analyze"); err != nil {
		return err
	}

	points, _ := cmd.Flags().GetString("points")
	polygons, _ := cmd.Flags().GetString("polygons")
	outputPoints, _ := cmd.Flags().GetString("output-points")
	outputSummary, _ := cmd.Flags().GetString("output-summary")
	if points == "" || polygons == "" || outputPoints == "" || outputSummary == "" {
		return eris.New("join: --points, --polygons, --output-points, and --output-summary are required")
	}

	opts := geojoin.Options{
		LatCol: cfg.Columns.Latitude,
		LonCol: cfg.Columns.Longitude,
	}
	idKey, _ := cmd.Flags().GetString("polygon-id-key")

	prof, err := loadProfile(cmd)
	if err != nil {
		return err
	}
	if prof != nil {
		if prof.LatCol != "" {
			opts.LatCol = prof.LatCol
		}
		if prof.LonCol != "" {
			opts.LonCol = prof.LonCol
		}
		if idKey == "" {
			idKey = prof.PolygonIDKey
		}
	}
	if v, _ := cmd.Flags().GetString("lat-col"); v != "" {
		opts.LatCol = v
	}
	if v, _ := cmd.Flags().GetString("lon-col"); v != "" {
		opts.LonCol = v
	}
	if idKey == "" {
		return eris.New("join: --polygon-id-key is required")
	}

	log := zap.L().With(zap.String("command", "join"))
	log.Info("joining points to polygons",
		zap.String("points", points),
		zap.String("polygons", polygons),
		zap.String("polygon_id_key", idKey),
	)

	tbl, err := table.Read(points, table.Options{})
	if err != nil {
		return err
	}
	coll, err := geojoin.Load(polygons, idKey)
	if err != nil {
		return err
	}

	st := openRunStore(ctx)
	if st != nil {
		defer st.Close() //nolint:errcheck
	}
	run := recordRunStart(ctx, st, "join", model.RunParams{
		InputPath:    points,
		PolygonsPath: polygons,
		OutputPaths:  []string{outputPoints, outputSummary},
		Columns: map[string]string{
			"latitude":  opts.LatCol,
			"longitude": opts.LonCol,
		},
		PolygonIDKey: idKey,
	})

	if err := geojoin.Join(tbl, coll, opts); err != nil {
		recordRunOutcome(ctx, st, run, 0, err)
		return err
	}
	sum, err := geojoin.Summarize(tbl, idKey)
	if err != nil {
		recordRunOutcome(ctx, st, run, 0, err)
		return err
	}

	if err := table.Write(outputPoints, tbl); err != nil {
		recordRunOutcome(ctx, st, run, 0, err)
		return err
	}
	if err := table.Write(outputSummary, sum); err != nil {
		recordRunOutcome(ctx, st, run, 0, err)
		return err
	}
	recordRunOutcome(ctx, st, run, tbl.Len(), nil)

	log.Info("join complete",
		zap.Int("points", tbl.Len()),
		zap.Int("polygons", len(coll.Features)),
		zap.Int("summary_rows", sum.Len()),
	)
	fmt.Printf("Wrote joined points output: %s\n", outputPoints)
	fmt.Printf("Wrote polygon summary output: %s\n", outputSummary)
	return nil
}
