package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/hotspot-cli/internal/hotspot"
	"github.com/sells-group/hotspot-cli/internal/model"
	"github.com/sells-group/hotspot-cli/internal/profile"
	"github.com/sells-group/hotspot-cli/internal/table"
)

var hotspotCmd = &cobra.Command{
	Use:   "hotspot",
	Short: "Score points with the Getis-Ord Gi* statistic",
	Long: `Reads a point table (CSV or XLSX), scores every point against its k
nearest neighbors, and writes the table back out with three added
columns: gi_star_zscore, gi_star_pvalue, and gi_bin.

Examples:
  # Default columns (id, latitude, longitude, value)
  hotspot-cli hotspot --input points.csv --output scored.csv

  # Custom columns and a wider neighborhood
  hotspot-cli hotspot --input incidents.csv --output scored.csv \
    --value-col incident_count --k-neighbors 12

  # XLSX input with column bindings from a saved profile
  hotspot-cli hotspot --input survey.xlsx --sheet Responses \
    --profiles profiles.yaml --profile census --output scored.csv`,
	RunE: runHotspot,
}

func init() {
	f := hotspotCmd.Flags()
	f.String("input", "", "input CSV or XLSX path (required)")
	f.String("output", "", "output CSV path (required)")
	f.String("id-col", "", "point id column (overrides config)")
	f.String("lat-col", "", "latitude column (overrides config)")
	f.String("lon-col", "", "longitude column (overrides config)")
	f.String("value-col", "", "value column (overrides config)")
	f.Int("k-neighbors", 0, "nearest neighbors per point (overrides config)")
	f.Int("workers", 0, "concurrent scoring workers (default GOMAXPROCS)")
	f.String("sheet", "", "XLSX sheet name (default first sheet)")
	f.String("encoding", "", "input charset, e.g. latin1 (default UTF-8)")
	f.String("profiles", "", "column profiles YAML path")
	f.String("profile", "", "profile name within --profiles")

	rootCmd.AddCommand(hotspotCmd)
}

func runHotspot(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("analyze"); err != nil {
		return err
	}

	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	if input == "" || output == "" {
		return eris.New("hotspot: --input and --output are required")
	}

	opts, err := hotspotOptions(cmd)
	if err != nil {
		return err
	}
	sheet, _ := cmd.Flags().GetString("sheet")
	encoding, _ := cmd.Flags().GetString("encoding")

	log := zap.L().With(zap.String("command", "hotspot"))
	log.Info("scoring points",
		zap.String("input", input),
		zap.Int("k_neighbors", opts.KNeighbors),
	)

	tbl, err := table.Read(input, table.Options{Sheet: sheet, Encoding: encoding})
	if err != nil {
		return err
	}

	st := openRunStore(ctx)
	if st != nil {
		defer st.Close() //nolint:errcheck
	}
	run := recordRunStart(ctx, st, "hotspot", model.RunParams{
		InputPath:   input,
		OutputPaths: []string{output},
		Columns: map[string]string{
			"id":        opts.IDCol,
			"latitude":  opts.LatCol,
			"longitude": opts.LonCol,
			"value":     opts.ValueCol,
		},
		KNeighbors: opts.KNeighbors,
	})

	if err := hotspot.Compute(ctx, tbl, opts); err != nil {
		recordRunOutcome(ctx, st, run, 0, err)
		return err
	}
	if err := table.Write(output, tbl); err != nil {
		recordRunOutcome(ctx, st, run, 0, err)
		return err
	}
	recordRunOutcome(ctx, st, run, tbl.Len(), nil)

	log.Info("scoring complete", zap.Int("points", tbl.Len()))
	fmt.Printf("Wrote hotspot output: %s\n", output)
	return nil
}

// hotspotOptions resolves column bindings and tuning in precedence
// order: config defaults, then the selected profile, then explicit
// flags.
func hotspotOptions(cmd *cobra.Command) (hotspot.Options, error) {
	opts := hotspot.Options{
		IDCol:      cfg.Columns.ID,
		LatCol:     cfg.Columns.Latitude,
		LonCol:     cfg.Columns.Longitude,
		ValueCol:   cfg.Columns.Value,
		KNeighbors: cfg.Hotspot.KNeighbors,
		Workers:    cfg.Hotspot.Workers,
	}

	prof, err := loadProfile(cmd)
	if err != nil {
		return opts, err
	}
	if prof != nil {
		if prof.IDCol != "" {
			opts.IDCol = prof.IDCol
		}
		if prof.LatCol != "" {
			opts.LatCol = prof.LatCol
		}
		if prof.LonCol != "" {
			opts.LonCol = prof.LonCol
		}
		if prof.ValueCol != "" {
			opts.ValueCol = prof.ValueCol
		}
		if prof.KNeighbors > 0 {
			opts.KNeighbors = prof.KNeighbors
		}
	}

	if v, _ := cmd.Flags().GetString("id-col"); v != "" {
		opts.IDCol = v
	}
	if v, _ := cmd.Flags().GetString("lat-col"); v != "" {
		opts.LatCol = v
	}
	if v, _ := cmd.Flags().GetString("lon-col"); v != "" {
		opts.LonCol = v
	}
	if v, _ := cmd.Flags().GetString("value-col"); v != "" {
		opts.ValueCol = v
	}
	if v, _ := cmd.Flags().GetInt("k-neighbors"); v > 0 {
		opts.KNeighbors = v
	}
	if v, _ := cmd.Flags().GetInt("workers"); v > 0 {
		opts.Workers = v
	}
	return opts, nil
}

// loadProfile returns the selected column profile, or nil when no
// profiles file was given.
func loadProfile(cmd *cobra.Command) (*profile.Profile, error) {
	path, _ := cmd.Flags().GetString("profiles")
	name, _ := cmd.Flags().GetString("profile")
	if path == "" {
		if name != "" {
			return nil, eris.New("--profile requires --profiles")
		}
		return nil, nil
	}

	pcfg, err := profile.Load(path)
	if err != nil {
		return nil, err
	}
	p, err := pcfg.Get(name)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
