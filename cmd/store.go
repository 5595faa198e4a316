package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hotspot-cli/internal/model"
	"github.com/sells-group/hotspot-cli/internal/store"
)

// initStore opens the configured run-history store for commands that
// exist to inspect it. Disabled history is an error here.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, eris.New("runs: run history is disabled (store.driver=off)")
	}
	return st, nil
}

// openRunStore opens the run store for best-effort history recording.
// Returns nil when history is off or unavailable; analyses proceed
// without it.
func openRunStore(ctx context.Context) store.Store {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		zap.L().Warn("run history unavailable", zap.Error(err))
		return nil
	}
	if st == nil {
		return nil
	}
	if err := st.Migrate(ctx); err != nil {
		zap.L().Warn("run history migration failed", zap.Error(err))
		_ = st.Close()
		return nil
	}
	return st
}

// recordRunStart creates a queued history entry, or nil when history is
// unavailable.
func recordRunStart(ctx context.Context, st store.Store, command string, params model.RunParams) *model.AnalysisRun {
	if st == nil {
		return nil
	}
	run, err := st.CreateRun(ctx, command, params)
	if err != nil {
		zap.L().Warn("run history: create failed", zap.Error(err))
		return nil
	}
	return run
}

// recordRunOutcome closes a history entry as completed or failed.
func recordRunOutcome(ctx context.Context, st store.Store, run *model.AnalysisRun, rowCount int, runErr error) {
	if st == nil || run == nil {
		return
	}
	var err error
	if runErr != nil {
		err = st.FailRun(ctx, run.ID, runErr)
	} else {
		err = st.CompleteRun(ctx, run.ID, rowCount)
	}
	if err != nil {
		zap.L().Warn("run history: update failed",
			zap.String("run_id", run.ID),
			zap.Error(err),
		)
	}
}
