package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisRun_Duration(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	completed := created.Add(90 * time.Second)

	open := AnalysisRun{CreatedAt: created}
	assert.Equal(t, time.Duration(0), open.Duration())

	done := AnalysisRun{CreatedAt: created, CompletedAt: &completed}
	assert.Equal(t, 90*time.Second, done.Duration())
}

func TestRunParams_OmitsEmptyFields(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(RunParams{InputPath: "points.csv"})
	require.NoError(t, err)

	assert.JSONEq(t, `{"input_path":"points.csv"}`, string(raw))
}
