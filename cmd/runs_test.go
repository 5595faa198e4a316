//go:build !integration

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/hotspot-cli/internal/model"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)
	runs := []model.AnalysisRun{
		{
			ID:          "abc12345-6789-0000-0000-000000000000",
			Command:     "hotspot",
			Params:      model.RunParams{InputPath: "points.csv"},
			Status:      model.RunStatusCompleted,
			RowCount:    1200,
			CreatedAt:   now,
			CompletedAt: timePtr(now.Add(2 * time.Minute)),
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			Command:   "join",
			Params:    model.RunParams{InputPath: "scored.csv"},
			Status:    model.RunStatusQueued,
			CreatedAt: now.Add(-1 * time.Hour),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "COMMAND")
	assert.Contains(t, output, "STATUS")
	assert.Contains(t, output, "hotspot")
	assert.Contains(t, output, "completed")
	assert.Contains(t, output, "join")
	assert.Contains(t, output, "queued")
	assert.Contains(t, output, "1200")
	assert.Contains(t, output, "points.csv")
	assert.Contains(t, output, "2026-03-10 10:30")
	assert.Contains(t, output, "abc12345")
	assert.Contains(t, output, "2m0s")
}

func TestFormatRunsList_LongInputPath(t *testing.T) {
	runs := []model.AnalysisRun{
		{
			ID:        "abc12345-6789-0000-0000-000000000000",
			Command:   "hotspot",
			Params:    model.RunParams{InputPath: "/very/long/path/to/some/deeply/nested/input/points.csv"},
			Status:    model.RunStatusFailed,
			CreatedAt: time.Now(),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "failed")
	assert.Contains(t, output, "...")
	assert.NotContains(t, output, "/very/long/path")
	assert.Contains(t, output, "points.csv")
}

func TestRunsStats(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	runs := []model.AnalysisRun{
		{
			ID:          "1",
			Command:     "hotspot",
			Status:      model.RunStatusCompleted,
			RowCount:    100,
			CreatedAt:   now,
			CompletedAt: timePtr(now.Add(2 * time.Minute)),
		},
		{
			ID:          "2",
			Command:     "hotspot",
			Status:      model.RunStatusCompleted,
			RowCount:    250,
			CreatedAt:   now.Add(5 * time.Minute),
			CompletedAt: timePtr(now.Add(8 * time.Minute)),
		},
		{
			ID:          "3",
			Command:     "join",
			Status:      model.RunStatusFailed,
			Error:       "polygons file missing",
			CreatedAt:   now.Add(10 * time.Minute),
			CompletedAt: timePtr(now.Add(10*time.Minute + 30*time.Second)),
		},
		{
			ID:        "4",
			Command:   "join",
			Status:    model.RunStatusQueued,
			CreatedAt: now.Add(15 * time.Minute),
		},
	}

	stats := computeRunStats(runs)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Completed)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Queued)
	assert.Equal(t, 2, stats.Hotspot)
	assert.Equal(t, 2, stats.Join)
	assert.Equal(t, 350, stats.RowsTotal)
	// Average duration of the 2 completed runs: (120s + 180s) / 2 = 150s.
	assert.InDelta(t, 150.0, stats.AvgDurSecs, 0.1)

	var buf bytes.Buffer
	formatRunStats(&buf, stats)

	output := buf.String()
	assert.Contains(t, output, "Total runs:")
	assert.Contains(t, output, "4")
	assert.Contains(t, output, "Completed:")
	assert.Contains(t, output, "2")
	assert.Contains(t, output, "Failed:")
	assert.Contains(t, output, "Queued:")
	assert.Contains(t, output, "Rows written:")
	assert.Contains(t, output, "350")
	assert.Contains(t, output, "150.0s")
}

func TestRunsStats_Empty(t *testing.T) {
	stats := computeRunStats(nil)
	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 0.0, stats.AvgDurSecs)

	var buf bytes.Buffer
	formatRunStats(&buf, stats)
	assert.Contains(t, buf.String(), "Total runs:")
	assert.NotContains(t, buf.String(), "Avg duration:")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789-0000-0000-000000000000"))
	assert.Equal(t, "short", truncateID("short"))
}
