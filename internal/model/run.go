package model

import "time"

// RunStatus tracks the lifecycle of a recorded analysis run.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunParams captures the effective inputs of an analysis invocation.
// Paths are recorded as given on the command line.
type RunParams struct {
	InputPath    string            `json:"input_path,omitempty"`
	PolygonsPath string            `json:"polygons_path,omitempty"`
	OutputPaths  []string          `json:"output_paths,omitempty"`
	Columns      map[string]string `json:"columns,omitempty"`
	KNeighbors   int               `json:"k_neighbors,omitempty"`
	PolygonIDKey string            `json:"polygon_id_key,omitempty"`
}

// AnalysisRun records a single hotspot or join invocation.
type AnalysisRun struct {
	ID          string     `json:"id"`
	Command     string     `json:"command"`
	Params      RunParams  `json:"params"`
	Status      RunStatus  `json:"status"`
	RowCount    int        `json:"row_count"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Duration returns the wall time between creation and completion, or zero
// while the run is still open.
func (r *AnalysisRun) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.CreatedAt)
}
