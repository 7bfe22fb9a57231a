package model

import "time"

// Pipeline run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// StateTransition records one advisory changing state during a run.
type StateTransition struct {
	AdvisoryID string `json:"advisory_id"`
	FromState  string `json:"from_state"`
	ToState    string `json:"to_state"`
}

// PipelineRun is the persisted metadata for one batch execution.
type PipelineRun struct {
	Key         string     `json:"_key,omitempty"`
	RunID       string     `json:"run_id"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	ObservationsIngested int `json:"observations_ingested"`
	AdvisoriesTotal      int `json:"advisories_total"`
	StateChanges         int `json:"state_changes"`
	MalformedDropped     int `json:"malformed_dropped"`
	Errors               int `json:"errors"`

	StateCounts   map[string]int    `json:"state_counts,omitempty"`
	ReasonCounts  map[string]int    `json:"reason_counts,omitempty"`
	Transitions   map[string]int    `json:"transitions,omitempty"`
	TransitionSet []StateTransition `json:"transition_set,omitempty"`

	SourceHealth map[string]SourceHealth `json:"source_health,omitempty"`
	QualityNotes []string                `json:"quality_notes,omitempty"`

	ObjType   string    `json:"objtype"` // "PipelineRun"
	CreatedAt time.Time `json:"created_at"`
}
