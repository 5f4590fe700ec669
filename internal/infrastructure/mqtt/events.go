package mqtt

import "time"

// Run outcomes carried in RunEvent.Outcome.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// RunEvent is published once per finished ingestion run.
type RunEvent struct {
	RunID      string    `json:"run_id"`
	Started    time.Time `json:"started"`
	DurationMS int64     `json:"duration_ms"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`

	// Requested is the number of points the run generated; Pairs the
	// number fully stored.
	Requested int `json:"requested"`
	Pairs     int `json:"pairs"`
	Rows      int `json:"rows"`

	Amplitude float32 `json:"amplitude"`
	Frequency float32 `json:"frequency"`
	Phase     float32 `json:"phase"`
}

// PublishRunEvent publishes ev on <prefix>/ingest/runs.
func (c *Client) PublishRunEvent(ev RunEvent) error {
	return c.PublishJSON(c.topics.IngestRuns(), ev)
}
