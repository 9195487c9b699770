package refreshlog

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Run records one refresh attempt.
type Run struct {
	ID               string    `json:"id"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
	DurationMS       int64     `json:"duration_ms"`
	Status           string    `json:"status"`
	CountriesFetched int       `json:"countries_fetched"`
	RatesFetched     int       `json:"rates_fetched"`
	Merged           int       `json:"merged"`
	Skipped          int       `json:"skipped"`
	Stored           int64     `json:"stored"`
	ImageGenerated   bool      `json:"image_generated"`
	ImageError       string    `json:"image_error,omitempty"`
	Error            string    `json:"error,omitempty"`
}

// NewRun starts a run at the given time.
func NewRun(started time.Time) *Run {
	return &Run{ID: uuid.NewString(), StartedAt: started.UTC()}
}

// Finish stamps the end time and outcome. A nil err marks the run successful.
func (r *Run) Finish(finished time.Time, err error) {
	r.FinishedAt = finished.UTC()
	r.DurationMS = r.FinishedAt.Sub(r.StartedAt).Milliseconds()
	if err != nil {
		r.Status = StatusFailed
		r.Error = err.Error()
		return
	}
	r.Status = StatusSuccess
}
