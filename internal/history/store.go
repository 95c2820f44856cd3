// Package history persists the outcome of scenario runs.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists run records.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, rec Record) error
	GetRun(ctx context.Context, id string) (Record, bool, error)
	// ListRuns returns runs newest first. limit <= 0 returns all of them.
	ListRuns(ctx context.Context, limit int) ([]Record, error)
	// Prune deletes runs that started before cutoff and reports how many.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
	Close() error
}

// Record is one scenario run.
type Record struct {
	ID         string
	Scenario   string
	Source     string
	EngineType int
	Started    time.Time
	Finished   time.Time
	Passed     bool
	Failure    string
	Steps      []StepRecord
}

// StepRecord is the outcome of one step.
type StepRecord struct {
	Index    int
	Step     string
	Passed   bool
	Failure  string
	Attempts int
	Elapsed  time.Duration

	// Report holds the raw chart of a failing capture so that it can be
	// re-checked offline.
	Report string
}

// NewID returns a fresh run identifier.
func NewID() string {
	return uuid.NewString()
}

// Duration is how long the run took.
func (r Record) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// FailedStep returns the first failing step, if any.
func (r Record) FailedStep() (StepRecord, bool) {
	for _, s := range r.Steps {
		if !s.Passed {
			return s, true
		}
	}
	return StepRecord{}, false
}
