package history

import (
	"context"
	"time"

	"github.com/alphatic/alphatic/internal/core"
)

// Store defines the interface for evaluation persistence. Every engine
// evaluation is recorded here so past verdicts stay auditable per ticker,
// call site, and cycle.
type Store interface {
	// Save persists an evaluation.
	Save(ctx context.Context, eval core.Evaluation) error

	// Latest retrieves the most recent evaluation for a ticker.
	Latest(ctx context.Context, ticker string) (*core.Evaluation, error)

	// List retrieves evaluations matching the filter, oldest first.
	List(ctx context.Context, filter ListFilter) ([]core.Evaluation, error)

	// Count returns the number of evaluations matching the filter.
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter defines criteria for listing evaluations.
type ListFilter struct {
	Ticker   string
	CallSite string
	CycleID  string
	Verdict  core.AgreementVerdict
	Action   core.Action
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}
