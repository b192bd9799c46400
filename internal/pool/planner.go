package pool

import (
	"context"
	"time"

	"github.com/arrowlake/mozt/internal/env"
)

// Planner is the non-generic facade every Runner[P] satisfies regardless
// of its payload type P, so cmd/moplan and the Monte-Carlo evaluator can
// hold one of four concrete planners (CZT, CHMCTS, SM-BTS, SM-DENTS)
// behind a single interface without the call sites needing to know which
// payload type backs it.
type Planner interface {
	RunTrials(ctx context.Context, n int) error
	RunTrialsFor(ctx context.Context, d time.Duration) error
	Recommend(w []float64) (env.Action, error)
}
