package pool

import (
	"github.com/arrowlake/mozt/internal/env"
	"github.com/arrowlake/mozt/internal/tree"
)

// Algorithm supplies the planner-specific behaviour a Runner drives: the
// payload constructors for fresh nodes, the selection rule a decision
// node applies, the backup rule each node type applies to an incoming
// vector return, and the recommendation rule used once search stops.
// CZT, CHMCTS, SM-BTS and SM-DENTS (package planner) each implement this
// once per payload type; Runner[P] is the single generic trial-walk
// engine shared by all four (spec.md §4.G: "differ only in their
// selection, backup and recommendation").
type Algorithm[P any] interface {
	NewDecisionPayload() P
	NewActionPayload(action env.Action) P

	// SelectAction is called with d's lock held.
	SelectAction(d *tree.DecisionNode[P], ctx *env.Context) (env.Action, error)

	// BackupChance and BackupDecision are called with the respective
	// node's lock held, once per backup pass, with the vector return
	// accumulated from that node to the end of the trial.
	BackupChance(c *tree.ChanceNode[P], returnToGo []float64, ctx *env.Context)
	BackupDecision(d *tree.DecisionNode[P], returnToGo []float64, ctx *env.Context)

	// RecommendAction is called with d's lock held.
	RecommendAction(d *tree.DecisionNode[P], ctx *env.Context) (env.Action, error)
}
