package planner

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/arrowlake/mozt/internal/ball"
	"github.com/arrowlake/mozt/internal/config"
	"github.com/arrowlake/mozt/internal/env"
	"github.com/arrowlake/mozt/internal/hull"
	"github.com/arrowlake/mozt/internal/pool"
	"github.com/arrowlake/mozt/internal/tree"
)

// hullPruneTol is the LP feasibility tolerance CHMCTS prunes its hulls
// with; small enough not to discard a point whose margin is genuine
// floating-point noise, large enough not to keep a numerically spurious
// "vertex".
const hullPruneTol = 1e-7

// chmctsPayload is CHMCTS's value store: a private ball partition per
// chance node for selection (a "shadow" CZT, never shared with any other
// node — CHMCTS disallows transposition tables, spec.md §4.G/§9, and this
// engine never builds one in the first place: GetOrCreateChild keys
// decision children to a single (chance node, next state) pair, so no two
// chance nodes can ever alias the same decision child) plus a convex hull
// used only for recommendation. On a chance node, Hull's points are all
// tagged with that node's own Action; on a decision node, Hull is the
// union of its children's hulls as of the last backup (spec.md §4.F:
// "union with another hull, used on backup from children"), so a single
// scalarised Query against the decision's own Hull both picks and tags
// the recommended action.
type chmctsPayload struct {
	Balls *ball.List
	Hull  *hull.Store[env.Action]
}

type chmctsAlgorithm struct {
	dim         int
	bias        float64
	splitThresh int
}

// NewCHMCTS builds a CHMCTS planner, popping the same ball-partition
// knobs as CZT (spec.md §6).
func NewCHMCTS(environment env.Environment, runID *config.RunID) (pool.Planner, error) {
	bias, splitThresh, err := popBallKnobs(runID.Params)
	if err != nil {
		return nil, err
	}
	alg := &chmctsAlgorithm{dim: environment.RewardDim(), bias: bias, splitThresh: splitThresh}
	return pool.NewRunner[chmctsPayload](environment, alg, runID.MaxTrialLength, runID.NumThreads, runID.Seed)
}

func (a *chmctsAlgorithm) NewDecisionPayload() chmctsPayload {
	return chmctsPayload{Hull: hull.NewStore[env.Action](a.dim)}
}

func (a *chmctsAlgorithm) NewActionPayload(env.Action) chmctsPayload {
	return chmctsPayload{
		Balls: ball.NewList(a.dim, a.bias, a.splitThresh),
		Hull:  hull.NewStore[env.Action](a.dim),
	}
}

func chmctsChildActions(d *tree.DecisionNode[chmctsPayload]) []env.Action {
	var actions []env.Action
	d.EachChild(func(act env.Value, _ *tree.ChanceNode[chmctsPayload]) { actions = append(actions, act) })
	return orderedActions(actions)
}

func (a *chmctsAlgorithm) ucbScores(d *tree.DecisionNode[chmctsPayload], actions []env.Action, ctx *env.Context, exploring bool) []float64 {
	scores := make([]float64, len(actions))
	parentVisits := float64(d.NumVisits)
	for i, act := range actions {
		c, _ := d.ChanceChild(act)
		c.Lock()
		b := c.Payload.Balls.Select(ctx.Weight)
		visits, ballVisits := c.NumVisits, b.Visits
		value := ctx.ScalarValue(b.ValueAvg)
		c.Unlock()

		if exploring && (visits == 0 || ballVisits == 0) {
			scores[i] = posInf
			continue
		}
		score := value
		if exploring {
			score += a.bias * ucbBonus(parentVisits, float64(ballVisits))
		}
		scores[i] = score
	}
	return scores
}

func (a *chmctsAlgorithm) SelectAction(d *tree.DecisionNode[chmctsPayload], ctx *env.Context) (env.Action, error) {
	actions := chmctsChildActions(d)
	if len(actions) == 0 {
		return nil, errors.New("chmcts: select called at a node with no valid actions")
	}
	scores := a.ucbScores(d, actions, ctx, true)
	return actions[argmax(scores, ctx.RNG)], nil
}

func (a *chmctsAlgorithm) BackupChance(c *tree.ChanceNode[chmctsPayload], returnToGo []float64, ctx *env.Context) {
	c.Payload.Balls.Backup(ctx.Weight, returnToGo)
	c.Payload.Hull.Add(returnToGo, c.Action)
	if err := c.Payload.Hull.Prune(hullPruneTol); err != nil {
		// A HullError here indicates an LP modelling bug (spec.md §7). The
		// backup path has no error return to propagate it through, so it is
		// surfaced as a warning and the point set is left unpruned for this
		// round rather than panicking mid-backup; the next successful prune
		// recovers it.
		klog.Warningf("chmcts: BackupChance: hull prune: %v", err)
	}
}

// BackupDecision rebuilds d's own hull as the pruned union of its
// chance children's hulls (spec.md §4.F: "union with another hull, used
// on backup from children"), so RecommendAction's scalarised query
// against d's hull directly returns the recommended action as its tag.
func (a *chmctsAlgorithm) BackupDecision(d *tree.DecisionNode[chmctsPayload], _ []float64, _ *env.Context) {
	var children []*hull.Store[env.Action]
	d.EachChild(func(_ env.Value, c *tree.ChanceNode[chmctsPayload]) {
		c.Lock()
		children = append(children, c.Payload.Hull.Snapshot())
		c.Unlock()
	})
	if len(children) == 0 {
		return
	}
	merged, err := hull.UnionPrune(hullPruneTol, children...)
	if err != nil {
		klog.Warningf("chmcts: BackupDecision: hull union: %v", err)
		return
	}
	d.Payload.Hull = merged
}

func (a *chmctsAlgorithm) RecommendAction(d *tree.DecisionNode[chmctsPayload], ctx *env.Context) (env.Action, error) {
	if len(chmctsChildActions(d)) == 0 {
		return nil, errors.New("chmcts: recommend called at a node with no valid actions")
	}
	_, action, _, ok := d.Payload.Hull.Query(ctx.Weight)
	if !ok {
		return nil, errors.New("chmcts: recommend called before any backup reached this node's hull")
	}
	return action, nil
}
