package planner

import (
	"github.com/pkg/errors"

	"github.com/arrowlake/mozt/internal/ball"
	"github.com/arrowlake/mozt/internal/config"
	"github.com/arrowlake/mozt/internal/env"
	"github.com/arrowlake/mozt/internal/pool"
	"github.com/arrowlake/mozt/internal/tree"
)

// cztPayload is the CZT value store: a ball partition on every chance
// node, keyed to that node's action, and no store at all on decision
// nodes (spec.md §4.D: "Per chance node, a list L of balls").
type cztPayload struct {
	Balls *ball.List
}

// cztAlgorithm implements pool.Algorithm[cztPayload]: UCB-over-balls
// selection, incremental-mean backup, greedy scalarised recommendation
// (spec.md §4.G "CZT").
type cztAlgorithm struct {
	dim         int
	bias        float64
	splitThresh int
}

// NewCZT builds a CZT planner over environment, popping czt_bias and
// czt_ball_split_visit_thresh from params (spec.md §6).
func NewCZT(environment env.Environment, runID *config.RunID) (pool.Planner, error) {
	bias, splitThresh, err := popBallKnobs(runID.Params)
	if err != nil {
		return nil, err
	}
	alg := &cztAlgorithm{dim: environment.RewardDim(), bias: bias, splitThresh: splitThresh}
	return pool.NewRunner[cztPayload](environment, alg, runID.MaxTrialLength, runID.NumThreads, runID.Seed)
}

func (a *cztAlgorithm) NewDecisionPayload() cztPayload { return cztPayload{} }

func (a *cztAlgorithm) NewActionPayload(env.Action) cztPayload {
	return cztPayload{Balls: ball.NewList(a.dim, a.bias, a.splitThresh)}
}

func childActions(d *tree.DecisionNode[cztPayload]) []env.Action {
	var actions []env.Action
	d.EachChild(func(act env.Value, _ *tree.ChanceNode[cztPayload]) { actions = append(actions, act) })
	return orderedActions(actions)
}

// ucbScores computes U_a for every action per spec.md §4.D step 2,
// returning +Inf for any action whose active ball (or the action itself)
// has never been visited, so it is always preferred by argmax.
func (a *cztAlgorithm) ucbScores(d *tree.DecisionNode[cztPayload], actions []env.Action, ctx *env.Context, exploring bool) []float64 {
	scores := make([]float64, len(actions))
	parentVisits := float64(d.NumVisits)
	for i, act := range actions {
		c, _ := d.ChanceChild(act)
		c.Lock()
		b := c.Payload.Balls.Select(ctx.Weight)
		visits := c.NumVisits
		ballVisits := b.Visits
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

func (a *cztAlgorithm) SelectAction(d *tree.DecisionNode[cztPayload], ctx *env.Context) (env.Action, error) {
	actions := childActions(d)
	if len(actions) == 0 {
		return nil, errors.New("czt: select called at a node with no valid actions")
	}
	scores := a.ucbScores(d, actions, ctx, true)
	return actions[argmax(scores, ctx.RNG)], nil
}

func (a *cztAlgorithm) BackupChance(c *tree.ChanceNode[cztPayload], returnToGo []float64, ctx *env.Context) {
	c.Payload.Balls.Backup(ctx.Weight, returnToGo)
}

func (a *cztAlgorithm) BackupDecision(*tree.DecisionNode[cztPayload], []float64, *env.Context) {
	// CZT keeps no decision-level store: the ball partitions on its
	// chance children are sufficient for both selection and recommendation.
}

func (a *cztAlgorithm) RecommendAction(d *tree.DecisionNode[cztPayload], ctx *env.Context) (env.Action, error) {
	actions := childActions(d)
	if len(actions) == 0 {
		return nil, errors.New("czt: recommend called at a node with no valid actions")
	}
	scores := a.ucbScores(d, actions, ctx, false)
	return actions[argmax(scores, ctx.RNG)], nil
}
