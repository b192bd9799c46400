package planner

import (
	"math"

	"github.com/pkg/errors"

	"github.com/arrowlake/mozt/internal/config"
	"github.com/arrowlake/mozt/internal/env"
	"github.com/arrowlake/mozt/internal/pool"
	"github.com/arrowlake/mozt/internal/simplex"
	"github.com/arrowlake/mozt/internal/tree"
)

// smPayload is the simplex-map value store SM-BTS (and, embedded in
// smdPayload, SM-DENTS) carries on every node — decision and chance alike
// (spec.md §4.E/§4.G: "Simplex map at each node").
type smPayload struct {
	Map *simplex.Map
}

func simplexVariant(name string) (simplex.Variant, error) {
	switch name {
	case "barycentric":
		return simplex.BarycentricVariant{}, nil
	case "binary":
		return simplex.BinaryVariant{}, nil
	default:
		return nil, config.Errorf("unknown sm_variant %q (want \"barycentric\" or \"binary\")", name)
	}
}

type smbtsAlgorithm struct {
	dim        int
	sm         smKnobs
	variant    simplex.Variant
	temp       float64
	epsilon    float64
	useDecay   bool
	decayScale float64
}

// NewSMBTS builds an SM-BTS planner, popping the simplex-map knobs (§4.E)
// and smbts_search_temp / smbts_epsilon / smbts_use_search_temp_decay /
// smbts_search_temp_decay_visits_scale (§6).
func NewSMBTS(environment env.Environment, runID *config.RunID) (pool.Planner, error) {
	sm, err := popSimplexKnobs(runID.Params)
	if err != nil {
		return nil, err
	}
	variant, err := simplexVariant(sm.variant)
	if err != nil {
		return nil, err
	}
	temp, err := config.PopParamOr(runID.Params, "smbts_search_temp", 1.0)
	if err != nil {
		return nil, err
	}
	epsilon, err := config.PopParamOr(runID.Params, "smbts_epsilon", 0.5)
	if err != nil {
		return nil, err
	}
	useDecay, err := config.PopParamOr(runID.Params, "smbts_use_search_temp_decay", false)
	if err != nil {
		return nil, err
	}
	decayScale, err := config.PopParamOr(runID.Params, "smbts_search_temp_decay_visits_scale", 1.0)
	if err != nil {
		return nil, err
	}

	alg := &smbtsAlgorithm{
		dim: environment.RewardDim(), sm: sm, variant: variant,
		temp: temp, epsilon: epsilon, useDecay: useDecay, decayScale: decayScale,
	}
	return pool.NewRunner[smPayload](environment, alg, runID.MaxTrialLength, runID.NumThreads, runID.Seed)
}

func (a *smbtsAlgorithm) newMap() *simplex.Map {
	return simplex.NewMap(a.dim, a.variant, a.sm.splitVisitThresh, a.sm.lInfThresh, a.sm.maxDepth)
}

func (a *smbtsAlgorithm) NewDecisionPayload() smPayload         { return smPayload{Map: a.newMap()} }
func (a *smbtsAlgorithm) NewActionPayload(env.Action) smPayload { return smPayload{Map: a.newMap()} }

func smChildActions[P any](d *tree.DecisionNode[P]) []env.Action {
	var actions []env.Action
	d.EachChild(func(act env.Value, _ *tree.ChanceNode[P]) { actions = append(actions, act) })
	return orderedActions(actions)
}

// effectiveTemp applies the optional inverse-square-root decay in visits
// (spec.md §6: smbts_use_search_temp_decay / ..._visits_scale).
func (a *smbtsAlgorithm) effectiveTemp(visits int) float64 {
	if !a.useDecay {
		return a.temp
	}
	return a.temp / math.Sqrt(1+a.decayScale*float64(visits))
}

// closestScalarValues returns, for every action, the scalarised value at the
// NGV closest to w on that chance child's simplex map.
func closestScalarValues(d *tree.DecisionNode[smPayload], actions []env.Action, ctx *env.Context) []float64 {
	values := make([]float64, len(actions))
	for i, act := range actions {
		c, _ := d.ChanceChild(act)
		c.Lock()
		idx := c.Payload.Map.ClosestVertex(ctx.Weight)
		values[i] = ctx.ScalarValue(c.Payload.Map.Vertex(idx).Value)
		c.Unlock()
	}
	return values
}

// softmaxWithEpsilon mixes a temperature-scaled softmax over values with a
// uniform random policy at weight epsilon (spec.md §4.G).
func softmaxWithEpsilon(values []float64, temp, epsilon float64) []float64 {
	n := len(values)
	maxV := negInf
	for _, v := range values {
		if v > maxV {
			maxV = v
		}
	}
	weights := make([]float64, n)
	sum := 0.0
	for i, v := range values {
		weights[i] = math.Exp((v - maxV) / temp)
		sum += weights[i]
	}
	probs := make([]float64, n)
	uniform := 1.0 / float64(n)
	for i := range probs {
		probs[i] = (1-epsilon)*(weights[i]/sum) + epsilon*uniform
	}
	return probs
}

func sampleFromDistribution(probs []float64, rng interface{ Float64() float64 }) int {
	if rng == nil {
		return argmax(probs, nil)
	}
	r := rng.Float64()
	cum := 0.0
	for i, p := range probs {
		cum += p
		if r <= cum {
			return i
		}
	}
	return len(probs) - 1
}

func (a *smbtsAlgorithm) SelectAction(d *tree.DecisionNode[smPayload], ctx *env.Context) (env.Action, error) {
	actions := smChildActions(d)
	if len(actions) == 0 {
		return nil, errors.New("smbts: select called at a node with no valid actions")
	}
	values := closestScalarValues(d, actions, ctx)
	probs := softmaxWithEpsilon(values, a.effectiveTemp(d.NumVisits), a.epsilon)
	idx := sampleFromDistribution(probs, ctx.RNG)
	return actions[idx], nil
}

func (a *smbtsAlgorithm) BackupChance(c *tree.ChanceNode[smPayload], returnToGo []float64, ctx *env.Context) {
	c.Payload.Map.Backup(ctx.Weight, returnToGo)
}

func (a *smbtsAlgorithm) BackupDecision(d *tree.DecisionNode[smPayload], returnToGo []float64, ctx *env.Context) {
	d.Payload.Map.Backup(ctx.Weight, returnToGo)
}

func (a *smbtsAlgorithm) RecommendAction(d *tree.DecisionNode[smPayload], ctx *env.Context) (env.Action, error) {
	actions := smChildActions(d)
	if len(actions) == 0 {
		return nil, errors.New("smbts: recommend called at a node with no valid actions")
	}
	values := closestScalarValues(d, actions, ctx)
	return actions[argmax(values, nil)], nil
}
