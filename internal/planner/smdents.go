package planner

import (
	"math"

	"github.com/pkg/errors"

	"github.com/arrowlake/mozt/internal/config"
	"github.com/arrowlake/mozt/internal/env"
	"github.com/arrowlake/mozt/internal/pool"
	"github.com/arrowlake/mozt/internal/tree"
)

// smdentsAlgorithm is SM-BTS with an entropy-augmented softmax temperature
// (spec.md §4.G "SM-DENTS"): the same smPayload simplex map, plus a running
// entropy estimate on each NGV (simplex.NGV.Entropy) that raises the
// effective temperature of nodes whose backed-up returns disagree, pushing
// search toward regions the scalarisation is still uncertain about.
type smdentsAlgorithm struct {
	*smbtsAlgorithm
	entropyTempInit   float64
	entropyVisitScale float64
}

// NewSMDENTS builds an SM-DENTS planner: every SM-BTS knob plus
// smdents_entropy_temp_init / smdents_entropy_temp_visits_scale (§6).
func NewSMDENTS(environment env.Environment, runID *config.RunID) (pool.Planner, error) {
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
	entropyTempInit, err := config.PopParamOr(runID.Params, "smdents_entropy_temp_init", 1.0)
	if err != nil {
		return nil, err
	}
	entropyVisitScale, err := config.PopParamOr(runID.Params, "smdents_entropy_temp_visits_scale", 1.0)
	if err != nil {
		return nil, err
	}

	base := &smbtsAlgorithm{
		dim: environment.RewardDim(), sm: sm, variant: variant,
		temp: temp, epsilon: epsilon, useDecay: useDecay, decayScale: decayScale,
	}
	alg := &smdentsAlgorithm{
		smbtsAlgorithm:    base,
		entropyTempInit:   entropyTempInit,
		entropyVisitScale: entropyVisitScale,
	}
	return pool.NewRunner[smPayload](environment, alg, runID.MaxTrialLength, runID.NumThreads, runID.Seed)
}

// sampleEntropy is the per-backup entropy contribution SM-DENTS folds into
// each visited NGV: the binary entropy of how far the realized return's
// scalarisation sits from the vertex's own running estimate, normalized to
// [0,1]. A return that merely confirms the running mean contributes ~0;
// one that contradicts it sharply contributes close to 1.
func sampleEntropy(w, runningValue, vectorReturn []float64) float64 {
	prevScore := scalarizeVectors(w, runningValue)
	sampleScore := scalarizeVectors(w, vectorReturn)
	diff := math.Abs(sampleScore - prevScore)
	p := diff / (1 + diff)
	if p <= 0 || p >= 1 {
		return 0
	}
	return -p*math.Log(p) - (1-p)*math.Log(1-p)
}

func scalarizeVectors(w, v []float64) float64 {
	sum := 0.0
	for i := range v {
		sum += w[i] * v[i]
	}
	return sum
}

// entropyAugmentedTemp raises the SM-BTS base temperature by
// entropyVisitScale * entropyTempInit * entropy / (log(visits+1) + 1), per smdents_entropy_temp_init
// and smdents_entropy_temp_visits_scale (spec.md §6).
func (a *smdentsAlgorithm) entropyAugmentedTemp(baseTemp, entropy float64, visits int) float64 {
	scale := a.entropyTempInit * entropy / (math.Log(float64(visits)+1) + 1)
	return baseTemp + a.entropyVisitScale*scale
}

func (a *smdentsAlgorithm) SelectAction(d *tree.DecisionNode[smPayload], ctx *env.Context) (env.Action, error) {
	actions := smChildActions(d)
	if len(actions) == 0 {
		return nil, errors.New("smdents: select called at a node with no valid actions")
	}
	values := make([]float64, len(actions))
	entropies := make([]float64, len(actions))
	for i, act := range actions {
		c, _ := d.ChanceChild(act)
		c.Lock()
		idx := c.Payload.Map.ClosestVertex(ctx.Weight)
		v := c.Payload.Map.Vertex(idx)
		values[i] = ctx.ScalarValue(v.Value)
		entropies[i] = v.Entropy
		c.Unlock()
	}
	meanEntropy := 0.0
	for _, e := range entropies {
		meanEntropy += e
	}
	meanEntropy /= float64(len(entropies))

	temp := a.entropyAugmentedTemp(a.effectiveTemp(d.NumVisits), meanEntropy, d.NumVisits)
	probs := softmaxWithEpsilon(values, temp, a.epsilon)
	idx := sampleFromDistribution(probs, ctx.RNG)
	return actions[idx], nil
}

func (a *smdentsAlgorithm) BackupChance(c *tree.ChanceNode[smPayload], returnToGo []float64, ctx *env.Context) {
	idx := c.Payload.Map.ClosestVertex(ctx.Weight)
	before := append([]float64(nil), c.Payload.Map.Vertex(idx).Value...)
	entropy := sampleEntropy(ctx.Weight, before, returnToGo)

	backedIdx := c.Payload.Map.Backup(ctx.Weight, returnToGo)
	v := c.Payload.Map.Vertex(backedIdx)
	n := float64(v.Visits)
	v.Entropy += (entropy - v.Entropy) / n
}

func (a *smdentsAlgorithm) BackupDecision(d *tree.DecisionNode[smPayload], returnToGo []float64, ctx *env.Context) {
	idx := d.Payload.Map.ClosestVertex(ctx.Weight)
	before := append([]float64(nil), d.Payload.Map.Vertex(idx).Value...)
	entropy := sampleEntropy(ctx.Weight, before, returnToGo)

	backedIdx := d.Payload.Map.Backup(ctx.Weight, returnToGo)
	v := d.Payload.Map.Vertex(backedIdx)
	n := float64(v.Visits)
	v.Entropy += (entropy - v.Entropy) / n
}

func (a *smdentsAlgorithm) RecommendAction(d *tree.DecisionNode[smPayload], ctx *env.Context) (env.Action, error) {
	actions := smChildActions(d)
	if len(actions) == 0 {
		return nil, errors.New("smdents: recommend called at a node with no valid actions")
	}
	values := closestScalarValues(d, actions, ctx)
	return actions[argmax(values, nil)], nil
}
