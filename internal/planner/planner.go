// Package planner instantiates the trial pool's generic engine
// (package pool) with four concrete value-store payloads, implementing
// the selection, backup and recommendation rules spec.md §4.G assigns to
// CZT, CHMCTS, SM-BTS and SM-DENTS. Each constructor pops its own
// configuration knobs from a config.Params the way the teacher
// repository's searchers/mcts.NewFromParams / searchers/ab.NewFromParams
// pop theirs, returning a config.Error (adapted from the teacher's
// log.Panicf registration pattern into a propagated error, per spec.md §7)
// on an unrecognised sm_variant value. Keys a constructor does not read
// are left in Params and are not reported.
package planner

import (
	"math"
	"math/rand"
	"sort"

	"github.com/arrowlake/mozt/internal/config"
	"github.com/arrowlake/mozt/internal/env"
)

// argmax returns the index of the largest value in scores, breaking ties
// uniformly at random via rng when one is available — every selection
// rule in this package needs this (spec.md §4.D/§4.G: "ties random").
// Recommendation calls pass a nil rng (no trial RNG at recommend time) and
// get the first tied index deterministically instead.
func argmax(scores []float64, rng *rand.Rand) int {
	best := 0
	bestVal := math.Inf(-1)
	var tiedWith []int
	for i, s := range scores {
		if s > bestVal {
			best, bestVal = i, s
			tiedWith = tiedWith[:0]
			tiedWith = append(tiedWith, i)
		} else if s == bestVal {
			tiedWith = append(tiedWith, i)
		}
	}
	if len(tiedWith) > 1 && rng != nil {
		return tiedWith[rng.Intn(len(tiedWith))]
	}
	return best
}

var (
	posInf = math.Inf(1)
	negInf = math.Inf(-1)
)

// ucbBonus is the exploration term spec.md §4.D step 2 adds to a ball's
// scalarised value, without the bias factor: sqrt(log(N_parent) / n_ball).
// Callers multiply the result by bias.
func ucbBonus(parentVisits, ballVisits float64) float64 {
	return math.Sqrt(math.Log(math.Max(parentVisits, 1)) / ballVisits)
}

// orderedActions returns actions in a stable order (by Hash, then an
// index tiebreak) so selection scoring is reproducible across map
// iteration order, which Go otherwise randomises.
func orderedActions(actions []env.Action) []env.Action {
	out := append([]env.Action(nil), actions...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Hash() < out[j].Hash() })
	return out
}

// popBallKnobs reads the ball-partition knobs spec.md §6 lists for
// CZT/CHMCTS: czt_bias (default 4.0), czt_ball_split_visit_thresh
// (default 10).
func popBallKnobs(params config.Params) (bias float64, splitThresh int, err error) {
	bias, err = config.PopParamOr(params, "czt_bias", 4.0)
	if err != nil {
		return 0, 0, err
	}
	splitThresh, err = config.PopParamOr(params, "czt_ball_split_visit_thresh", 10)
	if err != nil {
		return 0, 0, err
	}
	return bias, splitThresh, nil
}

// smKnobs are the simplex-map knobs shared by SM-BTS and SM-DENTS
// (spec.md §6).
type smKnobs struct {
	lInfThresh       float64
	maxDepth         int
	splitVisitThresh int
	variant          string
}

func popSimplexKnobs(params config.Params) (smKnobs, error) {
	lInfThresh, err := config.PopParamOr(params, "sm_l_inf_thresh", 0.05)
	if err != nil {
		return smKnobs{}, err
	}
	maxDepth, err := config.PopParamOr(params, "sm_max_depth", 20)
	if err != nil {
		return smKnobs{}, err
	}
	splitVisitThresh, err := config.PopParamOr(params, "sm_split_visit_thresh", 1)
	if err != nil {
		return smKnobs{}, err
	}
	variant, err := config.PopParamOr(params, "sm_variant", "barycentric")
	if err != nil {
		return smKnobs{}, err
	}
	return smKnobs{lInfThresh: lInfThresh, maxDepth: maxDepth, splitVisitThresh: splitVisitThresh, variant: variant}, nil
}
