// Package mceval implements the Monte-Carlo evaluator spec.md §1 lists as
// an external collaborator ("used to score a recommended policy") and
// §2/SPEC_FULL.md component M promotes to a minimal, real, in-repo
// implementation: it rolls a policy.Policy out rollouts_per_mc_eval times
// and reports the average vector and scalarised return.
//
// Grounded on the teacher repository's cmd/trainer/play_and_train.go
// worker-group idiom (errgroup.Group fanning out independent episodes),
// generalized from hiveGo's single-objective win-rate tally to a
// vector-reward running mean.
//
// Only the very first action of each rollout -- taken exactly at the
// environment's initial state, which is the one state policy.Policy can
// recommend for (spec.md §4.I: the policy binds a single root node) --
// uses the searched recommendation; every subsequent step samples
// uniformly among the current state's valid actions, a standard default
// rollout policy once a trial has walked off the root's own recommendation.
package mceval

import (
	"context"
	"math/rand"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/arrowlake/mozt/internal/env"
	"github.com/arrowlake/mozt/internal/policy"
)

// Result is the aggregate outcome of a batch of rollouts, all evaluated
// against the same scalarising weight.
type Result struct {
	Rollouts         int
	MeanVectorReturn []float64
	MeanScalarReturn float64
	SinkFraction     float64
}

// Evaluator rolls a Policy out over independent simulated episodes.
type Evaluator struct {
	Env            env.Environment
	Policy         *policy.Policy
	MaxTrialLength int
	NumThreads     int
	Seed           int64
}

// New builds an Evaluator.
func New(environment env.Environment, p *policy.Policy, maxTrialLength, numThreads int, seed int64) *Evaluator {
	if numThreads < 1 {
		numThreads = 1
	}
	return &Evaluator{Env: environment, Policy: p, MaxTrialLength: maxTrialLength, NumThreads: numThreads, Seed: seed}
}

// Evaluate runs n independent rollouts against weight, split across
// e.NumThreads workers, and returns their aggregate statistics. It fails
// fast on the first rollout error (spec.md §7: environment errors
// propagate, nothing is silently retried).
func (e *Evaluator) Evaluate(ctx context.Context, n int, weight []float64) (*Result, error) {
	dim := e.Env.RewardDim()
	if len(weight) != dim {
		return nil, errors.Errorf("mceval: weight has dimension %d, want %d", len(weight), dim)
	}

	var mu sync.Mutex
	sumVector := make([]float64, dim)
	sumScalar := 0.0
	sinkCount := 0

	group, gctx := errgroup.WithContext(ctx)
	for w := 0; w < e.NumThreads; w++ {
		threadID := w
		share := n / e.NumThreads
		if threadID < n%e.NumThreads {
			share++
		}
		group.Go(func() error {
			rng := rand.New(rand.NewSource(e.Seed ^ int64(threadID) ^ 0x6d6365762d65)) // "mcev-e"
			for i := 0; i < share; i++ {
				if gctx.Err() != nil {
					return nil
				}
				vecReturn, reachedSink, err := e.rollout(rng, weight)
				if err != nil {
					return err
				}
				mu.Lock()
				for k := range sumVector {
					sumVector[k] += vecReturn[k]
				}
				sumScalar += scalarize(weight, vecReturn)
				if reachedSink {
					sinkCount++
				}
				mu.Unlock()
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, errors.Wrap(err, "mceval: Evaluate")
	}

	meanVector := make([]float64, dim)
	for k := range meanVector {
		meanVector[k] = sumVector[k] / float64(n)
	}
	result := &Result{
		Rollouts:         n,
		MeanVectorReturn: meanVector,
		MeanScalarReturn: sumScalar / float64(n),
		SinkFraction:     float64(sinkCount) / float64(n),
	}
	klog.V(2).Infof("mceval: %d rollouts, mean scalar return %.4f, sink fraction %.2f",
		n, result.MeanScalarReturn, result.SinkFraction)
	return result, nil
}

func scalarize(w, v []float64) float64 {
	s := 0.0
	for i := range w {
		s += w[i] * v[i]
	}
	return s
}

// rollout runs one episode: the policy's root recommendation for the
// very first action, a uniform default policy thereafter, until a sink or
// MaxTrialLength steps.
func (e *Evaluator) rollout(rng *rand.Rand, weight []float64) (vectorReturn []float64, reachedSink bool, err error) {
	dim := e.Env.RewardDim()
	vectorReturn = make([]float64, dim)
	state := e.Env.InitialState()
	ctx := &env.Context{Weight: weight, RNG: rng}

	for step := 0; step < e.MaxTrialLength; step++ {
		if e.Env.IsSink(state, ctx) {
			return vectorReturn, true, nil
		}
		var action env.Action
		if step == 0 {
			action, err = e.Policy.Recommend(ctx)
		} else {
			action, err = e.uniformAction(state, ctx, rng)
		}
		if err != nil {
			return nil, false, err
		}

		reward, rerr := e.Env.MOReward(state, action, ctx)
		if rerr != nil {
			return nil, false, env.Wrap("MOReward", rerr)
		}
		for k := range vectorReturn {
			vectorReturn[k] += reward[k]
		}

		next, terr := e.Env.SampleTransition(state, action, rng, ctx)
		if terr != nil {
			return nil, false, env.Wrap("SampleTransition", terr)
		}
		ctx.LastAction = action
		state = next
	}
	return vectorReturn, e.Env.IsSink(state, ctx), nil
}

func (e *Evaluator) uniformAction(state env.State, ctx *env.Context, rng *rand.Rand) (env.Action, error) {
	actions, err := e.Env.ValidActions(state, ctx)
	if err != nil {
		return nil, env.Wrap("ValidActions", err)
	}
	if len(actions) == 0 {
		return nil, errors.New("mceval: uniformAction called at a sink state")
	}
	return actions[rng.Intn(len(actions))], nil
}
