// Package pool implements the trial pool: a fixed-size worker group that
// drives root-to-leaf descents and upward backups concurrently over a
// shared tree, generic over the planner-specific payload (spec.md §4.H).
// The worker loop and concurrency idiom are grounded on the teacher
// repository's cmd/trainer/play_and_train.go playAndTrain: one
// errgroup.Group of workers each looping trials, a shared atomic
// completed-trial counter standing in for its IdGen, and first-error-wins
// abort propagated through the group's context.
package pool

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/arrowlake/mozt/internal/env"
	"github.com/arrowlake/mozt/internal/tree"
)

// Runner is the generic trial-pool engine: one instantiation per planner
// payload type. It owns the root decision node and drives workers that
// each repeatedly descend, sample transitions, and back up.
type Runner[P any] struct {
	Env            env.Environment
	Alg            Algorithm[P]
	MaxTrialLength int
	NumThreads     int
	Seed           int64

	root *tree.DecisionNode[P]
}

// NewRunner builds a Runner rooted at the environment's initial state. It
// calls ValidActions once, using a bootstrap per-thread context, to
// populate the root's chance children — the same lazy-children contract
// every other decision node gets from its first visit.
func NewRunner[P any](environment env.Environment, alg Algorithm[P], maxTrialLength, numThreads int, seed int64) (*Runner[P], error) {
	if numThreads < 1 {
		numThreads = 1
	}
	bootstrapRNG := rand.New(rand.NewSource(seed))
	bootstrapCtx := environment.SampleContext(0, bootstrapRNG)
	initState := environment.InitialState()
	actions, err := environment.ValidActions(initState, bootstrapCtx)
	if err != nil {
		return nil, wrap("NewRunner", err)
	}
	root := tree.NewDecisionNode[P](initState, 0, alg.NewDecisionPayload(), actions, alg.NewActionPayload, nil)
	return &Runner[P]{
		Env:            environment,
		Alg:            alg,
		MaxTrialLength: maxTrialLength,
		NumThreads:     numThreads,
		Seed:           seed,
		root:           root,
	}, nil
}

// Root exposes the root decision node, mostly for diagnostics and
// invariant checks (package tree's CheckDecisionNode).
func (r *Runner[P]) Root() *tree.DecisionNode[P] { return r.root }

// RunTrials runs exactly n trials split across NumThreads workers and
// returns after all of them complete, or the first error any of them
// raises (spec.md §4.H: "any failures raise").
func (r *Runner[P]) RunTrials(ctx context.Context, n int) error {
	var completed atomic.Int64
	group, gctx := errgroup.WithContext(ctx)
	for w := 0; w < r.NumThreads; w++ {
		threadID := w
		group.Go(func() error {
			rng := rand.New(rand.NewSource(r.Seed ^ int64(threadID)))
			for {
				if gctx.Err() != nil {
					return nil
				}
				next := completed.Add(1)
				if next > int64(n) {
					return nil
				}
				if err := r.runOneTrial(threadID, rng); err != nil {
					return err
				}
			}
		})
	}
	if err := group.Wait(); err != nil {
		klog.Errorf("pool: RunTrials aborted after %d/%d trials: %v", completed.Load(), n, err)
		return wrap("RunTrials", err)
	}
	klog.V(2).Infof("pool: RunTrials completed %d trials across %d workers", n, r.NumThreads)
	return nil
}

// RunTrialsFor runs trials across NumThreads workers until duration
// elapses. Cancellation is cooperative at trial boundaries only — a
// trial already in progress runs to completion (spec.md §5).
func (r *Runner[P]) RunTrialsFor(ctx context.Context, duration time.Duration) error {
	deadlineCtx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()
	group, gctx := errgroup.WithContext(deadlineCtx)
	for w := 0; w < r.NumThreads; w++ {
		threadID := w
		group.Go(func() error {
			rng := rand.New(rand.NewSource(r.Seed ^ int64(threadID)))
			for gctx.Err() == nil {
				if err := r.runOneTrial(threadID, rng); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return wrap("RunTrialsFor", err)
	}
	return nil
}

// Recommend returns the root's recommended action for weight w, the
// terminal operation of every planner (spec.md §4.I).
func (r *Runner[P]) Recommend(w []float64) (env.Action, error) {
	ctx := &env.Context{Weight: w}
	r.root.Lock()
	defer r.root.Unlock()
	action, err := r.Alg.RecommendAction(r.root, ctx)
	if err != nil {
		return nil, wrap("Recommend", err)
	}
	return action, nil
}

// trialStep is one (decision, chance) edge a descent walked through, kept
// so the upward backup pass can fold local rewards into a return-to-go
// vector per node without revisiting the environment.
type trialStep[P any] struct {
	decision    *tree.DecisionNode[P]
	chance      *tree.ChanceNode[P]
	localReward []float64
}

// runOneTrial performs one full descent-then-backup: spec.md §4.H steps
// 1-5.
func (r *Runner[P]) runOneTrial(threadID int, rng *rand.Rand) error {
	tctx := r.Env.SampleContext(threadID, rng)

	var path []trialStep[P]
	d := r.root
	depth := 0

	for {
		d.Lock()
		d.Visit()
		action, err := r.Alg.SelectAction(d, tctx)
		d.Unlock()
		if err != nil {
			return wrap("SelectAction", err)
		}

		d.Lock()
		c, ok := d.ChanceChild(action)
		d.Unlock()
		if !ok {
			return wrap("SelectAction", errors.Errorf("selected action not among this node's valid actions"))
		}

		c.Lock()
		c.Visit()
		if !c.HasLocalReward() {
			reward, rerr := r.Env.MOReward(d.State, action, tctx)
			if rerr != nil {
				c.Unlock()
				return wrap("MOReward", rerr)
			}
			c.SetLocalRewardOnce(reward)
		}
		localReward := append([]float64(nil), c.LocalReward...)
		c.Unlock()

		tctx.LastAction = action

		nextState, terr := r.Env.SampleTransition(d.State, action, rng, tctx)
		if terr != nil {
			return wrap("SampleTransition", terr)
		}

		path = append(path, trialStep[P]{decision: d, chance: c, localReward: localReward})
		depth++

		sink := r.Env.IsSink(nextState, tctx)
		atDepthLimit := depth >= r.MaxTrialLength

		var buildErr error
		c.Lock()
		child, _ := c.GetOrCreateChild(nextState, func() *tree.DecisionNode[P] {
			if sink {
				return tree.NewDecisionNode[P](nextState, depth, r.Alg.NewDecisionPayload(), nil, r.Alg.NewActionPayload, c)
			}
			nextActions, aerr := r.Env.ValidActions(nextState, tctx)
			if aerr != nil {
				buildErr = aerr
				return tree.NewDecisionNode[P](nextState, depth, r.Alg.NewDecisionPayload(), nil, r.Alg.NewActionPayload, c)
			}
			return tree.NewDecisionNode[P](nextState, depth, r.Alg.NewDecisionPayload(), nextActions, r.Alg.NewActionPayload, c)
		})
		c.Unlock()
		if buildErr != nil {
			return wrap("ValidActions", buildErr)
		}

		if sink || atDepthLimit {
			child.Lock()
			child.Visit()
			child.Unlock()
			break
		}
		d = child
	}

	return r.backup(path, tctx)
}

// backup walks path from leaf to root, folding local rewards into a
// running return-to-go vector and handing each node its own sample under
// its own lock. The walk itself holds one node's lock at a time (spec.md §5
// ordering rule 1); an Algorithm's BackupDecision may additionally lock
// that decision node's chance children, as CHMCTS's does.
func (r *Runner[P]) backup(path []trialStep[P], ctx *env.Context) error {
	dim := r.Env.RewardDim()
	returnToGo := make([]float64, dim)

	for i := len(path) - 1; i >= 0; i-- {
		step := path[i]
		if len(step.localReward) != dim {
			return wrap("backup", errors.Errorf("reward dimension mismatch: got %d want %d", len(step.localReward), dim))
		}
		for k := 0; k < dim; k++ {
			returnToGo[k] += step.localReward[k]
		}
		sample := append([]float64(nil), returnToGo...)

		step.chance.Lock()
		r.Alg.BackupChance(step.chance, sample, ctx)
		step.chance.RecordBackup()
		step.chance.Unlock()

		step.decision.Lock()
		r.Alg.BackupDecision(step.decision, sample, ctx)
		step.decision.RecordBackup()
		step.decision.Unlock()
	}
	return nil
}
