// Command moplan is the experiment driver spec.md §6 describes: a single
// positional argument selects a named run id ("env_id,alg_id,key=value,...");
// it builds the environment and planner the run id names, searches for
// search_runtime_seconds, then hands the result to the Monte-Carlo
// evaluator for rollouts_per_mc_eval rollouts, repeating num_repeats
// times. Exit code 0 on success, non-zero on any config or runtime
// failure (spec.md §7).
//
// Structured the way the teacher repository's cmd/hive/main.go is:
// klog.InitFlags + flag.Parse, a context cancelled by
// internal/ui/spinning.SafeInterrupt on Ctrl+C, everything else
// delegated to library packages.
package main

import (
	"context"
	"flag"
	"math/rand"
	"strings"
	"time"

	"k8s.io/klog/v2"

	"github.com/arrowlake/mozt/internal/config"
	"github.com/arrowlake/mozt/internal/env"
	"github.com/arrowlake/mozt/internal/envs/debugmo"
	"github.com/arrowlake/mozt/internal/envs/gridsea"
	"github.com/arrowlake/mozt/internal/mceval"
	"github.com/arrowlake/mozt/internal/planner"
	"github.com/arrowlake/mozt/internal/policy"
	"github.com/arrowlake/mozt/internal/pool"
	"github.com/arrowlake/mozt/internal/telemetry"
	"github.com/arrowlake/mozt/internal/ui/spinning"
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if flag.NArg() != 1 {
		telemetry.Fatalf("usage: moplan <env_id>,<alg_id>[,key=value,...]")
	}

	runID, err := parseRunID(flag.Arg(0))
	if err != nil {
		telemetry.Fatalf("%+v", err)
	}

	environment, err := buildEnv(runID.EnvID)
	if err != nil {
		telemetry.Fatalf("%+v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	spinning.SafeInterrupt(cancel, 3*time.Second)
	defer cancel()

	for repeat := 0; repeat < runID.NumRepeats; repeat++ {
		repeatRunID := *runID
		repeatRunID.Params = runID.Params.Clone()
		if err := runOnce(ctx, environment, &repeatRunID, repeat); err != nil {
			telemetry.Fatalf("%+v", err)
		}
	}
}

// parseRunID splits the single positional argument into env_id, alg_id
// and the remaining "key=value" knobs.
func parseRunID(raw string) (*config.RunID, error) {
	parts := strings.Split(raw, ",")
	if len(parts) < 2 {
		return nil, config.Errorf("run id %q must be at least \"env_id,alg_id\"", raw)
	}
	params := config.NewParamsFromConfigString(strings.Join(parts[2:], ","))
	return config.NewRunID(parts[0], parts[1], params)
}

// buildEnv resolves env_id to one of the built-in grid environments
// (spec.md §1 scopes adapters to external environment libraries out;
// SPEC_FULL.md §2 component K/L supply the two built-in families this
// repository ships).
func buildEnv(envID string) (env.Environment, error) {
	switch envID {
	case "gridsea":
		return gridsea.New(gridsea.Classic()), nil
	case "gridsea-stochastic":
		cfg := gridsea.Classic()
		cfg.StayProb = 0.25
		return gridsea.New(cfg), nil
	case "debugmo2":
		return debugmo.New(debugmo.Config{Dim: 2, Branching: 3, Depth: 6}), nil
	case "debugmo4":
		return debugmo.New(debugmo.Default()), nil
	case "debugmo6":
		return debugmo.New(debugmo.Config{Dim: 6, Branching: 3, Depth: 6}), nil
	default:
		return nil, config.Errorf("unknown env_id %q", envID)
	}
}

// buildPlanner resolves alg_id to one of the four planner constructors
// (spec.md §7: "unknown algorithm... id" is a fatal config.Error).
func buildPlanner(algID config.AlgID, environment env.Environment, runID *config.RunID) (pool.Planner, error) {
	switch algID {
	case config.CZT:
		return planner.NewCZT(environment, runID)
	case config.CHMCTS:
		return planner.NewCHMCTS(environment, runID)
	case config.SMBTS:
		return planner.NewSMBTS(environment, runID)
	case config.SMDENTS:
		return planner.NewSMDENTS(environment, runID)
	default:
		return nil, config.Errorf("unknown alg_id %v", algID)
	}
}

func runOnce(ctx context.Context, environment env.Environment, runID *config.RunID, repeat int) error {
	telemetry.LogRunStart(runID, repeat)

	plannerInstance, err := buildPlanner(runID.AlgID, environment, runID)
	if err != nil {
		return err
	}

	searchStart := time.Now()
	if err := plannerInstance.RunTrialsFor(ctx, runID.SearchRuntime); err != nil {
		return err
	}
	searchElapsed := time.Since(searchStart)

	p := policy.New(plannerInstance, environment, runID)
	evaluator := mceval.New(environment, p, runID.MaxTrialLength, runID.EvalThreads, runID.Seed)

	weight := environment.SampleContext(0, rand.New(rand.NewSource(runID.Seed))).Weight
	evalStart := time.Now()
	result, err := evaluator.Evaluate(ctx, runID.RolloutsPerMCEval, weight)
	if err != nil {
		return err
	}
	evalElapsed := time.Since(evalStart)

	telemetry.LogRunComplete(telemetry.RunStats{
		EnvID:            runID.EnvID,
		AlgID:            runID.AlgID,
		Repeat:           repeat,
		NumRepeats:       runID.NumRepeats,
		SearchWallClock:  searchElapsed,
		EvalWallClock:    evalElapsed,
		MeanScalarReturn: result.MeanScalarReturn,
		SinkFraction:     result.SinkFraction,
	})
	return nil
}
