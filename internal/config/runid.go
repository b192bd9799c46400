package config

import (
	"strings"
	"time"
)

// AlgID selects one of the four planner variants this engine implements.
type AlgID int

const (
	CZT AlgID = iota
	CHMCTS
	SMBTS
	SMDENTS
)

func (a AlgID) String() string {
	switch a {
	case CZT:
		return "czt"
	case CHMCTS:
		return "chmcts"
	case SMBTS:
		return "smbts"
	case SMDENTS:
		return "smdents"
	default:
		return "unknown"
	}
}

// ParseAlgID resolves a run id's alg_id string. An unrecognised id is a
// fatal config.Error (spec.md §7: "unknown algorithm... id" is fatal at
// setup).
func ParseAlgID(s string) (AlgID, error) {
	switch strings.ToLower(s) {
	case "czt":
		return CZT, nil
	case "chmcts":
		return CHMCTS, nil
	case "smbts":
		return SMBTS, nil
	case "smdents":
		return SMDENTS, nil
	default:
		return 0, Errorf("unknown alg_id %q", s)
	}
}

// RunID identifies one experiment: the environment, the algorithm, the
// knobs common to every algorithm, and the algorithm-specific knobs still
// left in Params for the chosen planner constructor to pop.
type RunID struct {
	EnvID string
	AlgID AlgID

	SearchRuntime     time.Duration
	MaxTrialLength    int
	RolloutsPerMCEval int
	NumRepeats        int
	NumThreads        int
	EvalThreads       int
	Seed              int64

	// Params holds every algorithm knob not already promoted to a typed
	// field above (czt_bias, sm_l_inf_thresh, smbts_epsilon, ...). Planner
	// constructors pop the keys they understand via PopParamOr; this
	// engine does not error on names a given algorithm never refers to —
	// those are ordinarily the other algorithms' knobs, left in the same
	// run-id record for convenience when sweeping configurations.
	Params Params
}

// NewRunID builds a RunID from the env_id, alg_id and key=value knobs a
// caller has already split out of a positional run-id string of the form
// "env_id,alg_id,key=value,...". Common knobs fall back to defaults drawn
// from spec.md §6; algorithm-specific knobs stay in Params for the planner
// package's own constructor to consume.
func NewRunID(envID, algIDStr string, raw Params) (*RunID, error) {
	algID, err := ParseAlgID(algIDStr)
	if err != nil {
		return nil, err
	}
	if envID == "" {
		return nil, Errorf("empty env_id")
	}

	runtimeSeconds, err := PopParamOr(raw, "search_runtime_seconds", 30.0)
	if err != nil {
		return nil, err
	}
	maxTrialLength, err := PopParamOr(raw, "max_trial_length", 200)
	if err != nil {
		return nil, err
	}
	rollouts, err := PopParamOr(raw, "rollouts_per_mc_eval", 100)
	if err != nil {
		return nil, err
	}
	numRepeats, err := PopParamOr(raw, "num_repeats", 1)
	if err != nil {
		return nil, err
	}
	numThreads, err := PopParamOr(raw, "num_threads", 1)
	if err != nil {
		return nil, err
	}
	evalThreads, err := PopParamOr(raw, "eval_threads", numThreads)
	if err != nil {
		return nil, err
	}
	seed, err := PopParamOr(raw, "seed", 0)
	if err != nil {
		return nil, err
	}

	return &RunID{
		EnvID:             envID,
		AlgID:             algID,
		SearchRuntime:     time.Duration(runtimeSeconds * float64(time.Second)),
		MaxTrialLength:    maxTrialLength,
		RolloutsPerMCEval: rollouts,
		NumRepeats:        numRepeats,
		NumThreads:        numThreads,
		EvalThreads:       evalThreads,
		Seed:              int64(seed),
		Params:            raw,
	}, nil
}
