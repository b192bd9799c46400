// Package policy implements the recommendation policy object spec.md
// §4.I describes: something that "binds a root node, an environment and
// a manager; given a context it returns the root's recommend_action(ctx)".
// It is the thin façade the Monte-Carlo evaluator (package mceval) and
// cmd/moplan both drive once a trial pool has finished searching.
package policy

import (
	"github.com/pkg/errors"

	"github.com/arrowlake/mozt/internal/config"
	"github.com/arrowlake/mozt/internal/env"
	"github.com/arrowlake/mozt/internal/pool"
)

// Policy binds one already-searched planner (the "root node" spec.md
// §4.I refers to -- pool.Planner.Recommend always resolves against its
// Runner's root) to the environment it searched and the run id ("the
// manager") that configured it.
type Policy struct {
	Planner pool.Planner
	Env     env.Environment
	RunID   *config.RunID
}

// New builds a Policy.
func New(planner pool.Planner, environment env.Environment, runID *config.RunID) *Policy {
	return &Policy{Planner: planner, Env: environment, RunID: runID}
}

// Recommend returns the root's recommended action for ctx's scalarising
// weight, checked against the environment's valid-action set at the
// initial state (spec.md §8 property 6: "every action returned by
// recommend_action is an element of the environment's valid_actions at
// that state").
func (p *Policy) Recommend(ctx *env.Context) (env.Action, error) {
	action, err := p.Planner.Recommend(ctx.Weight)
	if err != nil {
		return nil, errors.Wrap(err, "policy: Recommend")
	}
	valid, err := p.Env.ValidActions(p.Env.InitialState(), ctx)
	if err != nil {
		return nil, errors.Wrap(err, "policy: Recommend: ValidActions")
	}
	for _, a := range valid {
		if a.Equal(action) {
			return action, nil
		}
	}
	return nil, errors.Errorf("policy: recommended action is not among the root's valid actions")
}
