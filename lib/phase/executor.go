/*
Copyright 2018 Gravitational, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package phase implements the phase executor (spec.md §4.5-§5,
// component C5): running a named phase's actions against every target
// concurrently, partitioned so one target's failure never blocks its
// siblings, and distinguishing a domain error (an action ran and
// reported failure) from a plan crash (the executor itself could not
// complete the phase: a panic or a context deadline). Grounded on the
// teacher's lib/fsm.FSM.ExecutePhase/executeSubphasesConcurrently, which
// runs sibling sub-phases the same way over an error channel.
package phase

import (
	"context"
	"time"

	"github.com/gravitational/grove/lib/action"
	"github.com/gravitational/grove/lib/defaults"
	"github.com/gravitational/grove/lib/model"
	"github.com/gravitational/grove/lib/run"
	"github.com/gravitational/grove/lib/session"

	"github.com/gravitational/trace"
)

// Executor runs phases against targets using a registry of action
// effectors, bounded to at most Concurrency targets in flight at once.
type Executor struct {
	registry    action.Registry
	concurrency int
}

// NewExecutor returns an Executor dispatching through registry, running
// at most concurrency targets at a time. concurrency <= 0 means
// unbounded, matching lib/run.WithParallel's convention.
func NewExecutor(registry action.Registry, concurrency int) *Executor {
	return &Executor{registry: registry, concurrency: concurrency}
}

// LiftPhase runs phaseName against every target concurrently and
// returns one PhaseResult per target, in the same order as targets.
// Every result is also recorded to sess.PlanState and sess.Recorder.
// The returned error aggregates every target's domain error or crash;
// callers after per-target detail should inspect the results instead.
func (e *Executor) LiftPhase(ctx context.Context, sess *session.Session, targets []model.Target, phaseName string) ([]model.PhaseResult, error) {
	group, groupCtx := run.WithContext(ctx, run.WithParallel(e.concurrency))
	results := make([]model.PhaseResult, len(targets))

	for i, t := range targets {
		i, t := i, t
		group.Go(groupCtx, func() error {
			results[i] = e.runPhase(groupCtx, t, phaseName)
			sess.PlanState.Set(t.Node.ID(), phaseName, results[i])
			for _, a := range results[i].Actions {
				sess.Recorder.RecordAction(a)
			}
			sess.Recorder.RecordPhase(results[i])
			return nil
		})
	}
	// group.Wait never returns an error here: runPhase reports
	// per-target failure through results, not through the group, so
	// siblings are never canceled by one target's domain error.
	_ = group.Wait()

	var errs []error
	for _, r := range results {
		if r.State != model.PhaseStateSucceeded && r.State != model.PhaseStateSkipped {
			errs = append(errs, phaseError(r))
		}
	}
	return results, trace.Wrap(trace.NewAggregate(errs...))
}

func phaseError(r model.PhaseResult) error {
	for _, a := range r.Actions {
		if a.State != model.PhaseStateSucceeded {
			return trace.Wrap(a.Err, "phase %q on %q", r.Phase.Name, r.Target.Node.ID())
		}
	}
	return trace.Errorf("phase %q on %q ended in state %q", r.Phase.Name, r.Target.Node.ID(), r.State)
}

// runPhase executes every action of phaseName against target in order,
// stopping at the first non-succeeded action. A group that does not
// define phaseName at all yields PhaseStateSkipped, since not every
// group participates in every named phase (spec.md §4.5). A phase run
// is bounded by defaults.DefaultPhaseTimeout.
func (e *Executor) runPhase(ctx context.Context, target model.Target, phaseName string) model.PhaseResult {
	actions, ok := target.Group.PhaseActions(phaseName)
	if !ok {
		return model.PhaseResult{
			Phase:  model.Phase{Name: phaseName},
			Target: target,
			State:  model.PhaseStateSkipped,
		}
	}
	ctx, cancel := context.WithTimeout(ctx, defaults.DefaultPhaseTimeout)
	defer cancel()

	result := model.PhaseResult{
		Phase:  model.Phase{Name: phaseName, Actions: actions},
		Target: target,
	}
	for _, a := range actions {
		ar := e.runAction(ctx, target, a)
		result.Actions = append(result.Actions, ar)
		if ar.State != model.PhaseStateSucceeded {
			break
		}
	}
	result.State = result.GetState()
	return result
}

// runAction dispatches a to its executor, recovering a panic into a
// PhaseStateCrashed result so one misbehaving effector never takes down
// the phase executor itself.
func (e *Executor) runAction(ctx context.Context, target model.Target, a model.Action) (result model.ActionResult) {
	result = model.ActionResult{Target: target, Action: a, StartedAt: time.Now()}
	defer func() {
		result.FinishedAt = time.Now()
		if r := recover(); r != nil {
			result.State = model.PhaseStateCrashed
			result.Err = trace.Errorf("action %q panicked: %v", a.Name, r)
		}
	}()

	if ctx.Err() != nil {
		result.State = model.PhaseStateCrashed
		result.Err = trace.Wrap(ctx.Err())
		return result
	}

	executor, err := e.registry.Resolve(a)
	if err != nil {
		result.State = model.PhaseStateCrashed
		result.Err = trace.Wrap(err)
		return result
	}

	output, err := executor.Execute(ctx, target, a)
	result.Output = output
	if err != nil {
		result.State = model.PhaseStateDomainError
		result.Err = trace.Wrap(err)
		return result
	}
	result.State = model.PhaseStateSucceeded
	return result
}
