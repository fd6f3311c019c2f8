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

package op

import (
	"context"

	"github.com/gravitational/grove/lib/adjust"
	"github.com/gravitational/grove/lib/defaults"
	"github.com/gravitational/grove/lib/delta"
	"github.com/gravitational/grove/lib/log"
	"github.com/gravitational/grove/lib/model"
	"github.com/gravitational/grove/lib/phase"
	"github.com/gravitational/grove/lib/session"
	"github.com/gravitational/grove/lib/target"

	"github.com/gravitational/trace"
	"github.com/google/uuid"
)

// Converge resolves live targets against opts.Groups, computes and
// realizes each group's delta, then lifts the OS-detection phases,
// :settings and opts.Phases over every surviving and newly created
// target (spec.md §4.6). It returns immediately with an Operation
// handle; the work runs in the background and Await waits for it.
func Converge(ctx context.Context, opts Options) (*Operation, error) {
	if err := opts.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}

	id := uuid.New().String()
	runCtx, cancel := context.WithCancel(ctx)
	sess := session.New(id, opts.Progress)
	op := newOperation(id, cancel, sess)

	go runConverge(runCtx, opts, sess, op)
	return op, nil
}

func runConverge(ctx context.Context, opts Options, sess *session.Session, op *Operation) {
	defer sess.Recorder.Stop()

	results, err := converge(ctx, opts, sess)
	finishOperation(ctx, op, results, err)
}

func converge(ctx context.Context, opts Options, sess *session.Session) ([]model.PhaseResult, error) {
	if len(opts.PlanState) > 0 {
		sess.PlanState.Seed(opts.PlanState)
	}

	targets, err := resolveTargets(ctx, opts)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	deltas, err := delta.Compute(opts.Groups, targets)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	executor := phase.NewExecutor(opts.Registry, opts.Concurrency)
	logger := log.NewForComponent("converge")

	var results []model.PhaseResult
	for _, d := range deltas {
		if d.CreateGroup {
			created, _ := executor.LiftPhase(ctx, sess, []model.Target{model.GroupTarget(d.Group)}, model.ReservedPhaseCreateGroup)
			results = append(results, created...)
		}
		if len(d.Remove) == 0 {
			continue
		}
		teardown, _ := executor.LiftPhase(ctx, sess, d.Remove, model.ReservedPhaseDestroy)
		results = append(results, teardown...)
	}

	adjustResults, adjustErr := adjust.Run(ctx, opts.Provider, deltas, logger)
	if adjustErr != nil && ctx.Err() != nil {
		return results, trace.Wrap(adjustErr)
	}

	var newTargets []model.Target
	removedIDs := make(map[string]bool)
	for _, r := range adjustResults {
		for _, n := range r.Added {
			newTargets = append(newTargets, model.Target{Node: n, Group: r.Group})
		}
		for _, n := range r.Removed {
			removedIDs[n.ID()] = true
		}
	}

	for i, d := range deltas {
		if d.RemoveGroup && adjustResults[i].Err == nil {
			destroyed, _ := executor.LiftPhase(ctx, sess, []model.Target{model.GroupTarget(d.Group)}, model.ReservedPhaseDestroyGroup)
			results = append(results, destroyed...)
		}
	}

	survivors := make([]model.Target, 0, len(targets))
	for _, t := range targets {
		if !removedIDs[t.Node.ID()] {
			survivors = append(survivors, t)
		}
	}

	liftTargets := withInlinePhases(append(survivors, newTargets...), opts.InlineActions)
	// OS detection runs first, then :settings, then the caller's phases.
	sequence := phaseSequence(opts)
	osPhases := len(sequence) - len(opts.Phases)
	phases := make([]string, 0, len(sequence)+1)
	phases = append(phases, sequence[:osPhases]...)
	phases = append(phases, defaults.DefaultSettingsPhase)
	phases = append(phases, sequence[osPhases:]...)
	if opts.Debug {
		logger.Debugf("converge: lifting phases %v over %d target(s)", phases, len(liftTargets))
	}
	opResults, err := executor.LiftOp(ctx, sess, liftTargets, phases)
	results = append(results, opResults...)

	settingsResults, settingsErr := liftAllNodeSet(ctx, executor, sess, opts)
	results = append(results, settingsResults...)
	if err == nil {
		err = settingsErr
	}

	return results, trace.Wrap(trace.NewAggregate(adjustErr, err))
}

// phaseSequence prepends the OS-detection phases to opts.Phases unless
// Options.SkipOSDetect is set (spec.md §6 "os-detect", default true).
// Lift runs the resulting sequence after its own :settings run;
// Converge runs :settings between the OS-detection phases and
// opts.Phases.
func phaseSequence(opts Options) []string {
	if opts.SkipOSDetect {
		return opts.Phases
	}
	out := make([]string, 0, len(opts.Phases)+2)
	out = append(out, defaults.DefaultOSBootstrapPhase, defaults.DefaultOSPhase)
	out = append(out, opts.Phases...)
	return out
}

// liftAllNodeSet resolves opts.AllNodeSpecs against the provider and
// runs only the settings phase against the result (spec.md §6
// "all-node-set": "Extra specs used to retain targets not being
// converged; they receive only :settings"), via
// lib/target.NonGroupTargets so these nodes never enter delta
// computation or the node-count adjuster.
func liftAllNodeSet(ctx context.Context, executor *phase.Executor, sess *session.Session, opts Options) ([]model.PhaseResult, error) {
	if len(opts.AllNodeSpecs) == 0 {
		return nil, nil
	}

	var targets []model.Target
	for _, g := range opts.AllNodeSpecs {
		nodes, err := opts.Provider.Nodes(ctx, g.Name)
		if err != nil {
			return nil, trace.Wrap(err, "listing nodes for all-node-set spec %q", g.Name)
		}
		targets = append(targets, target.NonGroupTargets(g, nodes)...)
	}

	return executor.LiftPhase(ctx, sess, targets, defaults.DefaultSettingsPhase)
}

func resolveTargets(ctx context.Context, opts Options) ([]model.Target, error) {
	var nodes []model.Node
	for _, g := range opts.Groups {
		groupNodes, err := opts.Provider.Nodes(ctx, g.Name)
		if err != nil {
			return nil, trace.Wrap(err, "listing nodes for group %q", g.Name)
		}
		nodes = append(nodes, groupNodes...)
	}
	return target.Resolve(nodes, opts.Groups)
}

func finishOperation(ctx context.Context, op *Operation, results []model.PhaseResult, err error) {
	status := StatusSucceeded
	switch {
	case ctx.Err() != nil:
		status = StatusCanceled
	case err != nil:
		status = StatusFailed
	}
	op.finish(status, Result{Results: results, Err: err})
}
