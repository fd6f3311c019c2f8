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

	"github.com/gravitational/grove/lib/defaults"
	"github.com/gravitational/grove/lib/model"
	"github.com/gravitational/grove/lib/phase"
	"github.com/gravitational/grove/lib/session"

	"github.com/gravitational/trace"
	"github.com/google/uuid"
)

// Lift runs opts.Phases, in order, against every currently live target
// in opts.Groups, without computing or realizing a delta (spec.md
// §4.6). It is the primitive tool/grovectl exposes for pushing a
// configuration change to an already-converged fleet without touching
// node counts. Lift always runs defaults.DefaultSettingsPhase first, as
// its own phase, and stops before the OS-detection phases and
// opts.Phases if that run leaves any target in a state other than
// succeeded or skipped.
func Lift(ctx context.Context, opts Options) (*Operation, error) {
	if err := opts.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}

	id := uuid.New().String()
	runCtx, cancel := context.WithCancel(ctx)
	sess := session.New(id, opts.Progress)
	op := newOperation(id, cancel, sess)

	go runLift(runCtx, opts, sess, op)
	return op, nil
}

func runLift(ctx context.Context, opts Options, sess *session.Session, op *Operation) {
	defer sess.Recorder.Stop()

	if len(opts.PlanState) > 0 {
		sess.PlanState.Seed(opts.PlanState)
	}

	targets, err := resolveTargets(ctx, opts)
	if err != nil {
		finishOperation(ctx, op, nil, trace.Wrap(err))
		return
	}
	targets = withInlinePhases(targets, opts.InlineActions)

	executor := phase.NewExecutor(opts.Registry, opts.Concurrency)

	var results []model.PhaseResult
	settingsResults, err := executor.LiftPhase(ctx, sess, targets, defaults.DefaultSettingsPhase)
	results = append(results, settingsResults...)
	if err != nil {
		finishOperation(ctx, op, results, trace.Wrap(err))
		return
	}
	for _, r := range settingsResults {
		if r.GetState() != model.PhaseStateSucceeded && r.GetState() != model.PhaseStateSkipped {
			finishOperation(ctx, op, results, trace.BadParameter("lift: %q failed the settings phase", r.Target.Node.ID()))
			return
		}
	}

	opResults, err := executor.LiftOp(ctx, sess, targets, phaseSequence(opts))
	results = append(results, opResults...)
	finishOperation(ctx, op, results, err)
}
