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

package phase

import (
	"context"

	"github.com/gravitational/grove/lib/model"
	"github.com/gravitational/grove/lib/session"

	"github.com/gravitational/trace"
)

// LiftOp runs phases in order against targets: every target that is
// still in play advances through all of them, concurrently with its
// siblings within each phase. PhaseStateSkipped (a group that simply
// does not define the named phase, e.g. most groups skip os-bs/os)
// never removes a target from later phases in the sequence — only a
// domain error or a crash does, matching the teacher's plan semantics
// where a failed phase halts only its own subtree, not sibling
// subtrees (lib/fsm.FSM.executeOnePhase).
func (e *Executor) LiftOp(ctx context.Context, sess *session.Session, targets []model.Target, phases []string) ([]model.PhaseResult, error) {
	var all []model.PhaseResult
	var errs []error

	live := make(map[string]model.Target, len(targets))
	for _, t := range targets {
		live[t.Node.ID()] = t
	}

	for _, phaseName := range phases {
		if len(live) == 0 {
			break
		}
		inFlight := make([]model.Target, 0, len(live))
		for _, t := range live {
			inFlight = append(inFlight, t)
		}

		results, err := e.LiftPhase(ctx, sess, inFlight, phaseName)
		all = append(all, results...)
		if err != nil {
			errs = append(errs, err)
		}
		for _, r := range results {
			if r.State != model.PhaseStateSucceeded && r.State != model.PhaseStateSkipped {
				delete(live, r.Target.Node.ID())
			}
		}
	}

	return all, trace.Wrap(trace.NewAggregate(errs...))
}
