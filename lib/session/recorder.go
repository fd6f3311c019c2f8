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

package session

import (
	"context"
	"sync"

	"github.com/gravitational/grove/lib/model"
	"github.com/gravitational/grove/lib/utils"
)

// Recorder is the event sink the phase executor writes to as work
// progresses. It fans events out to a human Progress reporter and,
// independently, to any number of Follow subscribers, grounded on
// lib/fsm's follow.go channel-fan-out pattern.
type Recorder struct {
	progress utils.Progress

	mu          sync.Mutex
	subscribers []chan model.ActionResult
}

// NewRecorder returns a Recorder that reports to progress. A nil
// progress is replaced with a no-op reporter.
func NewRecorder(progress utils.Progress) *Recorder {
	if progress == nil {
		progress = utils.NewNopProgress()
	}
	return &Recorder{progress: progress}
}

// RecordPhase reports a completed phase to the Progress reporter.
func (r *Recorder) RecordPhase(result model.PhaseResult) {
	if result.State == model.PhaseStateSucceeded {
		r.progress.NextStep("Phase %q on %q complete", result.Phase.Name, result.Target.Node.ID())
		return
	}
	r.progress.PrintWarn(nil, "Phase %q on %q ended in state %q", result.Phase.Name, result.Target.Node.ID(), result.State)
}

// RecordAction reports one action's result to the Progress reporter and
// to every active Follow subscriber.
func (r *Recorder) RecordAction(result model.ActionResult) {
	r.progress.PrintSubStep("%v: %v", result.Action.Name, result.State)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ch := range r.subscribers {
		select {
		case ch <- result:
		default:
		}
	}
}

// Follow returns a channel of ActionResults as they are recorded, until
// ctx is done. The channel is closed when the subscription ends; a slow
// consumer drops events rather than blocking the recorder, since
// progress streaming is best-effort (spec.md §5).
func (r *Recorder) Follow(ctx context.Context) <-chan model.ActionResult {
	ch := make(chan model.ActionResult, 32)

	r.mu.Lock()
	r.subscribers = append(r.subscribers, ch)
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, sub := range r.subscribers {
			if sub == ch {
				r.subscribers = append(r.subscribers[:i], r.subscribers[i+1:]...)
				break
			}
		}
		close(ch)
	}()

	return ch
}

// Stop finalizes the underlying Progress reporter.
func (r *Recorder) Stop() {
	r.progress.Stop()
}
