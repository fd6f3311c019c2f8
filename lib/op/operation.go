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
	"sync"

	"github.com/gravitational/grove/lib/model"
	"github.com/gravitational/grove/lib/session"

	"github.com/gravitational/trace"
)

// Status is the lifecycle of an Operation.
type Status string

const (
	// StatusRunning means the operation is still in progress
	StatusRunning Status = "running"
	// StatusSucceeded means every phase against every target succeeded
	StatusSucceeded Status = "succeeded"
	// StatusFailed means at least one target ended in a domain error or crash
	StatusFailed Status = "failed"
	// StatusCanceled means the operation's context was canceled before completion
	StatusCanceled Status = "canceled"
)

// Result is the final outcome of a completed Operation.
type Result struct {
	// Results holds every PhaseResult produced during the operation
	Results []model.PhaseResult
	// Err is the aggregate error, if the operation did not fully succeed
	Err error
}

// Operation is an async handle to a running Converge or Lift call. The
// caller may Await it, poll Status, or Cancel it; this mirrors the
// teacher's long-running SiteOperation plus the cancel/timeout handle
// lib/fsm.FSM exposes around ExecutePlan.
type Operation struct {
	id      string
	cancel  context.CancelFunc
	session *session.Session

	done chan struct{}

	mu     sync.Mutex
	status Status
	result Result
}

func newOperation(id string, cancel context.CancelFunc, sess *session.Session) *Operation {
	return &Operation{
		id:      id,
		cancel:  cancel,
		session: sess,
		done:    make(chan struct{}),
		status:  StatusRunning,
	}
}

func (o *Operation) finish(status Status, result Result) {
	o.mu.Lock()
	o.status = status
	o.result = result
	o.mu.Unlock()
	close(o.done)
}

// ID returns the operation's identifier.
func (o *Operation) ID() string { return o.id }

// Status returns the operation's current status without blocking.
func (o *Operation) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Session returns the operation's Session, for inspecting PlanState or
// subscribing to Recorder.Follow while the operation is still running.
func (o *Operation) Session() *session.Session { return o.session }

// Cancel requests the operation stop as soon as possible. It does not
// block until the operation has actually finished; call Await for that.
func (o *Operation) Cancel() { o.cancel() }

// Await blocks until the operation finishes or ctx is done, whichever
// comes first, and returns the final result.
func (o *Operation) Await(ctx context.Context) (Result, error) {
	select {
	case <-o.done:
		o.mu.Lock()
		defer o.mu.Unlock()
		return o.result, nil
	case <-ctx.Done():
		return Result{}, trace.Wrap(ctx.Err())
	}
}
