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

// Package test provides an in-memory action.Executor for exercising the
// phase executor without a real transport.
package test

import (
	"context"
	"fmt"
	"sync"

	"github.com/gravitational/grove/lib/model"

	"github.com/gravitational/trace"
)

// Executor records every action it is asked to run and can be
// configured to fail specific commands, for exercising the phase
// executor's domain-error handling.
type Executor struct {
	mu      sync.Mutex
	Calls   []Call
	FailOn  map[string]error
}

// Call is one recorded invocation of Execute.
type Call struct {
	Target model.Target
	Action model.Action
}

// New returns an empty test executor.
func New() *Executor {
	return &Executor{FailOn: make(map[string]error)}
}

// Execute records the call and returns the configured failure for
// action.Command, if any, otherwise a canned success output.
func (e *Executor) Execute(ctx context.Context, target model.Target, action model.Action) (string, error) {
	e.mu.Lock()
	e.Calls = append(e.Calls, Call{Target: target, Action: action})
	err := e.FailOn[action.Command]
	e.mu.Unlock()

	if err != nil {
		return "", trace.Wrap(err)
	}
	return fmt.Sprintf("ok: %s", action.Command), nil
}
