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

// Package action declares the effector surface a phase action dispatches
// to (spec.md §6): the phase executor resolves an action's Executor
// name against a Registry and calls Execute, never importing a concrete
// transport itself. lib/action/test, lib/action/local and
// lib/action/ssh are the implementations shipped with this repo.
package action

import (
	"context"

	"github.com/gravitational/grove/lib/model"

	"github.com/gravitational/trace"
)

// Executor runs a single action against a single target.
type Executor interface {
	// Execute runs action against target, returning its captured output.
	// A non-nil error is a domain error: the action ran and failed, as
	// opposed to the executor itself being unable to dispatch it.
	Execute(ctx context.Context, target model.Target, action model.Action) (output string, err error)
}

// Registry resolves an action's Executor name to an Executor implementation.
type Registry map[string]Executor

// NewRegistry returns a Registry containing the given executors.
func NewRegistry(executors map[string]Executor) Registry {
	r := make(Registry, len(executors))
	for name, ex := range executors {
		r[name] = ex
	}
	return r
}

// Resolve looks up the executor action.Executor names.
func (r Registry) Resolve(action model.Action) (Executor, error) {
	ex, ok := r[action.Executor]
	if !ok {
		return nil, trace.NotFound("no executor registered for %q", action.Executor)
	}
	return ex, nil
}
