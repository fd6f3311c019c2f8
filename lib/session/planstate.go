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

// Package session implements the per-operation Session (spec.md §3):
// PlanState, a concurrency-safe store of phase results keyed by target
// and phase name, and Recorder, the event sink phase executors and
// action effectors report through. Grounded on the teacher's
// storage.OperationPlan/OperationPhase state tracking
// (lib/storage/plan.go) and lib/fsm's progress reporter, adapted from a
// persisted etcd-backed plan to an in-memory guarded cell since this
// engine has no backing store of its own (spec.md Non-goals).
package session

import (
	"sync"

	"github.com/gravitational/grove/lib/model"
)

// planKey identifies one phase run against one target.
type planKey struct {
	targetID string
	phase    string
}

// PlanState is a concurrency-safe store of PhaseResults, written by the
// phase executor as phases complete and readable by any holder of the
// operation's Session; the operation driver itself does not read it
// back when deciding what runs next. It also carries a
// flat set of string facts seeded from Options.PlanState at the start
// of an operation (spec.md §6 "plan-state"): externally known values
// (e.g. recovered from a separately-recorded prior operation) that a
// plan function or action may consult without re-deriving them.
type PlanState struct {
	mu      sync.RWMutex
	results map[planKey]model.PhaseResult
	facts   map[string]string
}

// NewPlanState returns an empty PlanState.
func NewPlanState() *PlanState {
	return &PlanState{results: make(map[planKey]model.PhaseResult)}
}

// Seed merges facts into the PlanState, overwriting any existing key.
func (p *PlanState) Seed(facts map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.facts == nil {
		p.facts = make(map[string]string, len(facts))
	}
	for k, v := range facts {
		p.facts[k] = v
	}
}

// Fact returns the seeded value for key, if any.
func (p *PlanState) Fact(key string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.facts[key]
	return v, ok
}

// Set records result for the given target's phase run.
func (p *PlanState) Set(targetID, phase string, result model.PhaseResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results[planKey{targetID, phase}] = result
}

// Get returns the recorded result for the given target's phase run, if any.
func (p *PlanState) Get(targetID, phase string) (model.PhaseResult, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	result, ok := p.results[planKey{targetID, phase}]
	return result, ok
}

// Snapshot returns a copy of every recorded result, safe to range over
// without holding the PlanState's lock.
func (p *PlanState) Snapshot() []model.PhaseResult {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]model.PhaseResult, 0, len(p.results))
	for _, r := range p.results {
		out = append(out, r)
	}
	return out
}

// Failed reports whether any recorded phase ended in a non-terminal-
// success state (domain error or crash).
func (p *PlanState) Failed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, r := range p.results {
		state := r.GetState()
		if state == model.PhaseStateDomainError || state == model.PhaseStateCrashed {
			return true
		}
	}
	return false
}
