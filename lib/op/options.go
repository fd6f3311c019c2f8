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

// Package op implements the operation driver (spec.md §4.6, component
// C6): Converge, which resolves targets, computes and realizes deltas,
// and lifts the steady-state phases over the result, and Lift, which
// runs :settings and then a phase sequence without touching node
// counts. Both return
// an async Operation handle, grounded on the teacher's
// ops.Operator-returned long-running operations
// (lib/storage.SiteOperation) and on lib/fsm.FSM's own
// ExecutePlan/ExecutePhase split between "run everything" and "run one
// phase".
package op

import (
	"github.com/gravitational/grove/lib/action"
	"github.com/gravitational/grove/lib/compute"
	"github.com/gravitational/grove/lib/defaults"
	"github.com/gravitational/grove/lib/model"
	"github.com/gravitational/grove/lib/spec"
	"github.com/gravitational/grove/lib/utils"

	"github.com/gravitational/trace"
	"github.com/google/uuid"
)

// Options configures a Converge or Lift call (spec.md §6's option
// schema). Fields documented there as function-valued
// (partition-f, post-phase-f/post-phase-fsm, phase-execution-f,
// execution-settings-f) have no Go equivalent in this engine: every
// other option is a plain value so a spec can round-trip through YAML,
// and the phase/target/delta pipeline (lib/phase, lib/target,
// lib/delta) already exposes the seams those hooks would customize
// (NodeFilterFunc, RemovalSelectionFunc, phase.Executor's concurrency
// knob) without needing a caller-supplied closure threaded through
// Options. See DESIGN.md for the per-option justification.
type Options struct {
	// Groups is the fully composed group list (spec.md §4.1), already
	// resolved by lib/spec.Compose/Overlay/ExpandCluster. Any group that
	// declares Nested entries is expanded by CheckAndSetDefaults via
	// lib/spec.ExpandNestedCounts before it is used.
	Groups []model.GroupSpec
	// Provider drives node creation/destruction
	Provider compute.Provider
	// Registry resolves action executors
	Registry action.Registry
	// Phases is the ordered phase sequence Converge/Lift runs against
	// every target, e.g. ["bootstrap", "configure"]. Defaults to
	// [defaults.DefaultDefaultPhase] when empty. A name not present in a
	// group's Phases map, nor registered via AddInlinePhase, is simply
	// skipped for that target (lib/phase.Executor's existing
	// skip-if-absent behavior).
	Phases []string
	// Concurrency bounds how many targets run a phase at once; <= 0
	// means unbounded
	Concurrency int
	// Progress receives human-readable status as the operation runs
	Progress utils.Progress

	// SkipOSDetect disables the OS-detection phases normally prepended
	// to Converge's phase sequence (spec.md §6 "os-detect", default
	// true means detection runs unless this is set)
	SkipOSDetect bool
	// PlanState seeds the operation's session.PlanState with externally
	// known facts before any phase runs (spec.md §6 "plan-state"), e.g.
	// values recovered from a previous, separately-recorded operation
	PlanState map[string]string
	// AllNodeSpecs names extra group specs whose live nodes Converge
	// resolves but never converges: they receive only the settings
	// phase, never Phases or a delta (spec.md §6 "all-node-set", "Extra
	// specs used to retain targets not being converged"). Lift does not
	// read this field.
	AllNodeSpecs []model.GroupSpec
	// InlineActions holds phases registered by AddInlinePhase, keyed by
	// the gensym'd name returned to the caller
	InlineActions map[string][]model.Action
	// Debug makes Converge log the phase sequence and target count it is
	// about to lift at debug level; Lift ignores it (spec.md §6 "debug";
	// diagnostic only, never changes control flow)
	Debug bool
}

// AddInlinePhase registers an anonymous, caller-supplied action list
// under a gensym'd phase name and appends that name to o.Phases,
// returning the name (spec.md §6 "phase", inline-anonymous-phase form;
// spec.md §9 "Inline anonymous phases" design note: the caller supplies
// the actions directly rather than naming a phase already present on
// every target's GroupSpec). The returned name is only ever unique
// within this Options value.
func (o *Options) AddInlinePhase(actions []model.Action) string {
	if o.InlineActions == nil {
		o.InlineActions = make(map[string][]model.Action)
	}
	name := "inline-" + uuid.New().String()
	o.InlineActions[name] = actions
	o.Phases = append(o.Phases, name)
	return name
}

// CheckAndSetDefaults validates o and fills in defaults.
func (o *Options) CheckAndSetDefaults() error {
	if len(o.Groups) == 0 {
		return trace.BadParameter("operation: at least one group is required")
	}
	if o.Provider == nil {
		return trace.BadParameter("operation: a compute provider is required")
	}
	if o.Registry == nil {
		return trace.BadParameter("operation: an action registry is required")
	}

	expanded, err := spec.ExpandNestedCounts(o.Groups)
	if err != nil {
		return trace.Wrap(err)
	}
	o.Groups = expanded

	if len(o.Phases) == 0 {
		o.Phases = []string{defaults.DefaultDefaultPhase}
	}
	return nil
}
