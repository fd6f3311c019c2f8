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

package model

import (
	"fmt"

	"github.com/gravitational/trace"
)

// NodeFilterFunc reports whether a live node belongs to the group that
// owns it; when set it replaces the default GroupNameTag/base-name
// membership test (spec.md §6).
type NodeFilterFunc func(node Node) bool

// RemovalSelectionFunc picks which of a group's current members to
// remove when the group must shrink by count (spec.md §4.3). Supplied
// implementations live in lib/delta (TakeFirst, TakeRandom,
// TakeByAnnotation); the zero value means "use the package default".
type RemovalSelectionFunc func(count int, targets []Target) []Target

// ServerSpec names a concrete extends-able node template: the unit
// GroupSpec.Extends references (spec.md §4.1).
type ServerSpec struct {
	// Name uniquely identifies this server spec within a ClusterSpec
	Name string `yaml:"name"`
	// NodeSpec is the provisioning template for nodes created from this spec
	NodeSpec NodeSpec `yaml:"node"`
	// Roles are informational labels inherited by groups extending this
	// spec; providers do not write them onto nodes
	Roles []string `yaml:"roles,omitempty"`
}

// CheckAndSetDefaults validates the server spec.
func (s *ServerSpec) CheckAndSetDefaults() error {
	if s.Name == "" {
		return trace.BadParameter("server spec: name is required")
	}
	return trace.Wrap(s.NodeSpec.CheckAndSetDefaults())
}

// GroupSpec describes one fleet group: its desired member count, the
// node template new members are created from, the phases that bring a
// member to steady state, and how members are torn down (spec.md §3,
// §4.1-§4.3).
type GroupSpec struct {
	// Name uniquely identifies the group within a cluster
	Name string `yaml:"name"`
	// Extends names a ServerSpec or parent GroupSpec this group inherits
	// node-spec, roles and phases from
	Extends string `yaml:"extends,omitempty"`
	// Count is the desired number of live members
	Count int `yaml:"count"`
	// NodeSpec is the provisioning template for new members; fields left
	// zero are inherited via NodeSpec.Merge from the extended spec
	NodeSpec NodeSpec `yaml:"node,omitempty"`
	// Roles are informational labels for this group, in addition to
	// roles inherited from Extends; providers do not write them onto
	// nodes
	Roles []string `yaml:"roles,omitempty"`
	// Phases maps phase name to the ordered list of actions run against a
	// member in that phase (spec.md §4.5, §4.6); a caller-supplied phase
	// sequence (e.g. Options.Phases) may only name entries of this map,
	// never one of the reserved names below
	Phases map[string][]Action `yaml:"phases,omitempty"`
	// DestroyPhase runs against a member immediately before the
	// node-count adjuster destroys it (spec.md §4.4's :destroy-server),
	// invoked automatically rather than via a caller-supplied phase name
	DestroyPhase []Action `yaml:"destroy,omitempty"`
	// CreateGroupPhase runs once, group-scoped, the first time this
	// group gains a member after having none (spec.md §4.3-§4.4's
	// :create-group)
	CreateGroupPhase []Action `yaml:"create_group,omitempty"`
	// DestroyGroupPhase runs once, group-scoped, after this group's
	// desired count drops to zero and its last member is destroyed
	// (spec.md §4.3-§4.4's :destroy-group)
	DestroyGroupPhase []Action `yaml:"destroy_group,omitempty"`
	// NodeFilter, when set, decides on its own which live nodes belong
	// to this group, in place of the group-name tag/base-name test, for
	// providers with noisy inventories
	NodeFilter NodeFilterFunc `yaml:"-"`
	// RemovalSelectionFn picks which members to remove on scale-down; nil
	// means the package default (TakeFirst)
	RemovalSelectionFn RemovalSelectionFunc `yaml:"-"`
	// Annotations carry opaque metadata, consulted by
	// delta.TakeByAnnotation
	Annotations map[string]string `yaml:"annotations,omitempty"`
	// Nested declares child group templates whose effective Count is
	// this group's Count multiplied by the child's own Count (spec.md
	// §4.1 "expand-group-spec-with-counts"), e.g. a "region" group with
	// Count 3 and one Nested entry of Count 2 expands into a single
	// flattened group of 6 members. A group that sets Nested is a
	// template only; lib/spec.ExpandNestedCounts, called from
	// op.Options.CheckAndSetDefaults on the already-composed group list,
	// replaces it with one flattened group per nested entry.
	Nested []GroupSpec `yaml:"nested,omitempty"`
}

// Reserved phase names the operation driver and node-count adjuster
// attach internally; a GroupSpec may not define its own phase under any
// of these names (spec.md §4.4-§4.5).
const (
	// ReservedPhaseDestroy tears a member down before it is removed from
	// the fleet (the Go analog of spec.md's :destroy-server)
	ReservedPhaseDestroy = "destroy"
	// ReservedPhaseCreateGroup runs once, before a group's first member
	// is ever created, when the group previously had zero live members
	ReservedPhaseCreateGroup = "create-group"
	// ReservedPhaseDestroyGroup runs once, after a group's last member
	// has been destroyed, when the group's desired count drops to zero
	ReservedPhaseDestroyGroup = "destroy-group"
)

var reservedPhaseNames = map[string]bool{
	ReservedPhaseDestroy:      true,
	ReservedPhaseCreateGroup:  true,
	ReservedPhaseDestroyGroup: true,
}

// CheckAndSetDefaults validates the group spec, rejecting negative
// counts and user-defined phases under a reserved name.
func (g *GroupSpec) CheckAndSetDefaults() error {
	if g.Name == "" {
		return trace.BadParameter("group spec: name is required")
	}
	if g.Count < 0 {
		return trace.BadParameter("group %q: count must not be negative, got %d", g.Name, g.Count)
	}
	for name := range g.Phases {
		if reservedPhaseNames[name] {
			return trace.BadParameter("group %q: phase name %q is reserved", g.Name, name)
		}
	}
	return nil
}

// PhaseActions returns the ordered actions for name and whether the
// group defines them, checking the reserved DestroyPhase/
// CreateGroupPhase/DestroyGroupPhase fields for their respective names
// before falling back to the general Phases map for everything else.
func (g GroupSpec) PhaseActions(name string) ([]Action, bool) {
	switch name {
	case ReservedPhaseDestroy:
		return g.DestroyPhase, len(g.DestroyPhase) > 0
	case ReservedPhaseCreateGroup:
		return g.CreateGroupPhase, len(g.CreateGroupPhase) > 0
	case ReservedPhaseDestroyGroup:
		return g.DestroyGroupPhase, len(g.DestroyGroupPhase) > 0
	default:
		actions, ok := g.Phases[name]
		return actions, ok
	}
}

// ClusterSpec is the top-level declarative document: a named collection
// of server templates and groups (spec.md §3, §4.1).
type ClusterSpec struct {
	// Name identifies the cluster, used as a prefix when expanding into
	// a flat group list (spec.md §4.1, "cluster expansion")
	Name string `yaml:"name"`
	// Servers are the reusable node templates groups may extend
	Servers []ServerSpec `yaml:"servers,omitempty"`
	// Groups are the fleet groups that make up this cluster
	Groups []GroupSpec `yaml:"groups"`
	// Environment names the overlay applied on top of this spec (spec.md
	// §4.1, "environment overlay"), e.g. "production"
	Environment string `yaml:"environment,omitempty"`
	// NodeSpec is merged into every group's own NodeSpec, filling in
	// fields the group leaves zero (spec.md §3/§4.1: cluster-level
	// node-spec is the outermost layer of the merge, below a group's
	// :extends ancestor and below the group itself)
	NodeSpec NodeSpec `yaml:"node,omitempty"`
	// Roles are added to every group in this cluster, in addition to the
	// implicit cluster-name role lib/spec.ExpandCluster always appends
	Roles []string `yaml:"roles,omitempty"`
	// Phases are merged into every group's own Phases map; a group's own
	// phase of the same name wins on collision (spec.md §8 scenario:
	// "phases defined at cluster level merge into groups; group-level
	// phases override cluster-level on name collision")
	Phases map[string][]Action `yaml:"phases,omitempty"`
}

// CheckAndSetDefaults validates the cluster spec and every server and
// group it contains.
func (c *ClusterSpec) CheckAndSetDefaults() error {
	if c.Name == "" {
		return trace.BadParameter("cluster spec: name is required")
	}
	for name := range c.Phases {
		if reservedPhaseNames[name] {
			return trace.BadParameter("cluster %q: phase name %q is reserved", c.Name, name)
		}
	}
	seen := make(map[string]bool, len(c.Servers))
	for i := range c.Servers {
		if err := c.Servers[i].CheckAndSetDefaults(); err != nil {
			return trace.Wrap(err)
		}
		if seen[c.Servers[i].Name] {
			return trace.BadParameter("cluster %q: duplicate server spec %q", c.Name, c.Servers[i].Name)
		}
		seen[c.Servers[i].Name] = true
	}
	groupNames := make(map[string]bool, len(c.Groups))
	for i := range c.Groups {
		if err := c.Groups[i].CheckAndSetDefaults(); err != nil {
			return trace.Wrap(err)
		}
		if groupNames[c.Groups[i].Name] {
			return trace.BadParameter("cluster %q: duplicate group %q", c.Name, c.Groups[i].Name)
		}
		groupNames[c.Groups[i].Name] = true
	}
	if len(c.Groups) == 0 {
		return trace.BadParameter("cluster %q: at least one group is required", c.Name)
	}
	return nil
}

// Action is a single effector invocation within a phase (spec.md §4.5,
// §4.6): Executor names the lib/action.Executor implementation to
// dispatch to (e.g. "ssh", "local"), Command and Args are passed through
// opaquely to that executor.
type Action struct {
	// Name identifies the action for logging and result reporting
	Name string `yaml:"name"`
	// Executor names the lib/action.Executor this action dispatches to
	Executor string `yaml:"executor"`
	// Command is the executor-specific command to run
	Command string `yaml:"command"`
	// Args are executor-specific arguments
	Args []string `yaml:"args,omitempty"`
	// Timeout is carried with the action as written in the spec; no
	// executor reads it, so an action is bounded only by its phase's
	// context (defaults.DefaultPhaseTimeout and the operation's context)
	Timeout string `yaml:"timeout,omitempty"`
}

// String implements fmt.Stringer for log messages and error context.
func (a Action) String() string {
	return fmt.Sprintf("action(%s via %s)", a.Name, a.Executor)
}

// Phase is a named, ordered list of actions applied to a single target
// (spec.md §4.5).
type Phase struct {
	// Name identifies the phase, e.g. "bootstrap", "configure"
	Name string
	// Actions run in order; the phase stops at the first action that
	// does not succeed. There is no per-action best-effort marker.
	Actions []Action
}
