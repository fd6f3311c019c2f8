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

import "github.com/gravitational/grove/lib/utils"

// Target binds a live node to the group that owns it, as produced by
// the target resolver (spec.md §4.2, component C2) from raw provider
// inventory plus the composed group list. Phase plan functions and
// effector actions operate exclusively on Targets, never on raw Nodes.
type Target struct {
	// Node is the live fleet member this target wraps
	Node Node
	// Group is the resolved group spec the node belongs to
	Group GroupSpec
	// GroupNames holds every group name the node's tags/roles place it
	// in, for fleets where membership is not exclusive
	GroupNames utils.StringSet
}

// HasGroup reports whether the target belongs to the named group.
func (t Target) HasGroup(name string) bool {
	return t.GroupNames.Has(name)
}

// groupNode is the synthetic Node backing a group-scope Target
// (spec.md §3 "target-type ∈ {:node, :group}"): the :create-group and
// :destroy-group phases act on the group as a whole, not on any single
// live member, but the phase executor still needs a Node identity to
// key PlanState entries and log messages by.
type groupNode struct{ name string }

func (n groupNode) ID() string              { return "group/" + n.name }
func (n groupNode) BaseName() string        { return n.name }
func (n groupNode) PrimaryIP() string       { return "" }
func (n groupNode) Tags() map[string]string { return nil }

// GroupTarget returns the group-scope Target for group's reserved
// :create-group/:destroy-group phases (spec.md §4.4): no live node
// backs it.
func GroupTarget(group GroupSpec) Target {
	return Target{
		Node:       groupNode{name: group.Name},
		Group:      group,
		GroupNames: utils.NewStringSetFromSlice([]string{group.Name}),
	}
}

// RoleIndex inverts a group list into role -> group names, used to
// resolve node-filter expressions that select by role rather than by
// group name directly (spec.md §4.2).
type RoleIndex map[string]utils.StringSet

// NewRoleIndex builds a RoleIndex from the given groups.
func NewRoleIndex(groups []GroupSpec) RoleIndex {
	idx := make(RoleIndex)
	for _, g := range groups {
		for _, role := range g.Roles {
			if idx[role] == nil {
				idx[role] = utils.NewStringSet()
			}
			idx[role].Add(g.Name)
		}
	}
	return idx
}

// GroupsForRole returns the names of every group carrying the given role.
func (idx RoleIndex) GroupsForRole(role string) []string {
	return idx[role].Slice()
}
