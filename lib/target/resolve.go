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

// Package target implements the target resolver (spec.md §4.2,
// component C2): binding raw provider inventory to the groups that own
// it, by the reserved group-name tag plus each group's optional
// NodeFilter override. The teacher has no literal inventory-resolution
// equivalent to ground this on directly; the tag/filter matching shape
// follows spec.md §6's own description of the reserved-tag contract,
// and the "drop, don't error, on an unmatched node" choice follows
// lib/fsm/utils.go's general tolerance of partial/unexpected plan state
// over crashing a whole operation on one bad input.
package target

import (
	"github.com/gravitational/grove/lib/constants"
	"github.com/gravitational/grove/lib/model"
	"github.com/gravitational/grove/lib/utils"

	"github.com/gravitational/trace"
)

// Resolve classifies every node in nodes under zero or more groups,
// using each group's NodeFilter if set, else the default filter: the
// node carries constants.GroupNameTag equal to the group's name, or
// (when the tag is absent) its base name equals the group's name
// (spec.md §3 "node-filter", §4.2).
//
// A node matching no group is dropped. A node matching more than one
// group yields one Target per matching group, each carrying the full
// set of matching group names in GroupNames, so a group's delta
// computation (lib/delta) always sees the group it actually owns while
// plan functions can still discover a target's other memberships.
func Resolve(nodes []model.Node, groups []model.GroupSpec) ([]model.Target, error) {
	if err := checkDuplicateNames(groups); err != nil {
		return nil, trace.Wrap(err)
	}

	var out []model.Target
	for _, n := range nodes {
		matches := matchingGroups(n, groups)
		if len(matches) == 0 {
			continue
		}
		names := utils.NewStringSet()
		for _, g := range matches {
			names.Add(g.Name)
		}
		for _, g := range matches {
			out = append(out, model.Target{
				Node:       n,
				Group:      g,
				GroupNames: names.Clone(),
			})
		}
	}
	return out, nil
}

// NonGroupTargets materializes one Target per node for a caller-supplied
// (group-spec, nodes) pair that bypasses filter matching entirely
// (spec.md §4.2 "Non-group targets"), e.g. options.all-node-set members
// that should only receive the settings phase.
func NonGroupTargets(group model.GroupSpec, nodes []model.Node) []model.Target {
	out := make([]model.Target, 0, len(nodes))
	names := utils.NewStringSetFromSlice([]string{group.Name})
	for _, n := range nodes {
		out = append(out, model.Target{Node: n, Group: group, GroupNames: names.Clone()})
	}
	return out
}

// RoleIndex inverts groups into role -> group names, re-exported from
// model for callers that only import lib/target (model.NewRoleIndex is
// the canonical implementation; component C2 owns the derivation per
// spec.md §4.2 "Role index").
func RoleIndex(groups []model.GroupSpec) model.RoleIndex {
	return model.NewRoleIndex(groups)
}

func matchingGroups(n model.Node, groups []model.GroupSpec) []model.GroupSpec {
	var matches []model.GroupSpec
	for _, g := range groups {
		if nodeFilter(g)(n) {
			matches = append(matches, g)
		}
	}
	return matches
}

// nodeFilter returns g's custom NodeFilter if set, else the default
// filter described in spec.md §3: the node carries the reserved
// group-name tag, else (when the provider can't tag, or the tag is
// absent) its base name matches the group's name.
func nodeFilter(g model.GroupSpec) model.NodeFilterFunc {
	if g.NodeFilter != nil {
		return g.NodeFilter
	}
	return func(n model.Node) bool {
		if tag, ok := n.Tags()[constants.GroupNameTag]; ok {
			return tag == g.Name
		}
		return n.BaseName() == g.Name
	}
}

func checkDuplicateNames(groups []model.GroupSpec) error {
	seen := make(map[string]bool, len(groups))
	for _, g := range groups {
		if seen[g.Name] {
			return trace.BadParameter("target resolver: duplicate group name %q", g.Name)
		}
		seen[g.Name] = true
	}
	return nil
}
