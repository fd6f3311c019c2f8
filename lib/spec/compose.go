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

// Package spec implements the spec composer (spec.md §4.1, component
// C1): resolving a ClusterSpec's :extends chains into a flat list of
// fully-merged GroupSpecs, applying environment overlays, and expanding
// multiple clusters into one namespaced group list. It is grounded on
// the teacher's storage.OperationPlan construction helpers
// (lib/storage/plan.go) for the merge-by-name convention and on
// lib/fsm's Config.CheckAndSetDefaults idiom for validation.
package spec

import (
	"github.com/gravitational/grove/lib/model"
	"github.com/gravitational/grove/lib/utils"

	"github.com/gravitational/trace"
)

// Compose resolves every group in cluster against its :extends chain
// (a ServerSpec or another group in the same cluster) and returns the
// fully-merged, independently valid group list. The input cluster is
// not modified.
func Compose(cluster model.ClusterSpec) ([]model.GroupSpec, error) {
	if err := cluster.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}

	servers := make(map[string]model.ServerSpec, len(cluster.Servers))
	for _, s := range cluster.Servers {
		servers[s.Name] = s
	}
	groupsByName := make(map[string]model.GroupSpec, len(cluster.Groups))
	for _, g := range cluster.Groups {
		groupsByName[g.Name] = g
	}

	out := make([]model.GroupSpec, 0, len(cluster.Groups))
	resolving := utils.NewStringSet()
	resolved := make(map[string]model.GroupSpec, len(cluster.Groups))
	for _, g := range cluster.Groups {
		merged, err := resolveGroup(g, servers, groupsByName, resolved, resolving)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		out = append(out, merged)
	}
	return out, nil
}

// resolveGroup merges g with its :extends ancestor, memoizing already
// resolved groups and detecting inheritance cycles via the resolving set.
func resolveGroup(
	g model.GroupSpec,
	servers map[string]model.ServerSpec,
	groups map[string]model.GroupSpec,
	resolved map[string]model.GroupSpec,
	resolving utils.StringSet,
) (model.GroupSpec, error) {
	if merged, ok := resolved[g.Name]; ok {
		return merged, nil
	}
	if g.Extends == "" {
		if err := g.CheckAndSetDefaults(); err != nil {
			return model.GroupSpec{}, trace.Wrap(err)
		}
		resolved[g.Name] = g
		return g, nil
	}

	if resolving.Has(g.Name) {
		return model.GroupSpec{}, trace.BadParameter("group %q: circular :extends chain via %q", g.Name, g.Extends)
	}
	resolving.Add(g.Name)
	defer resolving.Remove(g.Name)

	merged := g
	if server, ok := servers[g.Extends]; ok {
		merged.NodeSpec = g.NodeSpec.Merge(server.NodeSpec)
		merged.Roles = unionRoles(g.Roles, server.Roles)
	} else if parent, ok := groups[g.Extends]; ok {
		resolvedParent, err := resolveGroup(parent, servers, groups, resolved, resolving)
		if err != nil {
			return model.GroupSpec{}, trace.Wrap(err)
		}
		merged.NodeSpec = g.NodeSpec.Merge(resolvedParent.NodeSpec)
		merged.Roles = unionRoles(g.Roles, resolvedParent.Roles)
		merged.Phases = mergePhases(g.Phases, resolvedParent.Phases)
		if len(merged.DestroyPhase) == 0 {
			merged.DestroyPhase = resolvedParent.DestroyPhase
		}
		if len(merged.CreateGroupPhase) == 0 {
			merged.CreateGroupPhase = resolvedParent.CreateGroupPhase
		}
		if len(merged.DestroyGroupPhase) == 0 {
			merged.DestroyGroupPhase = resolvedParent.DestroyGroupPhase
		}
	} else {
		return model.GroupSpec{}, trace.NotFound("group %q: :extends target %q is not a known server or group", g.Name, g.Extends)
	}
	merged.Extends = ""

	if err := merged.CheckAndSetDefaults(); err != nil {
		return model.GroupSpec{}, trace.Wrap(err)
	}
	resolved[g.Name] = merged
	return merged, nil
}

// mergePhases unions child and parent phase maps; a phase name present
// in child wins outright over the parent's phase of the same name
// (spec.md §4.1: the more specific definition takes precedence).
func mergePhases(child, parent map[string][]model.Action) map[string][]model.Action {
	if len(child) == 0 && len(parent) == 0 {
		return nil
	}
	out := make(map[string][]model.Action, len(child)+len(parent))
	for name, actions := range parent {
		out[name] = actions
	}
	for name, actions := range child {
		out[name] = actions
	}
	return out
}

func unionRoles(a, b []string) []string {
	set := utils.NewStringSetFromSlice(a)
	set.AddSlice(b)
	return set.Slice()
}
