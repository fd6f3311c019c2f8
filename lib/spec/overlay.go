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

package spec

import (
	"github.com/gravitational/grove/lib/model"

	"github.com/gravitational/trace"
)

// Overlay applies env on top of base (spec.md §4.1, "environment
// overlay"): env's servers and groups are merged into base by name,
// with env's fields taking precedence field-by-field via NodeSpec.Merge
// and phase override, exactly as a group's :extends ancestor is merged.
// A group present only in env is appended; a group present only in base
// is left untouched.
func Overlay(base, env model.ClusterSpec) (model.ClusterSpec, error) {
	out := base
	out.Servers = overlayServers(base.Servers, env.Servers)
	out.Groups = overlayGroups(base.Groups, env.Groups)
	if env.Environment != "" {
		out.Environment = env.Environment
	}
	if err := out.CheckAndSetDefaults(); err != nil {
		return model.ClusterSpec{}, trace.Wrap(err)
	}
	return out, nil
}

func overlayServers(base, env []model.ServerSpec) []model.ServerSpec {
	byName := make(map[string]int, len(base))
	out := make([]model.ServerSpec, len(base))
	copy(out, base)
	for i, s := range out {
		byName[s.Name] = i
	}
	for _, s := range env {
		if i, ok := byName[s.Name]; ok {
			merged := out[i]
			merged.NodeSpec = s.NodeSpec.Merge(out[i].NodeSpec)
			merged.Roles = unionRoles(s.Roles, out[i].Roles)
			out[i] = merged
			continue
		}
		byName[s.Name] = len(out)
		out = append(out, s)
	}
	return out
}

func overlayGroups(base, env []model.GroupSpec) []model.GroupSpec {
	byName := make(map[string]int, len(base))
	out := make([]model.GroupSpec, len(base))
	copy(out, base)
	for i, g := range out {
		byName[g.Name] = i
	}
	for _, g := range env {
		if i, ok := byName[g.Name]; ok {
			merged := out[i]
			if g.Count > 0 || g.Extends == "" {
				merged.Count = g.Count
			}
			merged.NodeSpec = g.NodeSpec.Merge(out[i].NodeSpec)
			merged.Roles = unionRoles(g.Roles, out[i].Roles)
			merged.Phases = mergePhases(g.Phases, out[i].Phases)
			if g.NodeFilter != nil {
				merged.NodeFilter = g.NodeFilter
			}
			if g.RemovalSelectionFn != nil {
				merged.RemovalSelectionFn = g.RemovalSelectionFn
			}
			out[i] = merged
			continue
		}
		byName[g.Name] = len(out)
		out = append(out, g)
	}
	return out
}

// ExpandCluster flattens a list of ClusterSpecs into one namespaced
// group list (spec.md §4.1, "cluster expansion"): every group and
// server name is prefixed with its cluster's name so clusters sharing a
// fleet never collide, the cluster name is added as an implicit role on
// every group so node filters can select an entire cluster, and the
// cluster's own NodeSpec/Roles/Phases are merged into every resulting
// group exactly as a group's :extends ancestor is merged — with the
// group's own fields winning on collision (spec.md §8: "phases defined
// at cluster level merge into groups; group-level phases override
// cluster-level on name collision").
func ExpandCluster(clusters []model.ClusterSpec) ([]model.GroupSpec, error) {
	var out []model.GroupSpec
	seen := make(map[string]bool)
	for _, c := range clusters {
		if seen[c.Name] {
			return nil, trace.BadParameter("cluster name %q used more than once", c.Name)
		}
		seen[c.Name] = true

		prefixed := c
		prefixed.Servers = make([]model.ServerSpec, len(c.Servers))
		for i, s := range c.Servers {
			s.Name = c.Name + "-" + s.Name
			prefixed.Servers[i] = s
		}
		prefixed.Groups = make([]model.GroupSpec, len(c.Groups))
		for i, g := range c.Groups {
			if g.Extends != "" {
				g.Extends = c.Name + "-" + g.Extends
			}
			g.Name = c.Name + "-" + g.Name
			g.Roles = append(append([]string{}, g.Roles...), c.Name)
			prefixed.Groups[i] = g
		}

		groups, err := Compose(prefixed)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		for i := range groups {
			groups[i].NodeSpec = groups[i].NodeSpec.Merge(c.NodeSpec)
			groups[i].Roles = unionRoles(groups[i].Roles, c.Roles)
			groups[i].Phases = mergePhases(groups[i].Phases, c.Phases)
		}
		out = append(out, groups...)
	}
	return out, nil
}
