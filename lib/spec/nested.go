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

// ExpandNestedCounts replaces every group that declares Nested entries
// with one flattened group per entry, multiplying the nested spec's
// Count by its parent's (spec.md §4.1, "expand-group-spec-with-counts"):
// a "region" group with Count 3 and a Nested entry named "node" with
// Count 2 expands into a single group "region-node" with Count 6. The
// nested entry's NodeSpec/Roles/Phases merge against the parent's the
// same way a group's :extends ancestor merges, with the nested entry
// winning on collision. Groups with no Nested entries pass through
// unchanged. op.Options.CheckAndSetDefaults calls this on the group
// list lib/spec.Compose has already produced, so the operation driver
// never sees a template group that was only ever a count multiplier.
func ExpandNestedCounts(groups []model.GroupSpec) ([]model.GroupSpec, error) {
	out := make([]model.GroupSpec, 0, len(groups))
	for _, g := range groups {
		if len(g.Nested) == 0 {
			out = append(out, g)
			continue
		}
		for _, n := range g.Nested {
			merged := n
			merged.Name = g.Name + "-" + n.Name
			merged.Count = g.Count * n.Count
			if merged.Extends == "" {
				merged.Extends = g.Extends
			}
			merged.NodeSpec = n.NodeSpec.Merge(g.NodeSpec)
			merged.Roles = unionRoles(n.Roles, g.Roles)
			merged.Phases = mergePhases(n.Phases, g.Phases)
			merged.Nested = nil
			if err := merged.CheckAndSetDefaults(); err != nil {
				return nil, trace.Wrap(err, "group %q: expanding nested spec %q", g.Name, n.Name)
			}
			out = append(out, merged)
		}
	}
	return out, nil
}
