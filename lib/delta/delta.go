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

// Package delta computes the reconciliation plan for every group
// (spec.md §4.3, component C3): comparing each group's desired Count
// against the targets the resolver found for it, and deciding what to
// add and what to remove. Grounded on the teacher's autoscaler
// (lib/autoscale/aws/autoscaler.go), which runs the same
// desired-vs-actual comparison per autoscaling group.
package delta

import (
	"github.com/gravitational/grove/lib/model"

	"github.com/gravitational/trace"
)

// Compute returns one GroupDelta per group, in the order groups are
// given. targets is the full resolved target list across all groups;
// Compute partitions it by group membership internally.
func Compute(groups []model.GroupSpec, targets []model.Target) ([]model.GroupDelta, error) {
	byGroup := make(map[string][]model.Target, len(groups))
	for _, t := range targets {
		byGroup[t.Group.Name] = append(byGroup[t.Group.Name], t)
	}

	out := make([]model.GroupDelta, 0, len(groups))
	for _, g := range groups {
		current := byGroup[g.Name]
		delta, err := computeGroup(g, current)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		out = append(out, delta)
	}
	return out, nil
}

func computeGroup(g model.GroupSpec, current []model.Target) (model.GroupDelta, error) {
	delta := model.GroupDelta{Group: g, AddSpec: g.NodeSpec}

	switch {
	case len(current) < g.Count:
		delta.AddCount = g.Count - len(current)
		delta.CreateGroup = len(current) == 0 && g.Count > 0
	case len(current) > g.Count:
		excess := len(current) - g.Count
		selector := g.RemovalSelectionFn
		if selector == nil {
			selector = TakeFirst
		}
		delta.Remove = selector(excess, current)
		if len(delta.Remove) != excess {
			return model.GroupDelta{}, trace.BadParameter(
				"group %q: removal selector returned %d targets, expected %d", g.Name, len(delta.Remove), excess)
		}
		delta.RemoveGroup = g.Count == 0
	}
	return delta, nil
}
