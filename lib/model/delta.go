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

// GroupDelta is the reconciliation plan for a single group: how many
// members to add (with the spec to create them from) and which existing
// members to remove (spec.md §4.3, component C3).
type GroupDelta struct {
	// Group is the group this delta applies to
	Group GroupSpec
	// AddCount is the number of new members to create; zero if the group
	// is at or above its desired count
	AddCount int
	// AddSpec is the node spec new members are created from, equal to
	// Group.NodeSpec merged with its extended server spec
	AddSpec NodeSpec
	// Remove lists the existing targets selected for teardown
	Remove []Target
	// CreateGroup is true the first time a group with Count > 0 has no
	// live members at all, signaling the operation driver to run the
	// group-scoped create-group phase before the adjuster adds members
	// (spec.md §4.3)
	CreateGroup bool
	// RemoveGroup is true when the group's desired count dropped to zero
	// and its last member is being removed, signaling the operation
	// driver to run the group-scoped destroy-group phase after the
	// adjuster has removed every member
	RemoveGroup bool
}

// IsNoop reports whether the delta requires no adjustment at all.
func (d GroupDelta) IsNoop() bool {
	return d.AddCount == 0 && len(d.Remove) == 0
}
