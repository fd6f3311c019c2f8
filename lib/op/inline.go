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

package op

import "github.com/gravitational/grove/lib/model"

// withInlinePhases returns a copy of targets whose GroupSpec carries
// every entry of inline merged into its Phases map, so a gensym'd name
// registered via Options.AddInlinePhase resolves the same way a phase
// named in a GroupSpec's own YAML would (lib/phase.Executor looks
// phases up exclusively through GroupSpec.PhaseActions). Groups are
// keyed by name so a group shared by many targets is only copied once.
func withInlinePhases(targets []model.Target, inline map[string][]model.Action) []model.Target {
	if len(inline) == 0 {
		return targets
	}

	patched := make(map[string]model.GroupSpec, len(targets))
	out := make([]model.Target, len(targets))
	for i, t := range targets {
		g, ok := patched[t.Group.Name]
		if !ok {
			g = t.Group
			phases := make(map[string][]model.Action, len(g.Phases)+len(inline))
			for name, actions := range g.Phases {
				phases[name] = actions
			}
			for name, actions := range inline {
				phases[name] = actions
			}
			g.Phases = phases
			patched[t.Group.Name] = g
		}
		t.Group = g
		out[i] = t
	}
	return out
}
