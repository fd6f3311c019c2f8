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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGroupSpecCheckAndSetDefaultsRejectsReservedPhaseName(t *testing.T) {
	g := GroupSpec{
		Name:  "web",
		Count: 1,
		Phases: map[string][]Action{
			ReservedPhaseDestroy: {{Name: "x", Executor: "ssh", Command: "true"}},
		},
	}
	require.Error(t, g.CheckAndSetDefaults())
}

func TestGroupSpecPhaseActionsPrefersReservedFieldsOverPhasesMap(t *testing.T) {
	g := GroupSpec{
		Name:             "web",
		CreateGroupPhase: []Action{{Name: "provision-lb"}},
		DestroyPhase:     []Action{{Name: "drain"}},
		Phases: map[string][]Action{
			"bootstrap": {{Name: "install"}},
		},
	}

	actions, ok := g.PhaseActions(ReservedPhaseCreateGroup)
	require.True(t, ok)
	require.Equal(t, "provision-lb", actions[0].Name)

	actions, ok = g.PhaseActions(ReservedPhaseDestroy)
	require.True(t, ok)
	require.Equal(t, "drain", actions[0].Name)

	_, ok = g.PhaseActions(ReservedPhaseDestroyGroup)
	require.False(t, ok)

	actions, ok = g.PhaseActions("bootstrap")
	require.True(t, ok)
	require.Equal(t, "install", actions[0].Name)
}

func TestGroupTargetUsesSyntheticNonNilNode(t *testing.T) {
	g := GroupSpec{Name: "web"}
	target := GroupTarget(g)

	require.Equal(t, "group/web", target.Node.ID())
	require.Equal(t, "web", target.Node.BaseName())
	require.Empty(t, target.Node.PrimaryIP())
	require.Nil(t, target.Node.Tags())
	require.True(t, target.HasGroup("web"))
}
