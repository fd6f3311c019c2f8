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

import (
	"context"
	"testing"
	"time"

	"github.com/gravitational/grove/lib/action"
	actiontest "github.com/gravitational/grove/lib/action/test"
	computetest "github.com/gravitational/grove/lib/compute/test"
	"github.com/gravitational/grove/lib/model"

	"github.com/stretchr/testify/require"
)

func TestAddInlinePhaseRegistersGensymdNameAndAppendsToPhases(t *testing.T) {
	var opts Options

	name := opts.AddInlinePhase([]model.Action{{Name: "probe", Executor: "test", Command: "probe"}})
	require.NotEmpty(t, name)
	require.Contains(t, opts.Phases, name)
	require.Contains(t, opts.InlineActions, name)
	require.Equal(t, "probe", opts.InlineActions[name][0].Name)

	second := opts.AddInlinePhase([]model.Action{{Name: "probe2", Executor: "test", Command: "probe2"}})
	require.NotEqual(t, name, second)
	require.Len(t, opts.Phases, 2)
}

func TestCheckAndSetDefaultsExpandsNestedGroupCounts(t *testing.T) {
	opts := Options{
		Groups: []model.GroupSpec{{
			Name:     "region",
			Count:    3,
			NodeSpec: model.NodeSpec{Image: "ubuntu-20", Flavor: "m5.large"},
			Nested: []model.GroupSpec{
				{Name: "node", Count: 2},
			},
		}},
		Provider: computetest.New(),
		Registry: action.NewRegistry(nil),
	}

	require.NoError(t, opts.CheckAndSetDefaults())
	require.Len(t, opts.Groups, 1)
	require.Equal(t, "region-node", opts.Groups[0].Name)
	require.Equal(t, 6, opts.Groups[0].Count)
}

func TestCheckAndSetDefaultsDefaultsPhasesWhenEmpty(t *testing.T) {
	opts := Options{
		Groups: []model.GroupSpec{{
			Name:     "web",
			Count:    1,
			NodeSpec: model.NodeSpec{Image: "ubuntu-20", Flavor: "m5.large"},
		}},
		Provider: computetest.New(),
		Registry: action.NewRegistry(nil),
	}

	require.NoError(t, opts.CheckAndSetDefaults())
	require.Equal(t, []string{"configure"}, opts.Phases)
}

func TestAllNodeSetReceivesOnlySettingsPhase(t *testing.T) {
	provider := computetest.New()
	_, err := provider.CreateNodes(context.Background(), "bastion", model.NodeSpec{Image: "ubuntu-20", Flavor: "m5.large"}, 1)
	require.NoError(t, err)

	executor := actiontest.New()
	registry := action.NewRegistry(map[string]action.Executor{"test": executor})

	opts := Options{
		Groups: []model.GroupSpec{{
			Name:     "web",
			Count:    0,
			NodeSpec: model.NodeSpec{Image: "ubuntu-20", Flavor: "m5.large"},
		}},
		AllNodeSpecs: []model.GroupSpec{{
			Name:     "bastion",
			NodeSpec: model.NodeSpec{Image: "ubuntu-20", Flavor: "m5.large"},
			Phases: map[string][]model.Action{
				"settings":  {{Name: "probe", Executor: "test", Command: "probe"}},
				"configure": {{Name: "apply", Executor: "test", Command: "apply"}},
			},
		}},
		Provider:     provider,
		Registry:     registry,
		SkipOSDetect: true,
	}

	runningOp, err := Converge(context.Background(), opts)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := runningOp.Await(ctx)
	require.NoError(t, err)
	require.NoError(t, result.Err)

	require.Len(t, executor.Calls, 1)
	require.Equal(t, "probe", executor.Calls[0].Action.Command)

	nodes, err := provider.Nodes(context.Background(), "bastion")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
}
