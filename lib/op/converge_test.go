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

func TestConvergeCreatesAndLiftsNewTargets(t *testing.T) {
	provider := computetest.New()
	executor := actiontest.New()
	registry := action.NewRegistry(map[string]action.Executor{"test": executor})

	opts := Options{
		Groups: []model.GroupSpec{{
			Name:     "web",
			Count:    2,
			NodeSpec: model.NodeSpec{Image: "ubuntu-20", Flavor: "m5.large"},
			Phases: map[string][]model.Action{
				"bootstrap": {{Name: "install", Executor: "test", Command: "install"}},
			},
		}},
		Provider: provider,
		Registry: registry,
		Phases:   []string{"bootstrap"},
	}

	runningOp, err := Converge(context.Background(), opts)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := runningOp.Await(ctx)
	require.NoError(t, err)
	require.NoError(t, result.Err)
	require.Equal(t, StatusSucceeded, runningOp.Status())

	nodes, err := provider.Nodes(context.Background(), "web")
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	require.Len(t, executor.Calls, 2)
}

func TestConvergeRemovesExcessTargets(t *testing.T) {
	provider := computetest.New()
	_, err := provider.CreateNodes(context.Background(), "web", model.NodeSpec{Image: "ubuntu-20", Flavor: "m5.large"}, 3)
	require.NoError(t, err)

	registry := action.NewRegistry(nil)
	opts := Options{
		Groups:   []model.GroupSpec{{Name: "web", Count: 1, NodeSpec: model.NodeSpec{Image: "ubuntu-20", Flavor: "m5.large"}}},
		Provider: provider,
		Registry: registry,
	}

	runningOp, err := Converge(context.Background(), opts)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = runningOp.Await(ctx)
	require.NoError(t, err)

	nodes, err := provider.Nodes(context.Background(), "web")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
}

func TestConvergeRunsCreateGroupPhaseOnFirstMember(t *testing.T) {
	provider := computetest.New()
	executor := actiontest.New()
	registry := action.NewRegistry(map[string]action.Executor{"test": executor})

	opts := Options{
		Groups: []model.GroupSpec{{
			Name:             "web",
			Count:            2,
			NodeSpec:         model.NodeSpec{Image: "ubuntu-20", Flavor: "m5.large"},
			CreateGroupPhase: []model.Action{{Name: "provision-lb", Executor: "test", Command: "provision-lb"}},
		}},
		Provider: provider,
		Registry: registry,
	}

	runningOp, err := Converge(context.Background(), opts)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := runningOp.Await(ctx)
	require.NoError(t, err)
	require.NoError(t, result.Err)

	require.Len(t, executor.Calls, 1)
	require.Equal(t, "provision-lb", executor.Calls[0].Action.Command)
	require.Equal(t, "group/web", executor.Calls[0].Target.Node.ID())
}

func TestConvergeRunsDestroyGroupPhaseWhenCountDropsToZero(t *testing.T) {
	provider := computetest.New()
	_, err := provider.CreateNodes(context.Background(), "web", model.NodeSpec{Image: "ubuntu-20", Flavor: "m5.large"}, 2)
	require.NoError(t, err)

	executor := actiontest.New()
	registry := action.NewRegistry(map[string]action.Executor{"test": executor})

	opts := Options{
		Groups: []model.GroupSpec{{
			Name:              "web",
			Count:             0,
			NodeSpec:          model.NodeSpec{Image: "ubuntu-20", Flavor: "m5.large"},
			DestroyGroupPhase: []model.Action{{Name: "release-lb", Executor: "test", Command: "release-lb"}},
		}},
		Provider: provider,
		Registry: registry,
	}

	runningOp, err := Converge(context.Background(), opts)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := runningOp.Await(ctx)
	require.NoError(t, err)
	require.NoError(t, result.Err)

	require.Len(t, executor.Calls, 1)
	require.Equal(t, "release-lb", executor.Calls[0].Action.Command)
	require.Equal(t, "group/web", executor.Calls[0].Target.Node.ID())

	nodes, err := provider.Nodes(context.Background(), "web")
	require.NoError(t, err)
	require.Empty(t, nodes)
}
