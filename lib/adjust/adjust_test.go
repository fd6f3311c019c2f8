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

package adjust

import (
	"context"
	"testing"

	computetest "github.com/gravitational/grove/lib/compute/test"
	"github.com/gravitational/grove/lib/model"

	"github.com/gravitational/trace"
	"github.com/stretchr/testify/require"
)

func TestRunCreatesAndDestroysConcurrently(t *testing.T) {
	provider := computetest.New()
	existing, err := provider.CreateNodes(context.Background(), "cache", model.NodeSpec{Image: "ubuntu-20", Flavor: "m5.large"}, 1)
	require.NoError(t, err)

	deltas := []model.GroupDelta{
		{Group: model.GroupSpec{Name: "web"}, AddCount: 2, AddSpec: model.NodeSpec{Image: "ubuntu-20", Flavor: "m5.large"}},
		{Group: model.GroupSpec{Name: "cache"}, Remove: []model.Target{{Node: existing[0]}}},
	}

	results, err := Run(context.Background(), provider, deltas, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Len(t, results[0].Added, 2)
	require.Len(t, results[1].Removed, 1)

	remaining, err := provider.Nodes(context.Background(), "cache")
	require.NoError(t, err)
	require.Empty(t, remaining)
}

func TestRunAggregatesPartialFailures(t *testing.T) {
	provider := computetest.New()
	provider.FailCreate = trace.Errorf("boom")

	deltas := []model.GroupDelta{
		{Group: model.GroupSpec{Name: "web"}, AddCount: 1},
	}

	_, err := Run(context.Background(), provider, deltas, nil)
	require.Error(t, err)
}
