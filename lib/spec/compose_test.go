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
	"testing"

	"github.com/gravitational/grove/lib/model"

	"github.com/stretchr/testify/require"
)

func TestComposeMergesExtendedServerSpec(t *testing.T) {
	cluster := model.ClusterSpec{
		Name: "demo",
		Servers: []model.ServerSpec{
			{Name: "base", NodeSpec: model.NodeSpec{Image: "ubuntu-20", Flavor: "m5.large"}, Roles: []string{"fleet"}},
		},
		Groups: []model.GroupSpec{
			{Name: "web", Extends: "base", Count: 3, Roles: []string{"http"}},
		},
	}

	groups, err := Compose(cluster)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Equal(t, "ubuntu-20", groups[0].NodeSpec.Image)
	require.Equal(t, "m5.large", groups[0].NodeSpec.Flavor)
	require.ElementsMatch(t, []string{"fleet", "http"}, groups[0].Roles)
	require.Empty(t, groups[0].Extends)
}

func TestComposeGroupExtendsGroupMergesPhases(t *testing.T) {
	cluster := model.ClusterSpec{
		Name: "demo",
		Servers: []model.ServerSpec{
			{Name: "base", NodeSpec: model.NodeSpec{Image: "ubuntu-20", Flavor: "m5.large"}},
		},
		Groups: []model.GroupSpec{
			{
				Name:    "web-base",
				Extends: "base",
				Count:   1,
				Phases: map[string][]model.Action{
					"bootstrap": {{Name: "install", Executor: "ssh", Command: "apt-get install -y nginx"}},
				},
			},
			{
				Name:    "web-canary",
				Extends: "web-base",
				Count:   1,
				Phases: map[string][]model.Action{
					"configure": {{Name: "flag", Executor: "ssh", Command: "touch /etc/canary"}},
				},
			},
		},
	}

	groups, err := Compose(cluster)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	canary := groups[1]
	require.Equal(t, "web-canary", canary.Name)
	require.Contains(t, canary.Phases, "bootstrap")
	require.Contains(t, canary.Phases, "configure")
	require.Equal(t, "ubuntu-20", canary.NodeSpec.Image)
}

func TestComposeRejectsNegativeCount(t *testing.T) {
	cluster := model.ClusterSpec{
		Name: "demo",
		Groups: []model.GroupSpec{
			{Name: "web", Count: -1, NodeSpec: model.NodeSpec{Image: "ubuntu-20", Flavor: "m5.large"}},
		},
	}
	_, err := Compose(cluster)
	require.Error(t, err)
}

func TestComposeRejectsReservedPhaseName(t *testing.T) {
	cluster := model.ClusterSpec{
		Name: "demo",
		Groups: []model.GroupSpec{
			{
				Name:     "web",
				Count:    1,
				NodeSpec: model.NodeSpec{Image: "ubuntu-20", Flavor: "m5.large"},
				Phases: map[string][]model.Action{
					model.ReservedPhaseDestroy: {{Name: "x", Executor: "ssh", Command: "true"}},
				},
			},
		},
	}
	_, err := Compose(cluster)
	require.Error(t, err)
}

func TestComposeGroupExtendsGroupInheritsReservedPhases(t *testing.T) {
	cluster := model.ClusterSpec{
		Name: "demo",
		Servers: []model.ServerSpec{
			{Name: "base", NodeSpec: model.NodeSpec{Image: "ubuntu-20", Flavor: "m5.large"}},
		},
		Groups: []model.GroupSpec{
			{
				Name:             "web-base",
				Extends:          "base",
				Count:            1,
				CreateGroupPhase: []model.Action{{Name: "provision-lb", Executor: "ssh", Command: "provision-lb"}},
				DestroyPhase:     []model.Action{{Name: "drain", Executor: "ssh", Command: "drain"}},
			},
			{
				Name:              "web-canary",
				Extends:           "web-base",
				Count:             1,
				DestroyGroupPhase: []model.Action{{Name: "release-lb", Executor: "ssh", Command: "release-lb"}},
			},
		},
	}

	groups, err := Compose(cluster)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	canary := groups[1]
	require.Equal(t, "web-canary", canary.Name)
	require.Equal(t, "provision-lb", canary.CreateGroupPhase[0].Name)
	require.Equal(t, "drain", canary.DestroyPhase[0].Name)
	require.Equal(t, "release-lb", canary.DestroyGroupPhase[0].Name)
}

func TestComposeDetectsExtendsCycle(t *testing.T) {
	cluster := model.ClusterSpec{
		Name: "demo",
		Groups: []model.GroupSpec{
			{Name: "a", Extends: "b", Count: 1},
			{Name: "b", Extends: "a", Count: 1},
		},
	}
	_, err := Compose(cluster)
	require.Error(t, err)
}

func TestExpandClusterPrefixesNamesAndAddsClusterRole(t *testing.T) {
	clusters := []model.ClusterSpec{
		{
			Name: "east",
			Servers: []model.ServerSpec{
				{Name: "base", NodeSpec: model.NodeSpec{Image: "ubuntu-20", Flavor: "m5.large"}},
			},
			Groups: []model.GroupSpec{
				{Name: "web", Extends: "base", Count: 2},
			},
		},
		{
			Name: "west",
			Servers: []model.ServerSpec{
				{Name: "base", NodeSpec: model.NodeSpec{Image: "ubuntu-20", Flavor: "m5.large"}},
			},
			Groups: []model.GroupSpec{
				{Name: "web", Extends: "base", Count: 2},
			},
		},
	}

	groups, err := ExpandCluster(clusters)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	require.Equal(t, "east-web", groups[0].Name)
	require.Equal(t, "west-web", groups[1].Name)
	require.Contains(t, groups[0].Roles, "east")
	require.Contains(t, groups[1].Roles, "west")
}

func TestExpandClusterMergesClusterLevelPhasesAndNodeSpec(t *testing.T) {
	clusters := []model.ClusterSpec{
		{
			Name:     "east",
			NodeSpec: model.NodeSpec{Image: "ubuntu-20", Flavor: "m5.large"},
			Roles:    []string{"fleet"},
			Phases: map[string][]model.Action{
				"bootstrap": {{Name: "cluster-install", Executor: "ssh", Command: "base-install"}},
				"configure": {{Name: "cluster-configure", Executor: "ssh", Command: "base-configure"}},
			},
			Groups: []model.GroupSpec{
				{
					Name:  "web",
					Count: 2,
					Roles: []string{"http"},
					Phases: map[string][]model.Action{
						"configure": {{Name: "group-configure", Executor: "ssh", Command: "web-configure"}},
					},
				},
			},
		},
	}

	groups, err := ExpandCluster(clusters)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	web := groups[0]
	require.Equal(t, "ubuntu-20", web.NodeSpec.Image)
	require.ElementsMatch(t, []string{"fleet", "http", "east"}, web.Roles)
	require.Contains(t, web.Phases, "bootstrap")
	require.Equal(t, "cluster-install", web.Phases["bootstrap"][0].Name)

	// group-level phase wins on name collision with the cluster-level phase
	require.Equal(t, "group-configure", web.Phases["configure"][0].Name)
}

func TestExpandNestedCountsMultipliesByParentCount(t *testing.T) {
	groups := []model.GroupSpec{
		{
			Name:     "region",
			Count:    3,
			NodeSpec: model.NodeSpec{Image: "ubuntu-20", Flavor: "m5.large"},
			Roles:    []string{"region"},
			Nested: []model.GroupSpec{
				{
					Name:  "node",
					Count: 2,
					Roles: []string{"node"},
					Phases: map[string][]model.Action{
						"bootstrap": {{Name: "install", Executor: "ssh", Command: "install"}},
					},
				},
			},
		},
		{
			Name:     "standalone",
			Count:    1,
			NodeSpec: model.NodeSpec{Image: "ubuntu-20", Flavor: "m5.large"},
		},
	}

	expanded, err := ExpandNestedCounts(groups)
	require.NoError(t, err)
	require.Len(t, expanded, 2)

	var region, standalone *model.GroupSpec
	for i := range expanded {
		switch expanded[i].Name {
		case "region-node":
			region = &expanded[i]
		case "standalone":
			standalone = &expanded[i]
		}
	}
	require.NotNil(t, region)
	require.NotNil(t, standalone)
	require.Equal(t, 6, region.Count)
	require.Equal(t, "ubuntu-20", region.NodeSpec.Image)
	require.ElementsMatch(t, []string{"node", "region"}, region.Roles)
	require.Contains(t, region.Phases, "bootstrap")
	require.Empty(t, region.Nested)
	require.Equal(t, 1, standalone.Count)
}

func TestOverlayMergesGroupCountAndPhases(t *testing.T) {
	base := model.ClusterSpec{
		Name: "demo",
		Groups: []model.GroupSpec{
			{
				Name:     "web",
				Count:    2,
				NodeSpec: model.NodeSpec{Image: "ubuntu-20", Flavor: "m5.large"},
				Phases: map[string][]model.Action{
					"bootstrap": {{Name: "install", Executor: "ssh", Command: "apt-get install -y nginx"}},
				},
			},
		},
	}
	env := model.ClusterSpec{
		Name:        "demo",
		Environment: "production",
		Groups: []model.GroupSpec{
			{Name: "web", Count: 10},
		},
	}

	merged, err := Overlay(base, env)
	require.NoError(t, err)
	require.Equal(t, "production", merged.Environment)
	require.Len(t, merged.Groups, 1)
	require.Equal(t, 10, merged.Groups[0].Count)
	require.Contains(t, merged.Groups[0].Phases, "bootstrap")
}
