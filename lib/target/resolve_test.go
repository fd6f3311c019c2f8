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

package target

import (
	"testing"

	"github.com/gravitational/grove/lib/constants"
	"github.com/gravitational/grove/lib/model"

	"github.com/stretchr/testify/require"
)

type fakeNode struct {
	id       string
	baseName string
	tags     map[string]string
}

func (n fakeNode) ID() string              { return n.id }
func (n fakeNode) BaseName() string        { return n.baseName }
func (n fakeNode) PrimaryIP() string       { return "10.0.0.1" }
func (n fakeNode) Tags() map[string]string { return n.tags }

func TestResolveMatchesByGroupNameTag(t *testing.T) {
	groups := []model.GroupSpec{{Name: "web"}, {Name: "db"}}
	nodes := []model.Node{
		fakeNode{id: "i-1", tags: map[string]string{constants.GroupNameTag: "web"}},
		fakeNode{id: "i-2", tags: map[string]string{constants.GroupNameTag: "db"}},
	}

	targets, err := Resolve(nodes, groups)
	require.NoError(t, err)
	require.Len(t, targets, 2)

	byID := map[string]model.Target{}
	for _, tgt := range targets {
		byID[tgt.Node.ID()] = tgt
	}
	require.Equal(t, "web", byID["i-1"].Group.Name)
	require.Equal(t, "db", byID["i-2"].Group.Name)
}

func TestResolveFallsBackToBaseNameWhenTagAbsent(t *testing.T) {
	groups := []model.GroupSpec{{Name: "web"}}
	nodes := []model.Node{fakeNode{id: "web-1", baseName: "web"}}

	targets, err := Resolve(nodes, groups)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	require.Equal(t, "web", targets[0].Group.Name)
}

func TestResolveDropsNodesMatchingNoGroup(t *testing.T) {
	groups := []model.GroupSpec{{Name: "web"}}
	nodes := []model.Node{fakeNode{id: "i-1", baseName: "orphan"}}

	targets, err := Resolve(nodes, groups)
	require.NoError(t, err)
	require.Empty(t, targets)
}

func TestResolveMergesGroupNamesForMultiGroupMembership(t *testing.T) {
	groups := []model.GroupSpec{
		{Name: "web", NodeFilter: func(model.Node) bool { return true }},
		{Name: "all", NodeFilter: func(model.Node) bool { return true }},
	}
	nodes := []model.Node{fakeNode{id: "i-1"}}

	targets, err := Resolve(nodes, groups)
	require.NoError(t, err)
	require.Len(t, targets, 2)
	for _, tgt := range targets {
		require.True(t, tgt.HasGroup("web"))
		require.True(t, tgt.HasGroup("all"))
	}
}

func TestResolveRejectsDuplicateGroupNames(t *testing.T) {
	groups := []model.GroupSpec{{Name: "web"}, {Name: "web"}}
	_, err := Resolve(nil, groups)
	require.Error(t, err)
}

func TestNonGroupTargetsBypassFiltering(t *testing.T) {
	group := model.GroupSpec{Name: "retained"}
	nodes := []model.Node{fakeNode{id: "i-1", baseName: "anything"}}

	targets := NonGroupTargets(group, nodes)
	require.Len(t, targets, 1)
	require.Equal(t, "retained", targets[0].Group.Name)
	require.True(t, targets[0].HasGroup("retained"))
}

func TestRoleIndexGroupsByRole(t *testing.T) {
	groups := []model.GroupSpec{
		{Name: "web", Roles: []string{"frontend"}},
		{Name: "api", Roles: []string{"frontend", "backend"}},
	}
	idx := RoleIndex(groups)
	require.ElementsMatch(t, []string{"web", "api"}, idx.GroupsForRole("frontend"))
	require.ElementsMatch(t, []string{"api"}, idx.GroupsForRole("backend"))
}
