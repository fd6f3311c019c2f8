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

// Package compute declares the external node capability surface
// (spec.md §6): the engine's adjuster (lib/adjust) drives concrete
// fleets exclusively through the Provider interface, never importing a
// concrete implementation. lib/compute/test and lib/compute/aws are the
// two implementations shipped with this repo; neither is imported by
// the engine packages themselves, only by tool/grovectl.
package compute

import (
	"context"

	"github.com/gravitational/grove/lib/model"
)

// Provider creates, lists and destroys the nodes of a single group.
// Implementations are responsible for attaching constants.GroupNameTag
// to nodes they create.
type Provider interface {
	// Nodes lists the live nodes currently tagged for groupName
	Nodes(ctx context.Context, groupName string) ([]model.Node, error)
	// CreateNodes provisions count new nodes for groupName from spec,
	// returning the nodes actually created. A partial failure returns
	// both the nodes created before the error and the error itself.
	CreateNodes(ctx context.Context, groupName string, spec model.NodeSpec, count int) ([]model.Node, error)
	// DestroyNodes tears down the given nodes. A partial failure returns
	// the subset of nodes confirmed destroyed and the error.
	DestroyNodes(ctx context.Context, nodes []model.Node) ([]model.Node, error)
}
