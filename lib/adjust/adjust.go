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

// Package adjust implements the node-count adjuster (spec.md §4.4,
// component C4): driving a compute.Provider to create and destroy nodes
// for every group's delta concurrently, and aggregating the per-group
// outcomes and errors. The fan-out/fan-in shape is grounded on the
// teacher's lib/utils.CollectErrors, used the same way by
// lib/autoscale/aws.Autoscaler to drive multiple autoscaling groups at
// once.
package adjust

import (
	"context"

	"github.com/gravitational/grove/lib/compute"
	"github.com/gravitational/grove/lib/log"
	"github.com/gravitational/grove/lib/model"
	"github.com/gravitational/grove/lib/utils"

	"github.com/gravitational/trace"
)

// Result is the outcome of adjusting one group's node count.
type Result struct {
	// Group is the group this result applies to
	Group model.GroupSpec
	// Added holds the nodes successfully created
	Added []model.Node
	// Removed holds the nodes successfully destroyed
	Removed []model.Node
	// Err is non-nil if creation or destruction failed; Added/Removed
	// still reflect whatever partial progress was made
	Err error
}

// Run drives provider to realize every delta concurrently, one
// goroutine per group, and returns one Result per delta in the same
// order. The returned aggregate error is non-nil if any group failed;
// callers that need per-group detail should inspect the Results instead
// of the aggregate.
func Run(ctx context.Context, provider compute.Provider, deltas []model.GroupDelta, logger log.Logger) ([]Result, error) {
	if logger == nil {
		logger = log.NewForComponent("adjust")
	}

	results := make([]Result, len(deltas))
	err := utils.CollectAll(ctx, len(deltas), func(i int) error {
		results[i] = adjustGroup(ctx, provider, deltas[i], logger)
		return results[i].Err
	})
	return results, trace.Wrap(err)
}

func adjustGroup(ctx context.Context, provider compute.Provider, d model.GroupDelta, logger log.Logger) Result {
	result := Result{Group: d.Group}
	groupLogger := logger.WithField("group", d.Group.Name)

	if d.AddCount > 0 {
		groupLogger.Infof("Creating %d node(s).", d.AddCount)
		added, err := provider.CreateNodes(ctx, d.Group.Name, d.AddSpec, d.AddCount)
		result.Added = added
		if err != nil {
			result.Err = trace.Wrap(err, "group %q: create %d node(s)", d.Group.Name, d.AddCount)
			return result
		}
	}

	if len(d.Remove) > 0 {
		nodes := make([]model.Node, len(d.Remove))
		for i, t := range d.Remove {
			nodes[i] = t.Node
		}
		groupLogger.Infof("Destroying %d node(s).", len(nodes))
		destroyed, err := provider.DestroyNodes(ctx, nodes)
		result.Removed = destroyed
		if err != nil {
			result.Err = trace.Wrap(err, "group %q: destroy %d node(s)", d.Group.Name, len(nodes))
			return result
		}
	}

	return result
}
