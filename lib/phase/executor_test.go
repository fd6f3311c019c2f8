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

package phase

import (
	"context"
	"testing"

	actiontest "github.com/gravitational/grove/lib/action/test"
	"github.com/gravitational/grove/lib/action"
	"github.com/gravitational/grove/lib/model"
	"github.com/gravitational/grove/lib/session"

	"github.com/gravitational/trace"
	check "gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type ExecutorSuite struct{}

var _ = check.Suite(&ExecutorSuite{})

type fakeNode struct{ id string }

func (n fakeNode) ID() string              { return n.id }
func (n fakeNode) BaseName() string        { return n.id }
func (n fakeNode) PrimaryIP() string       { return "10.0.0.1" }
func (n fakeNode) Tags() map[string]string { return nil }

func target(id string, phases map[string][]model.Action) model.Target {
	return model.Target{
		Node:  fakeNode{id: id},
		Group: model.GroupSpec{Name: "web", Phases: phases},
	}
}

func (s *ExecutorSuite) TestLiftPhaseRunsActionsInOrder(c *check.C) {
	ex := actiontest.New()
	registry := action.NewRegistry(map[string]action.Executor{"test": ex})
	executor := NewExecutor(registry, 2)
	sess := session.New("op-1", nil)

	targets := []model.Target{
		target("web-1", map[string][]model.Action{
			"bootstrap": {{Name: "install", Executor: "test", Command: "install"}},
		}),
	}

	results, err := executor.LiftPhase(context.Background(), sess, targets, "bootstrap")
	c.Assert(err, check.IsNil)
	c.Assert(results, check.HasLen, 1)
	c.Assert(results[0].State, check.Equals, model.PhaseStateSucceeded)
	c.Assert(ex.Calls, check.HasLen, 1)
}

func (s *ExecutorSuite) TestLiftPhaseSkipsGroupsWithoutThePhase(c *check.C) {
	ex := actiontest.New()
	registry := action.NewRegistry(map[string]action.Executor{"test": ex})
	executor := NewExecutor(registry, 2)
	sess := session.New("op-1", nil)

	targets := []model.Target{target("web-1", nil)}

	results, err := executor.LiftPhase(context.Background(), sess, targets, "bootstrap")
	c.Assert(err, check.IsNil)
	c.Assert(results[0].State, check.Equals, model.PhaseStateSkipped)
}

func (s *ExecutorSuite) TestLiftPhaseIsolatesDomainErrorsPerTarget(c *check.C) {
	ex := actiontest.New()
	ex.FailOn["fail"] = trace.Errorf("boom")
	registry := action.NewRegistry(map[string]action.Executor{"test": ex})
	executor := NewExecutor(registry, 2)
	sess := session.New("op-1", nil)

	targets := []model.Target{
		target("web-1", map[string][]model.Action{
			"bootstrap": {{Name: "bad", Executor: "test", Command: "fail"}},
		}),
		target("web-2", map[string][]model.Action{
			"bootstrap": {{Name: "good", Executor: "test", Command: "ok"}},
		}),
	}

	results, err := executor.LiftPhase(context.Background(), sess, targets, "bootstrap")
	c.Assert(err, check.NotNil)
	c.Assert(results, check.HasLen, 2)

	byID := map[string]model.PhaseResult{}
	for _, r := range results {
		byID[r.Target.Node.ID()] = r
	}
	c.Assert(byID["web-1"].State, check.Equals, model.PhaseStateDomainError)
	c.Assert(byID["web-2"].State, check.Equals, model.PhaseStateSucceeded)
}

func (s *ExecutorSuite) TestLiftOpSkipsLaterPhasesAfterFailure(c *check.C) {
	ex := actiontest.New()
	ex.FailOn["fail"] = trace.Errorf("boom")
	registry := action.NewRegistry(map[string]action.Executor{"test": ex})
	executor := NewExecutor(registry, 2)
	sess := session.New("op-1", nil)

	phases := map[string][]model.Action{
		"bootstrap": {{Name: "bad", Executor: "test", Command: "fail"}},
		"configure": {{Name: "good", Executor: "test", Command: "ok"}},
	}
	targets := []model.Target{target("web-1", phases)}

	results, err := executor.LiftOp(context.Background(), sess, targets, []string{"bootstrap", "configure"})
	c.Assert(err, check.NotNil)
	c.Assert(results, check.HasLen, 1)
	c.Assert(results[0].Phase.Name, check.Equals, "bootstrap")
	c.Assert(results[0].State, check.Equals, model.PhaseStateDomainError)
}
