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

// Package test provides an in-memory compute.Provider for exercising
// the adjuster and phase executor without a real cloud account,
// grounded on the teacher's lib/fsm/testhelpers.go in-memory fixtures.
package test

import (
	"context"
	"fmt"
	"sync"

	"github.com/gravitational/grove/lib/constants"
	"github.com/gravitational/grove/lib/model"

	"github.com/gravitational/trace"
)

// Provider is an in-memory compute.Provider. The zero value is ready to
// use.
type Provider struct {
	mu      sync.Mutex
	nodes   map[string]*node
	counter int
	// FailCreate, if set, is returned from CreateNodes instead of
	// creating nodes, for exercising the adjuster's partial-failure path
	FailCreate error
	// FailDestroy, if set, is returned from DestroyNodes instead of
	// destroying nodes
	FailDestroy error
}

// New returns an empty in-memory provider.
func New() *Provider {
	return &Provider{nodes: make(map[string]*node)}
}

type node struct {
	id       string
	baseName string
	ip       string
	tags     map[string]string
}

func (n *node) ID() string                  { return n.id }
func (n *node) BaseName() string            { return n.baseName }
func (n *node) PrimaryIP() string           { return n.ip }
func (n *node) Tags() map[string]string     { return n.tags }

// Nodes lists the nodes tagged for groupName.
func (p *Provider) Nodes(ctx context.Context, groupName string) ([]model.Node, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []model.Node
	for _, n := range p.nodes {
		if n.tags[constants.GroupNameTag] == groupName {
			out = append(out, n)
		}
	}
	return out, nil
}

// CreateNodes creates count in-memory nodes tagged for groupName.
func (p *Provider) CreateNodes(ctx context.Context, groupName string, spec model.NodeSpec, count int) ([]model.Node, error) {
	if p.FailCreate != nil {
		return nil, trace.Wrap(p.FailCreate)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.nodes == nil {
		p.nodes = make(map[string]*node)
	}

	created := make([]model.Node, 0, count)
	for i := 0; i < count; i++ {
		p.counter++
		id := fmt.Sprintf("%s-%d", groupName, p.counter)
		n := &node{
			id:       id,
			baseName: groupName,
			ip:       fmt.Sprintf("10.0.0.%d", p.counter%254+1),
			tags: map[string]string{
				constants.GroupNameTag: groupName,
				"image":                spec.Image,
				"flavor":               spec.Flavor,
			},
		}
		p.nodes[id] = n
		created = append(created, n)
	}
	return created, nil
}

// DestroyNodes removes the given nodes from the in-memory store.
func (p *Provider) DestroyNodes(ctx context.Context, nodes []model.Node) ([]model.Node, error) {
	if p.FailDestroy != nil {
		return nil, trace.Wrap(p.FailDestroy)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	destroyed := make([]model.Node, 0, len(nodes))
	for _, n := range nodes {
		if _, ok := p.nodes[n.ID()]; !ok {
			return destroyed, trace.NotFound("node %q not found", n.ID())
		}
		delete(p.nodes, n.ID())
		destroyed = append(destroyed, n)
	}
	return destroyed, nil
}
