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

// Package model defines the data types shared by every engine package:
// the spec hierarchy (NodeSpec/ServerSpec/GroupSpec/ClusterSpec), the
// resolved Target, the per-group Delta, and the node capability surface
// a compute provider must satisfy. It carries no behavior beyond small
// accessor methods, mirroring the role lib/storage plays for
// lib/fsm in the teacher repo: the rest of the engine imports model,
// model imports nothing from the engine.
package model

import "github.com/gravitational/trace"

// Node is the capability surface the engine requires from a live fleet
// member, regardless of which compute.Provider created it (spec.md §6).
type Node interface {
	// ID is the provider-assigned identifier, stable for the node's lifetime
	ID() string
	// BaseName is the group-relative name the node was created under,
	// e.g. "web" for a node named "web-3"
	BaseName() string
	// PrimaryIP is the address actions should connect to
	PrimaryIP() string
	// Tags returns the provider-level tags attached to the node,
	// including the reserved GroupNameTag
	Tags() map[string]string
}

// NodeSpec is the template a compute.Provider uses to create new fleet
// members for a group: image/flavor/network/location plus provider-
// specific parameters, carried opaquely by Params (spec.md §3).
type NodeSpec struct {
	// Image identifies the base image or template for new nodes
	Image string `yaml:"image"`
	// Flavor identifies the instance size/class
	Flavor string `yaml:"flavor"`
	// Network identifies the network or subnet new nodes join
	Network string `yaml:"network,omitempty"`
	// Location identifies the placement (region/zone/datacenter)
	Location string `yaml:"location,omitempty"`
	// Params carries provider-specific parameters not modeled above
	Params map[string]string `yaml:"params,omitempty"`
}

// CheckAndSetDefaults validates the node spec, following the teacher's
// Config.CheckAndSetDefaults convention (lib/fsm.Config and friends).
func (n *NodeSpec) CheckAndSetDefaults() error {
	if n.Image == "" {
		return trace.BadParameter("node spec: image is required")
	}
	if n.Flavor == "" {
		return trace.BadParameter("node spec: flavor is required")
	}
	return nil
}

// Merge returns a copy of n with any zero-valued field replaced by the
// corresponding field of base. Used by GroupSpec inheritance (spec.md §4.1):
// a child group's node-spec overrides only the fields it sets.
func (n NodeSpec) Merge(base NodeSpec) NodeSpec {
	out := n
	if out.Image == "" {
		out.Image = base.Image
	}
	if out.Flavor == "" {
		out.Flavor = base.Flavor
	}
	if out.Network == "" {
		out.Network = base.Network
	}
	if out.Location == "" {
		out.Location = base.Location
	}
	if len(base.Params) > 0 {
		merged := make(map[string]string, len(base.Params)+len(out.Params))
		for k, v := range base.Params {
			merged[k] = v
		}
		for k, v := range out.Params {
			merged[k] = v
		}
		out.Params = merged
	}
	return out
}
