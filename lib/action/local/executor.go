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

// Package local implements an action.Executor that runs commands on the
// machine grovectl itself is running on, for bootstrap actions that
// configure the controller rather than a fleet member (e.g. generating
// local credentials before an SSH action can use them).
package local

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/gravitational/grove/lib/model"

	"github.com/gravitational/trace"
)

// Executor runs model.Action.Command as a program on the local machine,
// directly rather than through a shell.
type Executor struct{}

// New returns a local command executor.
func New() *Executor {
	return &Executor{}
}

// Execute runs action.Command with action.Args as a local subprocess,
// honoring ctx cancellation.
func (e *Executor) Execute(ctx context.Context, target model.Target, action model.Action) (string, error) {
	cmd := exec.CommandContext(ctx, action.Command, action.Args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return out.String(), trace.Wrap(err, "local action %q", action.Name)
	}
	return out.String(), nil
}
