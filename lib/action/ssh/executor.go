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

// Package ssh implements an action.Executor that dispatches actions over
// SSH, the default remote transport for fleet members. The dial/retry
// shape is grounded on the teacher's lib/rpc.RemoteRunner (an agent-side
// command runner reached over a long-lived connection); here the
// connection is a real golang.org/x/crypto/ssh client dialed per
// action, retried through lib/utils.RetryTransient the way
// lib/autoscale/aws retries transient AWS API errors.
package ssh

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gravitational/grove/lib/defaults"
	"github.com/gravitational/grove/lib/model"
	"github.com/gravitational/grove/lib/utils"

	"github.com/gravitational/trace"
	"golang.org/x/crypto/ssh"
)

// Config configures the SSH executor.
type Config struct {
	// User is the remote login user for every target
	User string
	// Signers authenticates the client via public key
	Signers []ssh.Signer
	// HostKeyCallback verifies the remote host key; use
	// ssh.InsecureIgnoreHostKey only for test fixtures
	HostKeyCallback ssh.HostKeyCallback
	// Port is the remote SSH port; defaults to 22
	Port int
	// DialTimeout bounds the TCP+handshake phase of each connection
	DialTimeout time.Duration
}

// CheckAndSetDefaults validates c and fills in defaults.
func (c *Config) CheckAndSetDefaults() error {
	if c.User == "" {
		return trace.BadParameter("ssh executor: user is required")
	}
	if len(c.Signers) == 0 {
		return trace.BadParameter("ssh executor: at least one signer is required")
	}
	if c.HostKeyCallback == nil {
		return trace.BadParameter("ssh executor: host key callback is required")
	}
	if c.Port == 0 {
		c.Port = 22
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = defaults.DefaultActionTimeout
	}
	return nil
}

// Executor runs actions over SSH against a target's PrimaryIP.
type Executor struct {
	cfg Config
}

// New returns an SSH executor from cfg.
func New(cfg Config) (*Executor, error) {
	if err := cfg.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}
	return &Executor{cfg: cfg}, nil
}

// Execute dials target over SSH and runs action.Command, retrying
// transient dial failures via lib/utils.RetryTransient.
func (e *Executor) Execute(ctx context.Context, target model.Target, action model.Action) (string, error) {
	addr := fmt.Sprintf("%s:%d", target.Node.PrimaryIP(), e.cfg.Port)

	clientCfg := &ssh.ClientConfig{
		User:            e.cfg.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(e.cfg.Signers...)},
		HostKeyCallback: e.cfg.HostKeyCallback,
		Timeout:         e.cfg.DialTimeout,
	}

	var client *ssh.Client
	dial := func() error {
		var err error
		client, err = ssh.Dial("tcp", addr, clientCfg)
		if err != nil {
			return trace.ConnectionProblem(err, "dial %v", addr)
		}
		return nil
	}
	if err := utils.RetryTransient(ctx, utils.NewExponentialBackOff(e.cfg.DialTimeout), dial); err != nil {
		return "", trace.Wrap(err, "ssh action %q on %v", action.Name, target.Node.ID())
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return "", trace.Wrap(err, "ssh action %q on %v: new session", action.Name, target.Node.ID())
	}
	defer session.Close()

	var out bytes.Buffer
	session.Stdout = &out
	session.Stderr = &out

	command := strings.Join(append([]string{action.Command}, action.Args...), " ")
	if err := session.Run(command); err != nil {
		return out.String(), trace.Wrap(err, "ssh action %q on %v", action.Name, target.Node.ID())
	}
	return out.String(), nil
}
