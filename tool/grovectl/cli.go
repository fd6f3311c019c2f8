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

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gravitational/grove/lib/action"
	actionlocal "github.com/gravitational/grove/lib/action/local"
	actionssh "github.com/gravitational/grove/lib/action/ssh"
	"github.com/gravitational/grove/lib/compute"
	computeaws "github.com/gravitational/grove/lib/compute/aws"
	computetest "github.com/gravitational/grove/lib/compute/test"
	"github.com/gravitational/grove/lib/defaults"
	"github.com/gravitational/grove/lib/op"
	"github.com/gravitational/grove/lib/spec"
	"github.com/gravitational/grove/lib/utils"

	"github.com/gravitational/trace"
	"golang.org/x/crypto/ssh"
	"gopkg.in/alecthomas/kingpin.v2"
)

type commands struct {
	converge     *kingpin.CmdClause
	convergeSpec *string
	convergeProv *string
	convergeRgn  *string
	convergeNoOS *bool

	lift      *kingpin.CmdClause
	liftSpec  *string
	liftProv  *string
	liftRgn   *string
	liftNames *[]string
	liftNoOS  *bool

	sshUser *string
	sshKey  *string
}

// registerCommands wires the converge and lift subcommands into app,
// mirroring tool/gravity/cli.RegisterCommands's flat command registration.
func registerCommands(app *kingpin.Application) *commands {
	c := &commands{}

	c.converge = app.Command("converge", "Reconcile node counts and run the steady-state phases")
	c.convergeSpec = c.converge.Flag("spec", "Path to the cluster spec YAML file").Required().String()
	c.convergeProv = c.converge.Flag("provider", "Compute provider: test or aws").Default("test").String()
	c.convergeRgn = c.converge.Flag("region", "AWS region (provider=aws only)").String()
	c.convergeNoOS = c.converge.Flag("skip-os-detect", "Skip the os-bs/os detection phases").Bool()

	c.lift = app.Command("lift", "Run settings plus a phase sequence against every live target")
	c.liftSpec = c.lift.Flag("spec", "Path to the cluster spec YAML file").Required().String()
	c.liftProv = c.lift.Flag("provider", "Compute provider: test or aws").Default("test").String()
	c.liftRgn = c.lift.Flag("region", "AWS region (provider=aws only)").String()
	c.liftNoOS = c.lift.Flag("skip-os-detect", "Skip the os-bs/os detection phases").Bool()
	c.liftNames = c.lift.Arg("phase", "Phase name(s) to run, in order, after settings").Required().Strings()

	c.sshUser = app.Flag("ssh-user", "Remote login user for the ssh executor").Default("root").String()
	c.sshKey = app.Flag("ssh-key", "Path to a private key enabling the ssh executor, in addition to local").String()

	return c
}

func run(selected string, c *commands) error {
	switch selected {
	case c.converge.FullCommand():
		return runConverge(*c.convergeSpec, *c.convergeProv, *c.convergeRgn, *c.sshUser, *c.sshKey, *c.convergeNoOS)
	case c.lift.FullCommand():
		return runLift(*c.liftSpec, *c.liftProv, *c.liftRgn, *c.liftNames, *c.sshUser, *c.sshKey, *c.liftNoOS)
	default:
		return trace.BadParameter("unknown command %q", selected)
	}
}

func runConverge(specPath, provider, region, sshUser, sshKey string, skipOSDetect bool) error {
	opts, err := buildOptions(specPath, provider, region, sshUser, sshKey)
	if err != nil {
		return trace.Wrap(err)
	}
	opts.SkipOSDetect = skipOSDetect

	operation, err := op.Converge(context.Background(), opts)
	if err != nil {
		return trace.Wrap(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaults.DefaultConvergeTimeout)
	defer cancel()
	result, err := operation.Await(ctx)
	if err != nil {
		return trace.Wrap(err)
	}
	fmt.Printf("converge finished: %d phase result(s)\n", len(result.Results))
	return trace.Wrap(result.Err)
}

func runLift(specPath, provider, region string, phaseNames []string, sshUser, sshKey string, skipOSDetect bool) error {
	opts, err := buildOptions(specPath, provider, region, sshUser, sshKey)
	if err != nil {
		return trace.Wrap(err)
	}
	opts.Phases = phaseNames
	opts.SkipOSDetect = skipOSDetect

	operation, err := op.Lift(context.Background(), opts)
	if err != nil {
		return trace.Wrap(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaults.DefaultConvergeTimeout)
	defer cancel()
	result, err := operation.Await(ctx)
	if err != nil {
		return trace.Wrap(err)
	}
	fmt.Printf("lift %v finished: %d phase result(s)\n", phaseNames, len(result.Results))
	return trace.Wrap(result.Err)
}

func buildOptions(specPath, providerName, region, sshUser, sshKey string) (op.Options, error) {
	cluster, err := loadCluster(specPath)
	if err != nil {
		return op.Options{}, trace.Wrap(err)
	}
	groups, err := spec.Compose(cluster)
	if err != nil {
		return op.Options{}, trace.Wrap(err)
	}

	provider, err := buildProvider(providerName, region)
	if err != nil {
		return op.Options{}, trace.Wrap(err)
	}

	registry, err := buildRegistry(sshUser, sshKey)
	if err != nil {
		return op.Options{}, trace.Wrap(err)
	}

	return op.Options{
		Groups:   groups,
		Provider: provider,
		Registry: registry,
		Progress: utils.NewConsoleProgress(cluster.Name, 0),
	}, nil
}

func buildProvider(name, region string) (compute.Provider, error) {
	switch name {
	case "", "test":
		return computetest.New(), nil
	case "aws":
		if region == "" {
			return nil, trace.BadParameter("--region is required for provider=aws")
		}
		return computeaws.New(computeaws.Config{Region: region})
	default:
		return nil, trace.BadParameter("unknown provider %q, expected \"test\" or \"aws\"", name)
	}
}

// buildRegistry always wires the local executor and additionally wires
// the ssh executor when the caller supplied a private key, so actions
// tagged executor: ssh in a group spec can reach real fleet members
// instead of only the machine grovectl itself runs on.
func buildRegistry(sshUser, sshKey string) (action.Registry, error) {
	executors := map[string]action.Executor{
		"local": actionlocal.New(),
	}

	if sshKey != "" {
		key, err := os.ReadFile(sshKey)
		if err != nil {
			return nil, trace.ConvertSystemError(err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, trace.Wrap(err, "parsing %v", sshKey)
		}
		executor, err := actionssh.New(actionssh.Config{
			User:            sshUser,
			Signers:         []ssh.Signer{signer},
			HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		})
		if err != nil {
			return nil, trace.Wrap(err)
		}
		executors["ssh"] = executor
	}

	return action.NewRegistry(executors), nil
}
