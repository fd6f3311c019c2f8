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

// Command grovectl drives the fleet engine from a group-spec YAML file:
// converge realizes node counts and steady-state phases, lift runs
// settings plus one or more named phases without touching counts.
// Adapted from tool/gravity/main.go.
package main

import (
	"os"

	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"
)

func main() {
	log.SetFormatter(&log.TextFormatter{})
	app := kingpin.New("grovectl", "Declarative fleet reconciliation tool")
	cmds := registerCommands(app)

	selected, err := app.Parse(os.Args[1:])
	if err != nil {
		kingpin.Fatalf("%v", err)
	}

	if err := run(selected, cmds); err != nil {
		log.Error(trace.DebugReport(err))
		os.Exit(255)
	}
}
