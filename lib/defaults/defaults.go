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

// Package defaults collects the timeouts and limits used across the
// engine so individual packages do not invent their own.
package defaults

import (
	"context"
	"time"
)

const (
	// RetryAttempts and RetryInterval size the budget of WithTimeout
	// (RetryAttempts*RetryInterval); the provider and SSH retries use
	// their own elapsed-time bounds instead
	RetryAttempts = 3
	// RetryInterval is the per-attempt pause WithTimeout's budget assumes
	RetryInterval = 1 * time.Second

	// DefaultConvergeTimeout bounds how long tool/grovectl waits in
	// Operation.Await for a converge/lift; on expiry Await returns the
	// context's deadline error (spec.md §4.6 "Async semantics")
	DefaultConvergeTimeout = 30 * time.Minute

	// DefaultPhaseTimeout bounds a single phase invocation against a
	// single target
	DefaultPhaseTimeout = 10 * time.Minute

	// DefaultProviderTimeout bounds the AWS provider's RunInstances
	// retries and its wait for terminated instances
	DefaultProviderTimeout = 5 * time.Minute

	// DefaultActionTimeout is the SSH executor's default DialTimeout,
	// bounding each dial and the total time spent retrying dials
	DefaultActionTimeout = 2 * time.Minute

	// DefaultDefaultPhase is the phase sequence op.Options falls back to
	// when Options.Phases is empty (spec.md §3 "default-phases")
	DefaultDefaultPhase = "configure"

	// DefaultSettingsPhase runs before any other phase on every target
	// Lift touches, and after the os-detection phases but before the
	// caller phases on every target Converge touches (spec.md §4.6:
	// "lift always runs :settings first, checks for errors, then runs
	// the caller-supplied phase sequence"). A group with no phase of
	// this name simply skips it, per lib/phase.Executor's normal
	// skip-if-absent behavior.
	DefaultSettingsPhase = "settings"
	// DefaultOSBootstrapPhase is the first of the two OS-detection
	// phases Converge prepends to its phase sequence unless
	// Options.SkipOSDetect is set (spec.md §6 "os-detect", default true)
	DefaultOSBootstrapPhase = "os-bs"
	// DefaultOSPhase is the second OS-detection phase, run immediately
	// after DefaultOSBootstrapPhase
	DefaultOSPhase = "os"
)

// WithTimeout returns a context bounded by RetryAttempts*RetryInterval,
// the default budget for a bounded-retry operation
func WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, RetryAttempts*RetryInterval)
}
