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

// Package constants collects small cross-cutting literals shared by the
// engine packages that would otherwise be duplicated or, worse, drift.
package constants

const (
	// Completed defines the value of the progress when the operation is
	// fully done, used to scale the ASCII progress bar
	Completed = 100

	// HumanDateFormatSeconds is a log/console friendly time format with
	// second precision
	HumanDateFormatSeconds = "Mon Jan _2 15:04:05 UTC"

	// GroupNameTag is the reserved compute-provider tag key that records
	// the group a provisioned node belongs to. The default node filter
	// relies on this contract (spec.md §6 "Group-name tag").
	GroupNameTag = "/pallet/group-name"

	// FieldGroup is the logging field carrying the group name
	FieldGroup = "group"
	// FieldPhase is the logging field carrying the phase name
	FieldPhase = "phase"
	// FieldTarget is the logging field carrying the target identifier
	FieldTarget = "target"
	// FieldOperation is the logging field carrying the operation kind
	// ("converge" or "lift")
	FieldOperation = "operation"
)
