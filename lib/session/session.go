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

package session

import (
	"github.com/gravitational/grove/lib/log"
	"github.com/gravitational/grove/lib/utils"
)

// Session bundles everything a single converge/lift operation threads
// through the phase executor: a logger, the shared PlanState and
// Recorder, and the operation's id, mirroring the role *fsm.FSM plays
// in the teacher repo as the one object every phase handler receives.
type Session struct {
	// ID identifies the operation this session belongs to
	ID string
	// Logger is tagged with the operation id for every message it emits
	Logger log.Logger
	// PlanState holds every phase result recorded so far
	PlanState *PlanState
	// Recorder fans out phase and action events to progress reporting
	// and Follow subscribers
	Recorder *Recorder
}

// New returns a Session for operation id, wiring a fresh PlanState and
// a Recorder around progress.
func New(id string, progress utils.Progress) *Session {
	return &Session{
		ID:        id,
		Logger:    log.NewForComponent("session").WithField("operation", id),
		PlanState: NewPlanState(),
		Recorder:  NewRecorder(progress),
	}
}
