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

package utils

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/gravitational/grove/lib/constants"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

// Progress is a progress reporter passed down through a Session (spec.md
// §3) so phase plan functions and the operation driver can surface
// human-readable status without depending on a concrete CLI.
type Progress interface {
	// NextStep announces a new top-level step (e.g. a phase name)
	NextStep(message string, args ...interface{})
	// PrintSubStep reports a sub-step of the current step (e.g. one target)
	PrintSubStep(message string, args ...interface{})
	// PrintWarn reports a non-fatal warning, also logging err if given
	PrintWarn(err error, message string, args ...interface{})
	// Stop finalizes the report
	Stop()
}

// NewConsoleProgress returns a Progress that writes title and step
// messages to stdout
func NewConsoleProgress(title string, steps int) Progress {
	return &consoleProgress{title: title, steps: steps, start: time.Now(), w: os.Stdout}
}

// NewNopProgress returns a Progress that discards everything
func NewNopProgress() Progress { return nopProgress{} }

type consoleProgress struct {
	mu      sync.Mutex
	w       io.Writer
	title   string
	steps   int
	current int
	start   time.Time
}

func (p *consoleProgress) NextStep(message string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current++
	msg := fmt.Sprintf(message, args...)
	if p.steps > 0 {
		fmt.Fprintf(p.w, "* [%v/%v] %v\n", p.current, p.steps, msg)
		return
	}
	fmt.Fprintf(p.w, "* %v\n", msg)
}

func (p *consoleProgress) PrintSubStep(message string, args ...interface{}) {
	fmt.Fprintf(p.w, "\t%v\n", fmt.Sprintf(message, args...))
}

func (p *consoleProgress) PrintWarn(err error, message string, args ...interface{}) {
	msg := fmt.Sprintf(message, args...)
	fmt.Fprintf(p.w, "\t%v\n", color.YellowString(msg))
	if err != nil {
		fmt.Fprintf(p.w, "\t%v\n", color.YellowString(err.Error()))
	}
}

func (p *consoleProgress) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	diff := humanize.RelTime(p.start, time.Now(), "", "")
	fmt.Fprintf(p.w, "%v finished in %v\n", p.title, diff)
}

// ProgressBar renders an ASCII progress bar for current/target, matching
// the convention used by lib/utils.PrintProgress in the teacher repo.
func ProgressBar(current, target int64) string {
	if target == 0 {
		target = 1
	}
	ratio := float64(current) / float64(target)
	blocks := int(ratio * constants.Completed)
	var b []byte
	b = append(b, '[')
	for i := 0; i < constants.Completed; i++ {
		switch {
		case blocks-i > 0:
			b = append(b, '=')
		case blocks-i == 0:
			b = append(b, '>')
		default:
			b = append(b, ' ')
		}
	}
	b = append(b, ']')
	return string(b)
}

type nopProgress struct{}

func (nopProgress) NextStep(string, ...interface{})         {}
func (nopProgress) PrintSubStep(string, ...interface{})     {}
func (nopProgress) PrintWarn(error, string, ...interface{}) {}
func (nopProgress) Stop()                                   {}
