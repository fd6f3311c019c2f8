/*
Copyright 2019 Gravitational, Inc.

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

package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Logger defines a subset of the structured logging interface used by the
// engine packages. It exists so components depend on an interface rather
// than *logrus.Entry directly, matching lib/fsm's use of
// logrus.FieldLogger.
type Logger interface {
	// WithField creates a new child logger with the specified field
	WithField(key string, value interface{}) Logger
	// WithFields creates a new child logger with the specified list of fields
	WithFields(fields logrus.Fields) Logger
	// WithError creates a new child logger with the specified error field
	WithError(err error) Logger

	// Debugf outputs the message given with format and args on debug level
	Debugf(format string, args ...interface{})
	// Infof outputs the message given with format and args on info level
	Infof(format string, args ...interface{})
	// Warnf outputs the message given with format and args on warning level
	Warnf(format string, args ...interface{})
	// Errorf outputs the message given with format and args on error level
	Errorf(format string, args ...interface{})

	// Debug outputs the specified args on debug level
	Debug(args ...interface{})
	// Info outputs the specified args on info level
	Info(args ...interface{})
	// Warn outputs the specified args on warning level
	Warn(args ...interface{})
	// Error outputs the specified args on error level
	Error(args ...interface{})

	// Writer creates a new io.Writer that streams to this logger at info level
	Writer() *io.PipeWriter
}

// New creates a new Logger wrapping the given logrus entry
func New(entry *logrus.Entry) Logger {
	return logger{entry: entry}
}

// NewForComponent creates a new Logger tagged with the given component name
func NewForComponent(component string) Logger {
	return New(logrus.WithField("component", component))
}

type logger struct {
	entry *logrus.Entry
}

func (r logger) WithField(key string, value interface{}) Logger {
	return New(r.entry.WithField(key, value))
}

func (r logger) WithFields(fields logrus.Fields) Logger {
	return New(r.entry.WithFields(fields))
}

func (r logger) WithError(err error) Logger {
	return New(r.entry.WithError(err))
}

func (r logger) Debugf(format string, args ...interface{}) { r.entry.Debugf(format, args...) }
func (r logger) Infof(format string, args ...interface{})  { r.entry.Infof(format, args...) }
func (r logger) Warnf(format string, args ...interface{})  { r.entry.Warnf(format, args...) }
func (r logger) Errorf(format string, args ...interface{}) { r.entry.Errorf(format, args...) }

func (r logger) Debug(args ...interface{}) { r.entry.Debug(args...) }
func (r logger) Info(args ...interface{})  { r.entry.Info(args...) }
func (r logger) Warn(args ...interface{})  { r.entry.Warn(args...) }
func (r logger) Error(args ...interface{}) { r.entry.Error(args...) }

func (r logger) Writer() *io.PipeWriter { return r.entry.Writer() }
