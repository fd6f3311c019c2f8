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
	"context"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"
)

// RetryTransient retries fn using the given backoff interval, honoring
// ctx cancellation, stopping as soon as fn returns a nil error or a
// *backoff.PermanentError. Used by the AWS compute provider and the SSH
// executor to absorb transient connection failures without surfacing
// them as provider/domain errors on the first blip.
func RetryTransient(ctx context.Context, interval backoff.BackOff, fn func() error) error {
	b := backoff.WithContext(interval, ctx)
	err := backoff.RetryNotify(fn, b, func(err error, d time.Duration) {
		log.WithError(err).Infof("Retrying in %v.", d)
	})
	if perm, ok := err.(*backoff.PermanentError); ok {
		err = perm.Err
	}
	return trace.Wrap(err)
}

// NewUnlimitedExponentialBackOff returns a backoff interval with no time
// restriction
func NewUnlimitedExponentialBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 0
	return b
}

// NewExponentialBackOff returns a backoff interval capped at timeout
func NewExponentialBackOff(timeout time.Duration) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = timeout
	return b
}
