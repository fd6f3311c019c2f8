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

	"github.com/gravitational/trace"
)

// CollectErrors exhausts error channel errChan up to its capacity and
// returns an aggregate error if any of the collected errors are non-nil.
// This is the fan-in half of the node-count adjuster's parallel task
// topology (spec.md §4.4, §5); the phase executor uses lib/run instead.
func CollectErrors(ctx context.Context, errChan chan error) error {
	_, err := Collect(ctx, nil, errChan, nil)
	return trace.Wrap(err)
}

// CollectAll runs fn(i) for every i in [0,n) in its own goroutine and
// returns the aggregate error across every call, honoring ctx
// cancellation (spec.md §4.4 "adjuster fan-out": one goroutine per
// group delta, every group's failure reported, no group's failure
// stops its siblings). It is the fan-out counterpart to CollectErrors:
// callers that need "run N independent tasks, report every failure" no
// longer hand-roll the channel and goroutine-spawn loop themselves.
// Each fn(i) is responsible for recording its own result (e.g. into a
// pre-sized slice at index i) before returning its error; CollectAll
// only aggregates the errors.
func CollectAll(ctx context.Context, n int, fn func(i int) error) error {
	errChan := make(chan error, n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			errChan <- fn(i)
		}()
	}
	return CollectErrors(ctx, errChan)
}

// Collect collects errors and values from the channels provided, honoring
// ctx cancellation. It expects exactly cap(errChan) messages on errChan.
// valuesChan may be nil; if not, cap(errChan) must equal cap(valuesChan).
// If cancel is non-nil, it is invoked on the first error encountered so
// siblings can stop early.
func Collect(ctx context.Context, cancel func(), errChan chan error, valuesChan chan interface{}) ([]interface{}, error) {
	var errors []error
	var values []interface{}

	errorsLeft := cap(errChan)
	valuesLeft := cap(valuesChan)

	if valuesLeft != 0 && (errorsLeft != valuesLeft) {
		return nil, trace.Errorf("cap(errChan)=%d, cap(valuesChan)=%d", errorsLeft, valuesLeft)
	}

	for errorsLeft > 0 || valuesLeft > 0 {
		select {
		case <-ctx.Done():
			return nil, trace.Wrap(ctx.Err())
		case err := <-errChan:
			errorsLeft--
			if err != nil {
				errors = append(errors, err)
				if cancel != nil {
					cancel()
				}
			}
		case val := <-valuesChan:
			valuesLeft--
			values = append(values, val)
		}
	}

	return values, trace.NewAggregate(errors...)
}
