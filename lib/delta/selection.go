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

package delta

import (
	"math/rand"
	"sort"

	"github.com/gravitational/grove/lib/model"
)

// TakeFirst selects the count targets with the lexicographically
// smallest node IDs. This is the package default removal strategy:
// deterministic and stable across repeated runs against the same
// inventory, which matters when a prior adjust was interrupted and the
// operation is retried.
func TakeFirst(count int, targets []model.Target) []model.Target {
	sorted := append([]model.Target{}, targets...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Node.ID() < sorted[j].Node.ID() })
	return firstN(sorted, count)
}

// TakeRandom selects count targets uniformly at random. Useful for
// groups where members are interchangeable and an even wear pattern
// across the underlying provider inventory is preferred to always
// culling the oldest members.
func TakeRandom(count int, targets []model.Target) []model.Target {
	shuffled := append([]model.Target{}, targets...)
	rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	return firstN(shuffled, count)
}

// TakeByAnnotation returns a RemovalSelectionFunc that sorts targets by
// the value of the given GroupSpec.Annotations key (ascending) before
// selecting the first count. A target lacking the annotation sorts as
// an empty value, ahead of annotated ones; node ID breaks ties between
// equal values. This lets operators mark preferred removal
// order out of band, e.g. annotation "drain-priority" holding a
// zero-padded rank.
func TakeByAnnotation(key string) model.RemovalSelectionFunc {
	return func(count int, targets []model.Target) []model.Target {
		sorted := append([]model.Target{}, targets...)
		sort.Slice(sorted, func(i, j int) bool {
			vi, vj := sorted[i].Group.Annotations[key], sorted[j].Group.Annotations[key]
			if vi == vj {
				return sorted[i].Node.ID() < sorted[j].Node.ID()
			}
			return vi < vj
		})
		return firstN(sorted, count)
	}
}

func firstN(targets []model.Target, n int) []model.Target {
	if n > len(targets) {
		n = len(targets)
	}
	return targets[:n]
}
