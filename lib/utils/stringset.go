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

import "sort"

// StringSet is a set of unique strings. Target.GroupNames is modeled as
// a StringSet rather than []string so union/diff compose without
// caller-side deduplication.
type StringSet map[string]struct{}

// NewStringSet returns an empty StringSet
func NewStringSet() StringSet {
	return make(StringSet)
}

// NewStringSetFromSlice returns a StringSet containing the elements of slice
func NewStringSetFromSlice(slice []string) StringSet {
	s := make(StringSet, len(slice))
	s.AddSlice(slice)
	return s
}

// Add inserts v into the set
func (s StringSet) Add(v string) {
	s[v] = struct{}{}
}

// Remove deletes v from the set
func (s StringSet) Remove(v string) {
	delete(s, v)
}

// Slice returns the set's elements as a sorted slice
func (s StringSet) Slice() (slice []string) {
	slice = make([]string, 0, len(s))
	for key := range s {
		slice = append(slice, key)
	}
	sort.Strings(slice)
	return slice
}

// AddSlice inserts every element of slice into the set
func (s StringSet) AddSlice(slice []string) {
	for _, el := range slice {
		s.Add(el)
	}
}

// AddSet inserts every element of right into s (set union, in place)
func (s StringSet) AddSet(right StringSet) {
	for el := range right {
		s.Add(el)
	}
}

// Has reports whether item is a member of the set
func (s StringSet) Has(item string) (exists bool) {
	_, exists = s[item]
	return exists
}

// Clone returns a shallow copy of the set
func (s StringSet) Clone() StringSet {
	c := make(StringSet, len(s))
	c.AddSet(s)
	return c
}
