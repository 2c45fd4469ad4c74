// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"maps"
	"slices"
	"time"
)

// Accumulator collects category results for one neighborhood during a run.
// It is owned by a single pipeline run and is not safe for concurrent use.
type Accumulator struct {
	key     NeighborhoodKey
	runID   string
	order   []Category
	results map[Category]CategoryResult
}

func NewAccumulator(key NeighborhoodKey, runID string) *Accumulator {
	return &Accumulator{
		key:     key,
		runID:   runID,
		results: make(map[Category]CategoryResult),
	}
}

// Merge folds a partial result into the accumulated result for category.
//
// Itemized results merge like a dictionary keyed by item name: items whose
// name already exists replace the accumulated entries in place, new names are
// appended. Unnamed items never collide. Every other combination is
// last-write-wins.
func (a *Accumulator) Merge(category Category, result CategoryResult) {
	prev, ok := a.results[category]
	if !ok {
		a.order = append(a.order, category)
		a.results[category] = result
		return
	}
	if prev.Kind == ResultItemized && result.Kind == ResultItemized {
		a.results[category] = NewItemized(mergeItems(prev.Items, result.Items))
		return
	}
	a.results[category] = result
}

// Result returns the accumulated result for category.
func (a *Accumulator) Result(category Category) (CategoryResult, bool) {
	r, ok := a.results[category]
	return r, ok
}

// Len returns the number of categories merged so far.
func (a *Accumulator) Len() int {
	return len(a.results)
}

// Record builds the neighborhood record from everything merged so far.
func (a *Accumulator) Record() *NeighborhoodRecord {
	return &NeighborhoodRecord{
		Key:        a.key,
		RunID:      a.runID,
		Categories: maps.Clone(a.results),
		Order:      slices.Clone(a.order),
		UpdatedAt:  time.Now().UTC(),
	}
}

func mergeItems(prev, next []Item) []Item {
	incoming := make(map[string][]Item)
	for _, item := range next {
		if item.Name == "" {
			continue
		}
		incoming[item.Name] = append(incoming[item.Name], item)
	}

	merged := make([]Item, 0, len(prev)+len(next))
	replaced := make(map[string]bool)
	for _, item := range prev {
		repl, collides := incoming[item.Name]
		if item.Name == "" || !collides {
			merged = append(merged, item)
			continue
		}
		if !replaced[item.Name] {
			merged = append(merged, repl...)
			replaced[item.Name] = true
		}
	}
	for _, item := range next {
		if item.Name != "" && replaced[item.Name] {
			continue
		}
		merged = append(merged, item)
	}
	return merged
}
