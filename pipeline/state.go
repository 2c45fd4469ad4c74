package pipeline

import (
	"time"

	"github.com/poiesic/boroughs/core"
)

// State is a step in a neighborhood's lifecycle.
type State int

const (
	StatePending State = iota
	StateRetrieving
	StateRefining
	StateMerged
	StatePersisted
	StateSkipped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateRetrieving:
		return "RETRIEVING"
	case StateRefining:
		return "REFINING"
	case StateMerged:
		return "MERGED"
	case StatePersisted:
		return "PERSISTED"
	case StateSkipped:
		return "SKIPPED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no transition can follow s.
func (s State) Terminal() bool {
	return s == StatePersisted || s == StateSkipped || s == StateFailed
}

// Transition records entering a state. Category is set for the
// per-category states only.
type Transition struct {
	State    State
	Category core.Category
	At       time.Time
}

// Outcome is the result of processing one neighborhood.
type Outcome struct {
	Key         core.NeighborhoodKey
	RunID       string
	State       State
	Transitions []Transition
	Record      *core.NeighborhoodRecord // Set once persisted
	Reason      string                   // Why the neighborhood was skipped or failed
}

func (o *Outcome) enter(state State, category core.Category) {
	o.State = state
	o.Transitions = append(o.Transitions, Transition{
		State:    state,
		Category: category,
		At:       time.Now(),
	})
}

// States returns the visited states in order.
func (o *Outcome) States() []State {
	states := make([]State, len(o.Transitions))
	for i, t := range o.Transitions {
		states[i] = t.State
	}
	return states
}

// Report collects the outcomes of a run in processing order.
type Report struct {
	RunID    string
	Outcomes []*Outcome
}

// Count returns how many outcomes ended in state.
func (r *Report) Count(state State) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.State == state {
			n++
		}
	}
	return n
}

// Skipped returns the keys of skipped neighborhoods.
func (r *Report) Skipped() []core.NeighborhoodKey {
	var keys []core.NeighborhoodKey
	for _, o := range r.Outcomes {
		if o.State == StateSkipped {
			keys = append(keys, o.Key)
		}
	}
	return keys
}
