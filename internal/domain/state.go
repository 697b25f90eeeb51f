package domain

// State is the classification of a domain element.
type State int

const (
	// ActiveNew marks an element that has never been calculated.
	ActiveNew State = iota
	// Active marks an element scheduled for recalculation in this frame.
	Active
	// Hibernated marks an element skipped by the current frame.
	Hibernated
	// GoodPath marks an element whose trajectory escaped after more than
	// iteration_min in-area steps; its path was recorded.
	GoodPath
	// Finished marks an element that needs no further work.
	Finished
	// TooShort marks an escaping element whose in-area path was too short
	// to be worth recording.
	TooShort
	// TooLong marks an element that reached iteration_max: bounded, inside
	// the set.
	TooLong

	numStates
)

var stateNames = [numStates]string{
	ActiveNew:  "active_new",
	Active:     "active",
	Hibernated: "hibernated",
	GoodPath:   "good_path",
	Finished:   "finished",
	TooShort:   "too_short",
	TooLong:    "too_long",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if s < 0 || s >= numStates {
		return "unknown"
	}
	return stateNames[s]
}

// IsActive reports whether an element in this state is calculated by the
// next frame.
func (s State) IsActive() bool {
	return s == ActiveNew || s == Active
}

// States lists every state in declaration order.
func States() []State {
	out := make([]State, numStates)
	for i := range out {
		out[i] = State(i)
	}
	return out
}

// StateFromPathLength classifies an element from the outcome of its probe
// pass. iterator is the number of steps taken, length the number of those
// steps that stayed inside the area.
//
// A sample that used the whole iteration budget is bounded regardless of its
// length. Otherwise it escaped, and its path is good only when strictly
// longer than iterationMin.
func StateFromPathLength(iterator, length, iterationMin, iterationMax int) State {
	if iterator >= iterationMax {
		return TooLong
	}
	if length <= iterationMin {
		return TooShort
	}
	return GoodPath
}

// StateCounts holds the number of elements in each state.
type StateCounts [numStates]int

// Of returns the count for s.
func (c StateCounts) Of(s State) int {
	if s < 0 || s >= numStates {
		return 0
	}
	return c[s]
}
