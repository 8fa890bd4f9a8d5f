package index

import "fmt"

// State is a build's position in its lifecycle.
type State int32

const (
	StateIdle State = iota
	StateCounting
	StateStreaming
	StateCommitting
	StateMerging
	StateDone
	StateFailed
)

// String returns the display name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateCounting:
		return "Counting"
	case StateStreaming:
		return "Streaming"
	case StateCommitting:
		return "Committing"
	case StateMerging:
		return "Merging"
	case StateDone:
		return "Done"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Terminal reports whether no further transitions happen from s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
