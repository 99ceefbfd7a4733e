package controller

// State is the controller's lifecycle state.
type State int

const (
	// Idle accepts submissions.
	Idle State = iota
	// Busy has exactly one request in flight and ignores submissions.
	Busy
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Busy:
		return "busy"
	default:
		return "unknown"
	}
}
