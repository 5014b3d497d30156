package agent

import "github.com/teemow/calendaragent/internal/conversation"

// State is a phase of the conversation loop.
type State int

const (
	StateAwaitModel State = iota
	StateDispatchTools
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAwaitModel:
		return "AWAIT_MODEL"
	case StateDispatchTools:
		return "DISPATCH_TOOLS"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Next returns the phase that follows current given the transcript.
// Terminal phases map to themselves.
func Next(current State, conv *conversation.State) State {
	switch current {
	case StateAwaitModel:
		if len(conv.PendingToolCalls()) > 0 {
			return StateDispatchTools
		}
		return StateDone
	case StateDispatchTools:
		return StateAwaitModel
	default:
		return current
	}
}
