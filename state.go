package realtime

import "fmt"

// State is the lifecycle state of the client's single persistent connection.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateFailed
)

func (state State) String() string {
	switch state {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateFailed:
		return "Failed"
	default:
		return "InvalidState"
	}
}

func (s State) validateTransitionTo(newState State) error {
	switch s {
	case StateDisconnected:
		switch newState {
		case StateConnecting, StateDisconnected:
			return nil
		}
	case StateConnecting:
		// Connecting to Connecting covers a failed attempt that schedules
		// another retry.
		switch newState {
		case StateConnected, StateConnecting, StateDisconnected, StateFailed:
			return nil
		}
	case StateConnected:
		// Connected to Connecting is possible when the connection is lost
		// after the connection is established.
		switch newState {
		case StateConnecting, StateDisconnected, StateFailed:
			return nil
		}
	case StateFailed:
		// Only a manual reconnect or disconnect leaves the failed state.
		switch newState {
		case StateConnecting, StateDisconnected:
			return nil
		}
	}

	return fmt.Errorf("invalid state transition from %v to %v", s, newState)
}
