package client

import "fmt"

// Status is the phase of a client connection
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ConnectionState is the observable state of a client. Err is set only for StatusFailed.
type ConnectionState struct {
	Status Status
	Err    error
}

func (s ConnectionState) String() string {
	if s.Status == StatusFailed && s.Err != nil {
		return fmt.Sprintf("failed(%v)", s.Err)
	}
	return s.Status.String()
}

var (
	stateDisconnected = ConnectionState{Status: StatusDisconnected}
	stateConnecting   = ConnectionState{Status: StatusConnecting}
	stateReady        = ConnectionState{Status: StatusReady}
)

func stateFailed(err error) ConnectionState {
	return ConnectionState{Status: StatusFailed, Err: err}
}
