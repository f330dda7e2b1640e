package tcp

import (
	"errors"
	"fmt"
)

// ErrListenerClosed is reported when the listening socket goes away while the
// transport is still running. The accept loop stops; live workers are unaffected.
var ErrListenerClosed = errors.New("listener closed unexpectedly")

// BindError means the service cannot serve anyone: the address is malformed,
// already in use, or not permitted.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("failed to bind %q: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// Reason records why a connection worker stopped.
type Reason int

const (
	ReasonPeerClosed Reason = iota
	ReasonError
	ReasonIdle
	ReasonShutdown
	ReasonPanic
)

func (r Reason) String() string {
	switch r {
	case ReasonPeerClosed:
		return "peer closed"
	case ReasonError:
		return "error"
	case ReasonIdle:
		return "idle"
	case ReasonShutdown:
		return "shutdown"
	case ReasonPanic:
		return "panic"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// State is the lifecycle position of a Transport.
type State int

const (
	Idle State = iota
	Running
	ShuttingDown
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case ShuttingDown:
		return "shutting down"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// in matches the current state against s, for ConcurrentValue.CompareAndSet.
func in(s State) func(State) bool {
	return func(cur State) bool { return cur == s }
}
