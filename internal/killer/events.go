package killer

import (
	"syscall"
	"time"
)

// State is a step of the per-target termination state machine.
type State string

const (
	StatePending     State = "pending"
	StateSignaled    State = "signaled"
	StateAlreadyGone State = "already_gone"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Event reports a state transition for one target.
type Event struct {
	Timestamp time.Time
	PID       int
	State     State
	Signal    syscall.Signal
	Attempt   int
	Message   string
	Err       error
}

func (k *Killer) emit(pid int, state State, sig syscall.Signal, attempt int, message string, err error) {
	evt := Event{
		Timestamp: k.clock.Now(),
		PID:       pid,
		State:     state,
		Signal:    sig,
		Attempt:   attempt,
		Message:   message,
		Err:       err,
	}

	if k.opts.Debug && k.logger != nil {
		entry := k.logger.WithField("pid", pid).WithField("state", string(state))
		if sig != 0 {
			entry = entry.WithField("signal", SignalName(sig)).WithField("attempt", attempt)
		}
		if err != nil {
			entry = entry.WithError(err)
		}
		entry.Debug(message)
	}

	if k.events != nil {
		k.events <- evt
	}
}
