package killer

import (
	"errors"
	"fmt"
	"syscall"
)

// ErrEscalationExhausted reports a target that survived every signal of the
// schedule within the timeout.
var ErrEscalationExhausted = errors.New("process group survived all signals")

// SignalError reports a signal the operating system refused to deliver, for
// example because the target belongs to another user.
type SignalError struct {
	PID    int
	Signal syscall.Signal
	Err    error
}

func (e *SignalError) Error() string {
	if e.Signal == 0 {
		return fmt.Sprintf("probe process %d: %v", e.PID, e.Err)
	}
	return fmt.Sprintf("send %s to process %d: %v", SignalName(e.Signal), e.PID, e.Err)
}

func (e *SignalError) Unwrap() error {
	return e.Err
}

func isGone(err error) bool {
	return errors.Is(err, syscall.ESRCH)
}

// isDenied reports a process that exists but cannot be signalled by us.
func isDenied(err error) bool {
	return errors.Is(err, syscall.EPERM)
}
