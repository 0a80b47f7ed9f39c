package killer

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultRetries       = 2
	DefaultRetryInterval = 10 * time.Second
	DefaultTimeout       = 21 * time.Second
	DefaultPollInterval  = 100 * time.Millisecond
)

// DefaultSignals is the escalation order: interrupt first, then force.
func DefaultSignals() []syscall.Signal {
	return []syscall.Signal{syscall.SIGINT, syscall.SIGKILL}
}

// Options tunes the escalation schedule. Zero durations and an empty
// Signals list take their defaults; Retries is used as given, so the zero
// value sends only the escalation signals. DefaultOptions sets it to 2.
type Options struct {
	Signals       []syscall.Signal
	Retries       int
	RetryInterval time.Duration
	Timeout       time.Duration
	PollInterval  time.Duration
	Debug         bool
}

// DefaultOptions returns the stock schedule: SIGINT at 0s and 10s, SIGKILL at
// 20s, giving up at 21s.
func DefaultOptions() Options {
	return Options{
		Signals:       DefaultSignals(),
		Retries:       DefaultRetries,
		RetryInterval: DefaultRetryInterval,
		Timeout:       DefaultTimeout,
		PollInterval:  DefaultPollInterval,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if len(o.Signals) == 0 {
		o.Signals = def.Signals
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = def.RetryInterval
	}
	if o.Timeout <= 0 {
		o.Timeout = def.Timeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = def.PollInterval
	}
	return o
}

// Schedule returns the signal sent at each delivery. There are Retries+1
// deliveries; the trailing ones carry the stronger signals in order and the
// rest repeat the first signal.
func (o Options) Schedule() []syscall.Signal {
	o = o.withDefaults()
	n := o.Retries + 1
	if n < len(o.Signals) {
		n = len(o.Signals)
	}
	schedule := make([]syscall.Signal, n)
	escalations := o.Signals[1:]
	head := n - len(escalations)
	for i := 0; i < head; i++ {
		schedule[i] = o.Signals[0]
	}
	copy(schedule[head:], escalations)
	return schedule
}

// Signaler delivers signals. A negative pid addresses a process group and
// signal 0 only probes for existence.
type Signaler interface {
	Signal(pid int, sig syscall.Signal) error
}

// Clock abstracts time so schedules can be tested without waiting.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Option configures a Killer.
type Option func(*Killer)

// WithSignaler replaces the operating system signaller.
func WithSignaler(s Signaler) Option {
	return func(k *Killer) {
		if s != nil {
			k.signaler = s
		}
	}
}

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(k *Killer) {
		if c != nil {
			k.clock = c
		}
	}
}

// WithLogger sets the logger used for debug diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(k *Killer) {
		k.logger = l
	}
}

// WithEvents delivers every state transition to events. Sends are
// synchronous.
func WithEvents(events chan<- Event) Option {
	return func(k *Killer) {
		k.events = events
	}
}

// Killer runs the escalation protocol against one target at a time.
type Killer struct {
	opts     Options
	signaler Signaler
	clock    Clock
	logger   logrus.FieldLogger
	events   chan<- Event
}

// New constructs a Killer for the host operating system.
func New(opts Options, options ...Option) *Killer {
	k := &Killer{
		opts:     opts.withDefaults(),
		signaler: systemSignaler{},
		clock:    realClock{},
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range options {
		opt(k)
	}
	return k
}

// Target identifies a fork by its root pid. Members lists the subtree and is
// used only when the root does not lead a process group.
type Target struct {
	PID     int
	Members []int
}

// Result is the outcome of terminating one target.
type Result struct {
	PID         int
	AlreadyGone bool
	Signals     []syscall.Signal
	Elapsed     time.Duration
	Err         error
}

// Failed reports whether any result carries an error.
func Failed(results []Result) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

var errVanished = errors.New("target vanished")

// Kill terminates the target's process group. A target that is already gone,
// or disappears at any check, counts as success. The escalation ends only when
// the group is gone or the timeout passes; cancelling ctx does not cut it
// short, since the caller may itself be a member of the target.
func (k *Killer) Kill(ctx context.Context, target Target) Result {
	ctx = context.WithoutCancel(ctx)
	start := k.clock.Now()
	res := Result{PID: target.PID}
	finish := func(err error) Result {
		res.Elapsed = k.clock.Now().Sub(start)
		res.Err = err
		if err != nil {
			k.emit(target.PID, StateFailed, 0, len(res.Signals), "termination failed", err)
		} else {
			k.emit(target.PID, StateDone, 0, len(res.Signals), "process group terminated", nil)
		}
		return res
	}

	k.emit(target.PID, StatePending, 0, 0, "checking process group", nil)
	alive, err := k.alive(target)
	if err != nil {
		return finish(err)
	}
	if !alive {
		res.AlreadyGone = true
		k.emit(target.PID, StateAlreadyGone, 0, 0, "process group already gone", nil)
		return finish(nil)
	}

	deadline := start.Add(k.opts.Timeout)
	schedule := k.opts.Schedule()
	for i, sig := range schedule {
		if err := k.deliver(target, sig); err != nil {
			if errors.Is(err, errVanished) {
				return finish(nil)
			}
			return finish(err)
		}
		res.Signals = append(res.Signals, sig)
		k.emit(target.PID, StateSignaled, sig, i+1, fmt.Sprintf("sent %s", SignalName(sig)), nil)

		until := k.clock.Now().Add(k.opts.RetryInterval)
		if i == len(schedule)-1 || until.After(deadline) {
			until = deadline
		}
		gone, err := k.waitGone(ctx, target, until)
		if err != nil {
			return finish(err)
		}
		if gone {
			return finish(nil)
		}
		if !k.clock.Now().Before(deadline) {
			break
		}
	}
	return finish(fmt.Errorf("process %d: %w after %s", target.PID, ErrEscalationExhausted, k.opts.Timeout))
}

// KillAll terminates targets one after another in order. A failed target does
// not stop the remaining ones.
func (k *Killer) KillAll(ctx context.Context, targets []Target) []Result {
	results := make([]Result, 0, len(targets))
	for _, target := range targets {
		results = append(results, k.Kill(ctx, target))
	}
	return results
}

func (k *Killer) waitGone(ctx context.Context, target Target, until time.Time) (bool, error) {
	for {
		alive, err := k.alive(target)
		if err != nil {
			return false, err
		}
		if !alive {
			return true, nil
		}
		remaining := until.Sub(k.clock.Now())
		if remaining <= 0 {
			return false, nil
		}
		if remaining > k.opts.PollInterval {
			remaining = k.opts.PollInterval
		}
		if err := k.clock.Sleep(ctx, remaining); err != nil {
			return false, fmt.Errorf("process %d: wait for exit: %w", target.PID, err)
		}
	}
}

// alive probes the process group first and falls back to the members.
func (k *Killer) alive(target Target) (bool, error) {
	err := k.signaler.Signal(-target.PID, 0)
	switch {
	case err == nil, isDenied(err):
		return true, nil
	case !isGone(err):
		return false, &SignalError{PID: target.PID, Err: err}
	}

	for _, pid := range k.members(target) {
		err := k.signaler.Signal(pid, 0)
		switch {
		case err == nil, isDenied(err):
			return true, nil
		case !isGone(err):
			return false, &SignalError{PID: pid, Err: err}
		}
	}
	return false, nil
}

func (k *Killer) deliver(target Target, sig syscall.Signal) error {
	err := k.signaler.Signal(-target.PID, sig)
	if err == nil {
		return nil
	}
	if !isGone(err) {
		return &SignalError{PID: target.PID, Signal: sig, Err: err}
	}

	delivered := false
	for _, pid := range k.members(target) {
		err := k.signaler.Signal(pid, sig)
		if err == nil {
			delivered = true
			continue
		}
		if !isGone(err) {
			return &SignalError{PID: pid, Signal: sig, Err: err}
		}
	}
	if !delivered {
		return errVanished
	}
	return nil
}

func (k *Killer) members(target Target) []int {
	if len(target.Members) == 0 {
		return []int{target.PID}
	}
	return target.Members
}
