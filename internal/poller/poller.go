// Package poller watches an attempt's status until it is resolved.
//
// A Task moves through idle -> polling -> resolved | cancelled | expired.
// resolved means a terminal status was observed; cancelled means the caller
// stopped the task or its context; expired means the configured timeout or
// attempt ceiling was reached first.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"paysync/internal/domain/payment"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// StatusSource answers status queries, normally over HTTP
type StatusSource interface {
	Status(ctx context.Context, attemptID string) (payment.Status, error)
}

// StatusFunc adapts a function to StatusSource
type StatusFunc func(ctx context.Context, attemptID string) (payment.Status, error)

func (f StatusFunc) Status(ctx context.Context, attemptID string) (payment.Status, error) {
	return f(ctx, attemptID)
}

type State int32

const (
	StateIdle State = iota
	StatePolling
	StateResolved
	StateCancelled
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateResolved:
		return "resolved"
	case StateCancelled:
		return "cancelled"
	case StateExpired:
		return "expired"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeExpired   Outcome = "expired"
)

// Result is reported once a task leaves the polling state
type Result struct {
	AttemptID string
	Outcome   Outcome
	// Status is the last status observed, empty if no query succeeded.
	Status   payment.Status
	Attempts int
	Err      error
}

// Options configures polling. Zero Timeout and MaxAttempts mean unbounded.
type Options struct {
	Interval    time.Duration
	Timeout     time.Duration
	MaxAttempts int
	// OnStatus is called after every successful query.
	OnStatus func(attempt int, status payment.Status)
}

const DefaultInterval = 2 * time.Second

var errStillPending = errors.New("attempt still pending")

// Poller starts polling tasks. It owns at most one active task: starting a
// new one stops the previous, so an abandoned attempt stops issuing queries.
type Poller struct {
	source StatusSource
	opts   Options

	mu      sync.Mutex
	current *Task
}

func New(source StatusSource, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.MaxAttempts < 0 {
		opts.MaxAttempts = 0
	}
	return &Poller{source: source, opts: opts}
}

// Start begins polling attemptID in its own goroutine
func (p *Poller) Start(ctx context.Context, attemptID string) (*Task, error) {
	if attemptID == "" {
		return nil, errors.New("poller: attempt ID is required")
	}

	t := newTask(attemptID)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		p.current.Stop()
	}
	t.run(ctx, p.source, p.opts)
	p.current = t
	return t, nil
}

// Stop cancels the active task, if any
func (p *Poller) Stop() {
	p.mu.Lock()
	t := p.current
	p.current = nil
	p.mu.Unlock()
	if t != nil {
		t.Stop()
	}
}

// Task is a handle on one polling loop
type Task struct {
	attemptID string
	state     atomic.Int32
	attempts  atomic.Int64
	stopped   atomic.Bool
	cancel    context.CancelFunc
	done      chan struct{}
	result    Result
}

func newTask(attemptID string) *Task {
	return &Task{attemptID: attemptID, done: make(chan struct{})}
}

func (t *Task) AttemptID() string { return t.attemptID }

func (t *Task) State() State { return State(t.state.Load()) }

// Attempts returns the number of queries issued so far
func (t *Task) Attempts() int { return int(t.attempts.Load()) }

// Stop cancels the task. It is safe to call more than once and after resolution.
func (t *Task) Stop() {
	t.stopped.Store(true)
	if t.cancel != nil {
		t.cancel()
	}
}

// Done is closed when the task leaves the polling state
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task finishes and returns its result
func (t *Task) Wait() Result {
	<-t.done
	return t.result
}

func (t *Task) run(parent context.Context, source StatusSource, opts Options) {
	ctx, cancel := context.WithCancel(parent)
	var timeoutCtx context.Context = ctx
	var cancelTimeout context.CancelFunc = func() {}
	if opts.Timeout > 0 {
		timeoutCtx, cancelTimeout = context.WithTimeout(ctx, opts.Timeout)
	}
	t.cancel = cancel
	t.state.Store(int32(StatePolling))

	go func() {
		defer cancel()
		defer cancelTimeout()
		last, err := t.loop(timeoutCtx, source, opts)
		t.finish(ctx, last, err)
	}()
}

func (t *Task) loop(ctx context.Context, source StatusSource, opts Options) (payment.Status, error) {
	var b backoff.BackOff = backoff.NewConstantBackOff(opts.Interval)
	if opts.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(opts.MaxAttempts-1))
	}
	b = backoff.WithContext(b, ctx)

	var last payment.Status
	op := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		n := int(t.attempts.Add(1))
		status, err := source.Status(ctx, t.attemptID)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("status query: %w", err)
		}
		last = status
		if opts.OnStatus != nil {
			opts.OnStatus(n, status)
		}
		if status.IsTerminal() {
			return nil
		}
		return errStillPending
	}
	notify := func(err error, wait time.Duration) {
		if !errors.Is(err, errStillPending) {
			log.Warn().Err(err).
				Str("attempt_id", t.attemptID).
				Dur("retry_in", wait).
				Msg("status query failed")
		}
	}

	err := backoff.RetryNotify(op, b, notify)
	return last, err
}

func (t *Task) finish(ctx context.Context, last payment.Status, err error) {
	res := Result{
		AttemptID: t.attemptID,
		Status:    last,
		Attempts:  t.Attempts(),
	}

	var state State
	switch {
	case err == nil:
		state = StateResolved
		if last == payment.StatusSucceeded {
			res.Outcome = OutcomeSucceeded
		} else {
			res.Outcome = OutcomeFailed
		}
	case t.stopped.Load() || ctx.Err() != nil:
		// Stop() or the caller's context, not our own deadline.
		state = StateCancelled
		res.Outcome = OutcomeCancelled
		res.Err = context.Canceled
	default:
		state = StateExpired
		res.Outcome = OutcomeExpired
		if errors.Is(err, errStillPending) || errors.Is(err, context.DeadlineExceeded) {
			res.Err = fmt.Errorf("attempt %s unresolved after %d queries", t.attemptID, res.Attempts)
		} else {
			res.Err = err
		}
	}

	t.result = res
	t.state.Store(int32(state))
	close(t.done)

	log.Debug().
		Str("attempt_id", t.attemptID).
		Str("state", state.String()).
		Str("outcome", string(res.Outcome)).
		Int("attempts", res.Attempts).
		Msg("polling finished")
}
