package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"paysync/internal/domain/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tick = 5 * time.Millisecond

// scripted answers from a fixed sequence, repeating the last entry
type scripted struct {
	mu      sync.Mutex
	answers []answer
	calls   map[string]int
}

type answer struct {
	status payment.Status
	err    error
}

func newScripted(answers ...answer) *scripted {
	return &scripted{answers: answers, calls: map[string]int{}}
}

func (s *scripted) Status(_ context.Context, id string) (payment.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.calls[id]
	s.calls[id]++
	if n >= len(s.answers) {
		n = len(s.answers) - 1
	}
	return s.answers[n].status, s.answers[n].err
}

func (s *scripted) count(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[id]
}

func pending() answer                 { return answer{status: payment.StatusPending} }
func status(st payment.Status) answer { return answer{status: st} }

func waitResult(t *testing.T, task *Task) Result {
	t.Helper()
	select {
	case <-task.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("task did not finish")
	}
	return task.Wait()
}

func TestPollResolvesSucceeded(t *testing.T) {
	src := newScripted(pending(), pending(), status(payment.StatusSucceeded))
	var seen []payment.Status
	p := New(src, Options{Interval: tick, OnStatus: func(_ int, s payment.Status) { seen = append(seen, s) }})

	task, err := p.Start(context.Background(), "pi_1")
	require.NoError(t, err)
	res := waitResult(t, task)

	assert.Equal(t, OutcomeSucceeded, res.Outcome)
	assert.Equal(t, payment.StatusSucceeded, res.Status)
	assert.Equal(t, 3, res.Attempts)
	assert.NoError(t, res.Err)
	assert.Equal(t, StateResolved, task.State())
	assert.Equal(t, []payment.Status{payment.StatusPending, payment.StatusPending, payment.StatusSucceeded}, seen)
}

func TestPollResolvesFailed(t *testing.T) {
	for _, st := range []payment.Status{payment.StatusRequiresPaymentMethod, payment.StatusCanceled} {
		t.Run(string(st), func(t *testing.T) {
			p := New(newScripted(pending(), status(st)), Options{Interval: tick})
			task, err := p.Start(context.Background(), "pi_1")
			require.NoError(t, err)

			res := waitResult(t, task)
			assert.Equal(t, OutcomeFailed, res.Outcome)
			assert.Equal(t, st, res.Status)
			assert.Equal(t, StateResolved, task.State())
		})
	}
}

func TestPollRetriesQueryErrors(t *testing.T) {
	src := newScripted(answer{err: errors.New("connection refused")}, pending(), status(payment.StatusSucceeded))
	p := New(src, Options{Interval: tick})

	task, err := p.Start(context.Background(), "pi_1")
	require.NoError(t, err)
	res := waitResult(t, task)

	assert.Equal(t, OutcomeSucceeded, res.Outcome)
	assert.Equal(t, 3, res.Attempts)
}

func TestStopHaltsQueries(t *testing.T) {
	src := newScripted(pending())
	p := New(src, Options{Interval: tick})

	task, err := p.Start(context.Background(), "pi_1")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return src.count("pi_1") >= 2 }, time.Second, time.Millisecond)

	task.Stop()
	res := waitResult(t, task)
	assert.Equal(t, OutcomeCancelled, res.Outcome)
	assert.Equal(t, StateCancelled, task.State())

	after := src.count("pi_1")
	time.Sleep(10 * tick)
	assert.Equal(t, after, src.count("pi_1"), "no queries after stop")
}

func TestParentContextCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := New(newScripted(pending()), Options{Interval: tick})

	task, err := p.Start(ctx, "pi_1")
	require.NoError(t, err)
	cancel()

	res := waitResult(t, task)
	assert.Equal(t, OutcomeCancelled, res.Outcome)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestCancelledContextIssuesNoQuery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := newScripted(status(payment.StatusSucceeded))

	task, err := New(src, Options{Interval: tick}).Start(ctx, "pi_1")
	require.NoError(t, err)
	res := waitResult(t, task)

	assert.Equal(t, OutcomeCancelled, res.Outcome)
	assert.Zero(t, res.Attempts)
	assert.Zero(t, src.count("pi_1"))
}

func TestTimeoutExpires(t *testing.T) {
	p := New(newScripted(pending()), Options{Interval: tick, Timeout: 30 * time.Millisecond})

	task, err := p.Start(context.Background(), "pi_1")
	require.NoError(t, err)
	res := waitResult(t, task)

	assert.Equal(t, OutcomeExpired, res.Outcome)
	assert.Equal(t, StateExpired, task.State())
	assert.Equal(t, payment.StatusPending, res.Status)
	assert.Error(t, res.Err)
}

func TestMaxAttemptsExpires(t *testing.T) {
	src := newScripted(pending())
	p := New(src, Options{Interval: tick, MaxAttempts: 4})

	task, err := p.Start(context.Background(), "pi_1")
	require.NoError(t, err)
	res := waitResult(t, task)

	assert.Equal(t, OutcomeExpired, res.Outcome)
	assert.Equal(t, 4, res.Attempts)
	assert.Equal(t, 4, src.count("pi_1"))
}

func TestStartingNewTaskStopsPrevious(t *testing.T) {
	src := newScripted(pending())
	p := New(src, Options{Interval: tick})

	first, err := p.Start(context.Background(), "pi_old")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return src.count("pi_old") >= 1 }, time.Second, time.Millisecond)

	second, err := p.Start(context.Background(), "pi_new")
	require.NoError(t, err)

	res := waitResult(t, first)
	assert.Equal(t, OutcomeCancelled, res.Outcome)

	old := src.count("pi_old")
	require.Eventually(t, func() bool { return src.count("pi_new") >= 3 }, time.Second, time.Millisecond)
	assert.Equal(t, old, src.count("pi_old"), "abandoned attempt is not queried")
	assert.Equal(t, StatePolling, second.State())

	p.Stop()
	assert.Equal(t, OutcomeCancelled, waitResult(t, second).Outcome)
}

func TestStartRequiresAttemptID(t *testing.T) {
	_, err := New(newScripted(pending()), Options{}).Start(context.Background(), "")
	assert.Error(t, err)
}

func TestStopAfterResolutionKeepsOutcome(t *testing.T) {
	var calls atomic.Int32
	src := StatusFunc(func(context.Context, string) (payment.Status, error) {
		calls.Add(1)
		return payment.StatusSucceeded, nil
	})
	task, err := New(src, Options{Interval: tick}).Start(context.Background(), "pi_1")
	require.NoError(t, err)

	res := waitResult(t, task)
	task.Stop()
	assert.Equal(t, OutcomeSucceeded, res.Outcome)
	assert.Equal(t, StateResolved, task.State())
	assert.Equal(t, int32(1), calls.Load())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "expired", StateExpired.String())
	assert.Equal(t, "state(9)", State(9).String())
}
