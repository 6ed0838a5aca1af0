package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("broker unavailable")

// fakeClock 手动推进的时钟
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestBreaker(cfg Config) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := New("test", cfg)
	cb.now = clock.Now
	cb.mu.Lock()
	cb.toNewGeneration(clock.Now())
	cb.mu.Unlock()
	return cb, clock
}

func fail(context.Context) error    { return errDown }
func succeed(context.Context) error { return nil }

func TestClosedStaysClosedOnSuccess(t *testing.T) {
	cb, _ := newTestBreaker(Config{})

	for i := 0; i < 10; i++ {
		require.NoError(t, cb.Execute(context.Background(), succeed))
	}
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, uint32(10), cb.Counts().TotalSuccesses)
}

func TestTripsAfterConsecutiveFailures(t *testing.T) {
	cb, _ := newTestBreaker(Config{
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 3 },
	})

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(context.Background(), fail), errDown)
	}
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrOpenState)
	assert.False(t, called)
}

func TestHalfOpenRecovery(t *testing.T) {
	var transitions []string
	cb, clock := newTestBreaker(Config{
		MaxRequests: 2,
		Timeout:     time.Second,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
		OnStateChange: func(_ string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_ = cb.Execute(context.Background(), fail)
	require.Equal(t, StateOpen, cb.State())

	clock.Advance(2 * time.Second)
	assert.Equal(t, StateHalfOpen, cb.State())

	require.NoError(t, cb.Execute(context.Background(), succeed))
	assert.Equal(t, StateHalfOpen, cb.State())
	require.NoError(t, cb.Execute(context.Background(), succeed))
	assert.Equal(t, StateClosed, cb.State())

	assert.Equal(t, []string{"CLOSED->OPEN", "OPEN->HALF_OPEN", "HALF_OPEN->CLOSED"}, transitions)
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb, clock := newTestBreaker(Config{
		Timeout:     time.Second,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
	})

	_ = cb.Execute(context.Background(), fail)
	clock.Advance(2 * time.Second)
	require.Equal(t, StateHalfOpen, cb.State())

	_ = cb.Execute(context.Background(), fail)
	assert.Equal(t, StateOpen, cb.State())
}

func TestIntervalResetsCounts(t *testing.T) {
	cb, clock := newTestBreaker(Config{
		Interval:    10 * time.Second,
		ReadyToTrip: func(c Counts) bool { return c.TotalFailures >= 3 },
	})

	_ = cb.Execute(context.Background(), fail)
	_ = cb.Execute(context.Background(), fail)
	clock.Advance(11 * time.Second)
	_ = cb.Execute(context.Background(), fail)

	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, uint32(1), cb.Counts().TotalFailures)
}

func TestIsSuccessfulIgnoresBusinessErrors(t *testing.T) {
	errBadInput := errors.New("bad input")
	cb, _ := newTestBreaker(Config{
		ReadyToTrip:  func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
		IsSuccessful: func(err error) bool { return err == nil || errors.Is(err, errBadInput) },
	})

	err := cb.Execute(context.Background(), func(context.Context) error { return errBadInput })
	assert.ErrorIs(t, err, errBadInput)
	assert.Equal(t, StateClosed, cb.State())
}

func TestFailureRate(t *testing.T) {
	assert.Equal(t, 0.0, Counts{}.FailureRate())
	assert.Equal(t, 0.25, Counts{Requests: 4, TotalFailures: 1}.FailureRate())
}
