package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
)

var errFailed = errors.New("failed")

func fail() error    { return errFailed }
func succeed() error { return nil }

func execute(b *Breaker, req func() error) error {
	_, err := Run(b, func() (struct{}, error) {
		return struct{}{}, req()
	})
	return err
}

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		settings      Settings
		requests      []bool // true = success, false = failure
		expectedState State
	}{
		{
			name: "stays closed on successes",
			settings: Settings{
				MaxRequests: 1,
				Interval:    time.Minute,
				Timeout:     time.Minute,
			},
			requests:      []bool{true, true, true},
			expectedState: StateClosed,
		},
		{
			name: "opens after consecutive failures",
			settings: Settings{
				MaxRequests: 1,
				Interval:    time.Minute,
				Timeout:     time.Minute,
				ReadyToTrip: ConsecutiveFailures(3),
			},
			requests:      []bool{false, false, false},
			expectedState: StateOpen,
		},
		{
			name: "success resets the failure run",
			settings: Settings{
				MaxRequests: 1,
				Interval:    time.Minute,
				Timeout:     time.Minute,
				ReadyToTrip: ConsecutiveFailures(2),
			},
			requests:      []bool{false, true, false, true},
			expectedState: StateClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.settings.Clock = clockz.NewFakeClock()
			breaker := New("test", tt.settings)

			for _, success := range tt.requests {
				req := fail
				if success {
					req = succeed
				}
				_ = execute(breaker, req)
			}

			assert.Equal(t, tt.expectedState, breaker.State())
		})
	}
}

func TestBreakerCounts(t *testing.T) {
	breaker := New("test", Settings{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		Clock:       clockz.NewFakeClock(),
	})

	require.NoError(t, execute(breaker, succeed))

	counts := breaker.Counts()
	assert.Equal(t, uint32(1), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalSuccesses)
	assert.Equal(t, uint32(1), counts.ConsecutiveSuccesses)
	assert.Equal(t, uint32(0), counts.TotalFailures)

	assert.ErrorIs(t, execute(breaker, fail), errFailed)

	counts = breaker.Counts()
	assert.Equal(t, uint32(2), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalFailures)
	assert.Equal(t, uint32(1), counts.ConsecutiveFailures)
	assert.Equal(t, uint32(0), counts.ConsecutiveSuccesses)
}

func TestBreakerIntervalClearsCounts(t *testing.T) {
	clock := clockz.NewFakeClock()
	breaker := New("test", Settings{
		Interval:    time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: ConsecutiveFailures(2),
		Clock:       clock,
	})

	assert.Error(t, execute(breaker, fail))
	clock.Advance(2 * time.Minute)
	assert.Error(t, execute(breaker, fail))

	assert.Equal(t, StateClosed, breaker.State())
	assert.Equal(t, uint32(1), breaker.Counts().ConsecutiveFailures)
}

func TestBreakerOpenState(t *testing.T) {
	breaker := New("test", Settings{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: ConsecutiveFailures(2),
		Clock:       clockz.NewFakeClock(),
	})

	for i := 0; i < 2; i++ {
		_ = execute(breaker, fail)
	}
	assert.Equal(t, StateOpen, breaker.State())

	called := false
	err := execute(breaker, func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerHalfOpenState(t *testing.T) {
	clock := clockz.NewFakeClock()
	breaker := New("test", Settings{
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: ConsecutiveFailures(2),
		Clock:       clock,
	})

	for i := 0; i < 2; i++ {
		_ = execute(breaker, fail)
	}
	assert.Equal(t, StateOpen, breaker.State())

	clock.Advance(29 * time.Second)
	assert.Equal(t, StateOpen, breaker.State())

	clock.Advance(2 * time.Second)
	assert.Equal(t, StateHalfOpen, breaker.State())

	for i := 0; i < 2; i++ {
		require.NoError(t, execute(breaker, succeed))
	}
	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	clock := clockz.NewFakeClock()
	breaker := New("test", Settings{
		Timeout:     time.Second,
		ReadyToTrip: ConsecutiveFailures(1),
		Clock:       clock,
	})

	_ = execute(breaker, fail)
	clock.Advance(2 * time.Second)
	require.Equal(t, StateHalfOpen, breaker.State())

	_ = execute(breaker, fail)
	assert.Equal(t, StateOpen, breaker.State())
}

func TestBreakerCallbacks(t *testing.T) {
	var transitions []string
	clock := clockz.NewFakeClock()

	breaker := New("test", Settings{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     10 * time.Second,
		ReadyToTrip: ConsecutiveFailures(2),
		OnStateChange: func(name string, from State, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
		Clock: clock,
	})

	for i := 0; i < 2; i++ {
		_ = execute(breaker, fail)
	}
	clock.Advance(11 * time.Second)
	assert.Equal(t, StateHalfOpen, breaker.State())
	require.NoError(t, execute(breaker, succeed))

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestRun(t *testing.T) {
	breaker := New("test", Settings{Clock: clockz.NewFakeClock()})

	got, err := Run(breaker, func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, got)

	got, err = Run[int](nil, func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestRunRecordsPanicAsFailure(t *testing.T) {
	breaker := New("test", Settings{Clock: clockz.NewFakeClock()})

	assert.Panics(t, func() {
		_, _ = Run(breaker, func() (string, error) { panic("boom") })
	})
	assert.Equal(t, uint32(1), breaker.Counts().TotalFailures)
}
