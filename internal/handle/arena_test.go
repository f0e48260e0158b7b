package handle

import (
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"

	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/memory"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/testutil"
)

func newArena(t *testing.T) (*Arena, *memory.Tracker) {
	t.Helper()
	tracker := memory.NewTracker(memory.CHeap{})
	return NewArena(tracker), tracker
}

func TestInsertAndLookup(t *testing.T) {
	arena, tracker := newArena(t)

	h, e, err := arena.Insert(KindSentiment, "model")
	require.NoError(t, err)
	require.NotNil(t, h)

	assert.True(t, strings.HasPrefix(e.ID.String(), "sent_"))
	assert.Equal(t, 1, arena.Len())
	assert.Equal(t, 1, tracker.Live())

	got, err := arena.Lookup(h, KindSentiment)
	require.NoError(t, err)
	assert.Same(t, e, got)
	assert.Equal(t, "model", got.Value)

	_, err = arena.Lookup(h, KindAny)
	assert.NoError(t, err)
}

func TestLookupErrors(t *testing.T) {
	arena, _ := newArena(t)

	_, err := arena.Lookup(nil, KindNER)
	assert.ErrorIs(t, err, ErrNullHandle)

	h, _, err := arena.Insert(KindNER, struct{}{})
	require.NoError(t, err)

	_, err = arena.Lookup(h, KindQA)
	assert.ErrorIs(t, err, ErrKindMismatch)

	_, err = arena.Remove(h, KindNER)
	require.NoError(t, err)

	_, err = arena.Lookup(h, KindNER)
	assert.ErrorIs(t, err, ErrStaleHandle)
}

func TestRemoveFreesBoxExactlyOnce(t *testing.T) {
	arena, tracker := newArena(t)

	h, _, err := arena.Insert(KindQA, 1)
	require.NoError(t, err)

	e, err := arena.Remove(h, KindQA)
	require.NoError(t, err)
	assert.Equal(t, 1, e.Value)
	assert.Zero(t, tracker.Live())

	_, err = arena.Remove(h, KindQA)
	assert.ErrorIs(t, err, ErrStaleHandle)
	assert.Zero(t, tracker.Stats().RejectedFrees)

	_, err = arena.Remove(nil, KindQA)
	assert.ErrorIs(t, err, ErrNullHandle)
}

func TestRemoveWrongKindKeepsHandle(t *testing.T) {
	arena, tracker := newArena(t)

	h, _, err := arena.Insert(KindTranslation, 1)
	require.NoError(t, err)

	_, err = arena.Remove(h, KindTextGeneration)
	assert.ErrorIs(t, err, ErrKindMismatch)
	assert.Equal(t, 1, arena.Len())
	assert.Equal(t, 1, tracker.Live())

	_, err = arena.Remove(h, KindTranslation)
	assert.NoError(t, err)
}

func TestWithSerializesCallsOnOneHandle(t *testing.T) {
	arena, _ := newArena(t)

	h, _, err := arena.Insert(KindPOS, nil)
	require.NoError(t, err)

	var inFlight, maxInFlight atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := arena.With(h, KindPOS, func(*Entry) error {
				n := inFlight.Add(1)
				for {
					m := maxInFlight.Load()
					if n <= m || maxInFlight.CompareAndSwap(m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				inFlight.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInFlight.Load())
}

func TestRemoveWaitsForInFlightCall(t *testing.T) {
	arena, tracker := newArena(t)

	h, _, err := arena.Insert(KindSummarization, nil)
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		_ = arena.With(h, KindSummarization, func(*Entry) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	removed := make(chan struct{})
	go func() {
		defer close(removed)
		_, err := arena.Remove(h, KindSummarization)
		assert.NoError(t, err)
	}()

	select {
	case <-removed:
		t.Fatal("remove returned while a call was in flight")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-done
	<-removed
	assert.Zero(t, tracker.Live())

	err = arena.With(h, KindSummarization, func(*Entry) error {
		t.Fatal("callback ran on a removed handle")
		return nil
	})
	assert.ErrorIs(t, err, ErrStaleHandle)
}

func TestDrain(t *testing.T) {
	arena, tracker := newArena(t)

	for _, kind := range Kinds {
		_, _, err := arena.Insert(kind, kind.String())
		require.NoError(t, err)
	}
	counts := arena.CountByKind()
	for _, kind := range Kinds {
		assert.Equal(t, 1, counts[kind], kind.String())
	}

	entries, err := arena.Drain()
	require.NoError(t, err)
	assert.Len(t, entries, len(Kinds))
	assert.Zero(t, arena.Len())
	assert.Zero(t, tracker.Live())
}

func TestInsertAllocationFailure(t *testing.T) {
	arena := NewArena(testutil.NewLimitedAllocator(memory.CHeap{}, 0))

	h, e, err := arena.Insert(KindSentiment, nil)
	assert.Nil(t, h)
	assert.Nil(t, e)
	assert.ErrorIs(t, err, memory.ErrAllocation)
}

func TestEntryStatusAndClock(t *testing.T) {
	clock := clockz.NewFakeClock()
	arena := NewArena(memory.NewTracker(memory.CHeap{}), WithClock(clock))

	_, e, err := arena.Insert(KindZeroShot, nil)
	require.NoError(t, err)
	assert.Equal(t, clock.Now(), e.Created)

	assert.Zero(t, e.Status())
	e.SetStatus(8)
	assert.Equal(t, int32(8), e.Status())
}

func TestKindStrings(t *testing.T) {
	seen := map[string]bool{}
	for _, kind := range Kinds {
		assert.NotEqual(t, "unknown", kind.String())
		assert.NotEqual(t, "h", kind.Prefix())
		seen[kind.Prefix()] = true
	}
	assert.Len(t, seen, len(Kinds))
	assert.Equal(t, "unknown", Kind(42).String())
}
