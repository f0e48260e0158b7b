package memory

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCHeapAllocIsZeroed(t *testing.T) {
	heap := CHeap{}

	p := heap.Alloc(64)
	require.NotNil(t, p)
	defer heap.Free(p)

	for _, b := range unsafe.Slice((*byte)(p), 64) {
		assert.Zero(t, b)
	}
}

func TestCHeapFreeNil(t *testing.T) {
	assert.NoError(t, CHeap{}.Free(nil))
}

func TestTrackerPairsAllocAndFree(t *testing.T) {
	tracker := NewTracker(CHeap{})

	a := tracker.Alloc(16)
	b := tracker.Alloc(32)
	require.NotNil(t, a)
	require.NotNil(t, b)

	stats := tracker.Stats()
	assert.Equal(t, 2, stats.LiveAllocations)
	assert.Equal(t, uintptr(48), stats.LiveBytes)
	assert.True(t, tracker.Owns(a))

	require.NoError(t, tracker.Free(a))
	require.NoError(t, tracker.Free(b))

	stats = tracker.Stats()
	assert.Zero(t, stats.LiveAllocations)
	assert.Zero(t, stats.LiveBytes)
	assert.Equal(t, uint64(2), stats.TotalAllocations)
	assert.Equal(t, uint64(2), stats.TotalFrees)
	assert.False(t, tracker.Owns(a))
}

func TestTrackerRejectsDoubleFree(t *testing.T) {
	tracker := NewTracker(CHeap{})

	p := tracker.Alloc(8)
	require.NoError(t, tracker.Free(p))

	err := tracker.Free(p)
	assert.ErrorIs(t, err, ErrUnknownPointer)
	assert.Equal(t, uint64(1), tracker.Stats().RejectedFrees)
	assert.Equal(t, uint64(1), tracker.Stats().TotalFrees)
}

func TestTrackerFreeNil(t *testing.T) {
	tracker := NewTracker(CHeap{})

	assert.NoError(t, tracker.Free(nil))
	assert.False(t, tracker.Owns(nil))
	assert.Zero(t, tracker.Stats().RejectedFrees)
}

func TestTrackerSizeOf(t *testing.T) {
	tracker := NewTracker(CHeap{})

	p := tracker.Alloc(24)
	defer tracker.Free(p)

	size, ok := tracker.SizeOf(p)
	assert.True(t, ok)
	assert.Equal(t, uintptr(24), size)
}

func TestTrackerObserver(t *testing.T) {
	tracker := NewTracker(CHeap{})

	var events []Event
	tracker.Observe(func(e Event) {
		events = append(events, e)
	})

	p := tracker.Alloc(10)
	require.NoError(t, tracker.Free(p))
	_ = tracker.Free(p)

	require.Len(t, events, 3)
	assert.Equal(t, Event{Kind: EventAlloc, Size: 10}, events[0])
	assert.Equal(t, Event{Kind: EventFree, Size: 10}, events[1])
	assert.Equal(t, EventRejected, events[2].Kind)
}

func TestTrackerConcurrentUse(t *testing.T) {
	tracker := NewTracker(CHeap{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p := tracker.Alloc(uintptr(j + 1))
				assert.NoError(t, tracker.Free(p))
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, tracker.Live())
	assert.Equal(t, uint64(1600), tracker.Stats().TotalAllocations)
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "alloc", EventAlloc.String())
	assert.Equal(t, "free", EventFree.String())
	assert.Equal(t, "rejected", EventRejected.String())
	assert.Equal(t, "unknown", EventKind(99).String())
}

// recorder counts what reaches the wrapped allocator.
type recorder struct {
	CHeap
	mu    sync.Mutex
	freed []unsafe.Pointer
}

func (r *recorder) Free(p unsafe.Pointer) error {
	r.mu.Lock()
	r.freed = append(r.freed, p)
	r.mu.Unlock()
	return r.CHeap.Free(p)
}

func TestTrackerQuarantineHoldsFreedAddresses(t *testing.T) {
	tracker := NewTracker(CHeap{})

	first := tracker.Alloc(32)
	require.NotNil(t, first)
	require.NoError(t, tracker.Free(first))

	second := tracker.Alloc(32)
	require.NotNil(t, second)
	assert.NotEqual(t, first, second)

	assert.ErrorIs(t, tracker.Free(first), ErrUnknownPointer)
	assert.True(t, tracker.Owns(second))
	require.NoError(t, tracker.Free(second))
	require.NoError(t, tracker.Flush())
}

func TestTrackerQuarantineEviction(t *testing.T) {
	next := &recorder{}
	tracker := NewTracker(next, WithQuarantine(2))

	a := tracker.Alloc(8)
	b := tracker.Alloc(16)
	c := tracker.Alloc(32)

	require.NoError(t, tracker.Free(a))
	require.NoError(t, tracker.Free(b))
	assert.Empty(t, next.freed)

	stats := tracker.Stats()
	assert.Equal(t, 2, stats.Quarantined)
	assert.Equal(t, uintptr(24), stats.QuarantinedBytes)

	require.NoError(t, tracker.Free(c))
	assert.Equal(t, []unsafe.Pointer{a}, next.freed)

	stats = tracker.Stats()
	assert.Equal(t, 2, stats.Quarantined)
	assert.Equal(t, uintptr(48), stats.QuarantinedBytes)

	require.NoError(t, tracker.Flush())
	assert.Equal(t, []unsafe.Pointer{a, b, c}, next.freed)
	assert.Zero(t, tracker.Stats().Quarantined)
	assert.Zero(t, tracker.Stats().QuarantinedBytes)
}

func TestTrackerWithoutQuarantineFreesImmediately(t *testing.T) {
	next := &recorder{}
	tracker := NewTracker(next, WithQuarantine(-1))

	p := tracker.Alloc(8)
	require.NoError(t, tracker.Free(p))
	assert.Equal(t, []unsafe.Pointer{p}, next.freed)
	assert.Zero(t, tracker.Stats().Quarantined)
}

func TestTrackerTags(t *testing.T) {
	tracker := NewTracker(CHeap{})

	p := tracker.Alloc(8)
	_, ok := tracker.TagOf(p)
	require.True(t, ok)

	Label(tracker, p, "text")
	tag, ok := tracker.TagOf(p)
	assert.True(t, ok)
	assert.Equal(t, "text", tag)

	assert.NoError(t, CheckTag(tracker, p, "text"))
	err := CheckTag(tracker, p, "handle")
	assert.ErrorIs(t, err, ErrTagMismatch)
	assert.Contains(t, err.Error(), `want handle, got "text"`)

	require.NoError(t, tracker.Free(p))
	_, ok = tracker.TagOf(p)
	assert.False(t, ok)
	assert.ErrorIs(t, CheckTag(tracker, p, "text"), ErrUnknownPointer)
}

func TestCheckTagWithoutTagger(t *testing.T) {
	p := CHeap{}.Alloc(8)
	defer CHeap{}.Free(p)

	Label(CHeap{}, p, "text")
	assert.NoError(t, CheckTag(CHeap{}, p, "anything"))
}
