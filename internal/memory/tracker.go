package memory

import (
	"sync"
	"unsafe"

	"go.uber.org/multierr"
)

// EventKind identifies what happened to an allocation.
type EventKind int

const (
	EventAlloc EventKind = iota
	EventFree
	EventRejected
)

// String returns the string representation of the event kind
func (k EventKind) String() string {
	switch k {
	case EventAlloc:
		return "alloc"
	case EventFree:
		return "free"
	case EventRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Event is delivered to observers after every tracked operation.
type Event struct {
	Kind EventKind
	Size uintptr
}

// Stats is a point-in-time view of a Tracker.
type Stats struct {
	LiveAllocations  int     `json:"live_allocations"`
	LiveBytes        uintptr `json:"live_bytes"`
	TotalAllocations uint64  `json:"total_allocations"`
	TotalFrees       uint64  `json:"total_frees"`
	RejectedFrees    uint64  `json:"rejected_frees"`
	FailedAllocs     uint64  `json:"failed_allocations"`
	Quarantined      int     `json:"quarantined"`
	QuarantinedBytes uintptr `json:"quarantined_bytes"`
}

// DefaultQuarantine is the number of freed blocks a Tracker holds back
// from the underlying allocator.
const DefaultQuarantine = 4096

type block struct {
	size uintptr
	tag  string
}

type retired struct {
	p    unsafe.Pointer
	size uintptr
}

// Tracker wraps an Allocator and records every live allocation by address.
// Freeing an address it did not hand out is rejected before the underlying
// allocator sees it, which turns double frees into reported no-ops.
//
// Freed blocks are quarantined: they stay allocated underneath until
// capacity newer frees have pushed them out. While a block is quarantined
// its address cannot be handed out again, so a stale free of it is still
// rejected instead of releasing whatever reused the address.
type Tracker struct {
	next     Allocator
	capacity int

	mu         sync.Mutex
	live       map[uintptr]block
	quarantine []retired
	stats      Stats
	observer   func(Event)
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithQuarantine sets how many freed blocks are held back. Zero frees
// immediately.
func WithQuarantine(n int) TrackerOption {
	return func(t *Tracker) {
		if n < 0 {
			n = 0
		}
		t.capacity = n
	}
}

// NewTracker wraps next.
func NewTracker(next Allocator, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		next:     next,
		capacity: DefaultQuarantine,
		live:     make(map[uintptr]block),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Observe registers fn to be called after every allocation event.
// fn runs outside the tracker lock.
func (t *Tracker) Observe(fn func(Event)) {
	t.mu.Lock()
	t.observer = fn
	t.mu.Unlock()
}

// Alloc implements Allocator.
func (t *Tracker) Alloc(size uintptr) unsafe.Pointer {
	p := t.next.Alloc(size)

	t.mu.Lock()
	if p == nil {
		t.stats.FailedAllocs++
		t.mu.Unlock()
		return nil
	}
	t.live[uintptr(p)] = block{size: size}
	t.stats.LiveAllocations++
	t.stats.LiveBytes += size
	t.stats.TotalAllocations++
	observer := t.observer
	t.mu.Unlock()

	if observer != nil {
		observer(Event{Kind: EventAlloc, Size: size})
	}
	return p
}

// Free implements Allocator. Unknown pointers return ErrUnknownPointer
// and are never passed on.
func (t *Tracker) Free(p unsafe.Pointer) error {
	if p == nil {
		return nil
	}

	t.mu.Lock()
	b, ok := t.live[uintptr(p)]
	if !ok {
		t.stats.RejectedFrees++
		observer := t.observer
		t.mu.Unlock()
		if observer != nil {
			observer(Event{Kind: EventRejected})
		}
		return ErrUnknownPointer
	}
	delete(t.live, uintptr(p))
	t.stats.LiveAllocations--
	t.stats.LiveBytes -= b.size
	t.stats.TotalFrees++
	evicted := t.retire(p, b.size)
	observer := t.observer
	t.mu.Unlock()

	var err error
	for _, r := range evicted {
		err = multierr.Append(err, t.next.Free(r.p))
	}
	if err != nil {
		return err
	}
	if observer != nil {
		observer(Event{Kind: EventFree, Size: b.size})
	}
	return nil
}

// retire queues p and returns the blocks pushed out of the quarantine.
// Callers hold t.mu.
func (t *Tracker) retire(p unsafe.Pointer, size uintptr) []retired {
	t.quarantine = append(t.quarantine, retired{p: p, size: size})
	t.stats.Quarantined++
	t.stats.QuarantinedBytes += size

	n := len(t.quarantine) - t.capacity
	if n <= 0 {
		return nil
	}
	evicted := make([]retired, n)
	copy(evicted, t.quarantine[:n])
	t.quarantine = append(t.quarantine[:0], t.quarantine[n:]...)
	for _, r := range evicted {
		t.stats.Quarantined--
		t.stats.QuarantinedBytes -= r.size
	}
	return evicted
}

// Flush returns every quarantined block to the underlying allocator.
func (t *Tracker) Flush() error {
	t.mu.Lock()
	blocks := t.quarantine
	t.quarantine = nil
	t.stats.Quarantined = 0
	t.stats.QuarantinedBytes = 0
	t.mu.Unlock()

	var err error
	for _, r := range blocks {
		err = multierr.Append(err, t.next.Free(r.p))
	}
	return err
}

// Owns reports whether p is a live allocation of this tracker.
func (t *Tracker) Owns(p unsafe.Pointer) bool {
	if p == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.live[uintptr(p)]
	return ok
}

// SizeOf returns the requested size of a live allocation.
func (t *Tracker) SizeOf(p unsafe.Pointer) (uintptr, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.live[uintptr(p)]
	return b.size, ok
}

// Tag labels a live allocation with what it holds. Unknown pointers are
// ignored.
func (t *Tracker) Tag(p unsafe.Pointer, tag string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if b, ok := t.live[uintptr(p)]; ok {
		b.tag = tag
		t.live[uintptr(p)] = b
	}
}

// TagOf returns the label of a live allocation.
func (t *Tracker) TagOf(p unsafe.Pointer) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.live[uintptr(p)]
	return b.tag, ok
}

// Stats returns a copy of the current counters.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

// Live returns the number of outstanding allocations.
func (t *Tracker) Live() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats.LiveAllocations
}
