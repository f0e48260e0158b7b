// Package handle keeps the process-wide registry of live pipeline handles.
//
// A handle is the address of a small C-heap box. The address is the only
// thing a foreign caller ever sees; liveness and kind are answered by a map
// lookup keyed on that address, never by dereferencing it.
package handle

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/zoobzio/clockz"
	"go.uber.org/multierr"

	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/memory"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/shared/id"
)

var (
	ErrNullHandle   = errors.New("handle is null")
	ErrStaleHandle  = errors.New("handle is not live")
	ErrKindMismatch = errors.New("handle belongs to a different pipeline")
)

const boxMagic uint32 = 0x4e4c5042

// box is the C-heap allocation whose address is the handle.
type box struct {
	magic  uint32
	kind   uint32
	serial uint64
}

// Entry is the arena's record of one live handle.
type Entry struct {
	ID      id.HandleID
	Kind    Kind
	Value   any
	Created time.Time

	mu     sync.Mutex
	box    unsafe.Pointer
	closed bool
	status atomic.Int32
}

// Status returns the status code of the last call made through this handle.
func (e *Entry) Status() int32 {
	return e.status.Load()
}

// SetStatus records the status code of a finished call.
func (e *Entry) SetStatus(code int32) {
	e.status.Store(code)
}

// Arena maps handle addresses to entries.
type Arena struct {
	alloc memory.Allocator
	ids   *id.Generator
	clock clockz.Clock

	mu      sync.RWMutex
	entries map[uintptr]*Entry
	serial  uint64
}

// Option configures an Arena.
type Option func(*Arena)

// WithClock sets the clock used for creation timestamps.
func WithClock(clock clockz.Clock) Option {
	return func(a *Arena) { a.clock = clock }
}

// WithIDGenerator sets the handle id generator.
func WithIDGenerator(gen *id.Generator) Option {
	return func(a *Arena) { a.ids = gen }
}

// NewArena creates an empty arena whose boxes come from alloc.
func NewArena(alloc memory.Allocator, opts ...Option) *Arena {
	a := &Arena{
		alloc:   alloc,
		ids:     id.Default(),
		clock:   clockz.RealClock,
		entries: make(map[uintptr]*Entry),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BoxTag labels handle boxes in allocators that support tagging.
const BoxTag = "handle"

// Insert registers v under a fresh handle of the given kind.
func (a *Arena) Insert(kind Kind, v any) (unsafe.Pointer, *Entry, error) {
	p := a.alloc.Alloc(unsafe.Sizeof(box{}))
	if p == nil {
		return nil, nil, memory.ErrAllocation
	}
	memory.Label(a.alloc, p, BoxTag)

	e := &Entry{
		ID:      a.ids.NewHandleID(kind.Prefix()),
		Kind:    kind,
		Value:   v,
		Created: a.clock.Now(),
		box:     p,
	}

	a.mu.Lock()
	a.serial++
	*(*box)(p) = box{magic: boxMagic, kind: uint32(kind), serial: a.serial}
	a.entries[uintptr(p)] = e
	a.mu.Unlock()

	return p, e, nil
}

// Lookup returns the live entry for h. KindAny matches every kind.
func (a *Arena) Lookup(h unsafe.Pointer, kind Kind) (*Entry, error) {
	if h == nil {
		return nil, ErrNullHandle
	}

	a.mu.RLock()
	e, ok := a.entries[uintptr(h)]
	a.mu.RUnlock()

	if !ok {
		return nil, ErrStaleHandle
	}
	if kind != KindAny && e.Kind != kind {
		return e, ErrKindMismatch
	}
	return e, nil
}

// With runs fn while holding the handle's lock. Calls through one handle
// are serialized; calls through different handles are not.
func (a *Arena) With(h unsafe.Pointer, kind Kind, fn func(*Entry) error) error {
	e, err := a.Lookup(h, kind)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrStaleHandle
	}
	return fn(e)
}

// Remove unregisters h, waits for an in-flight call on it to finish and
// frees its box. The entry is returned so the caller can reclaim Value.
// A handle of the wrong kind is left untouched.
func (a *Arena) Remove(h unsafe.Pointer, kind Kind) (*Entry, error) {
	if h == nil {
		return nil, ErrNullHandle
	}

	a.mu.Lock()
	e, ok := a.entries[uintptr(h)]
	if !ok {
		a.mu.Unlock()
		return nil, ErrStaleHandle
	}
	if kind != KindAny && e.Kind != kind {
		a.mu.Unlock()
		return e, ErrKindMismatch
	}
	delete(a.entries, uintptr(h))
	a.mu.Unlock()

	return e, a.retire(e)
}

// Drain removes every live handle and returns their entries.
func (a *Arena) Drain() ([]*Entry, error) {
	a.mu.Lock()
	entries := make([]*Entry, 0, len(a.entries))
	for key, e := range a.entries {
		entries = append(entries, e)
		delete(a.entries, key)
	}
	a.mu.Unlock()

	var err error
	for _, e := range entries {
		err = multierr.Append(err, a.retire(e))
	}
	return entries, err
}

// Len returns the number of live handles.
func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.entries)
}

// CountByKind returns the number of live handles per kind.
func (a *Arena) CountByKind() map[Kind]int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	counts := make(map[Kind]int, len(Kinds))
	for _, e := range a.entries {
		counts[e.Kind]++
	}
	return counts
}

func (a *Arena) retire(e *Entry) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	p := e.box
	e.box = nil
	return a.alloc.Free(p)
}
