package testutil

import (
	"sync"
	"unsafe"

	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/memory"
)

// LimitedAllocator serves a fixed number of allocations and then fails.
// Frees always pass through.
type LimitedAllocator struct {
	next memory.Allocator

	mu        sync.Mutex
	remaining int
}

// NewLimitedAllocator allows budget successful allocations from next.
func NewLimitedAllocator(next memory.Allocator, budget int) *LimitedAllocator {
	return &LimitedAllocator{next: next, remaining: budget}
}

// Alloc implements memory.Allocator.
func (l *LimitedAllocator) Alloc(size uintptr) unsafe.Pointer {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.remaining <= 0 {
		return nil
	}
	l.remaining--
	return l.next.Alloc(size)
}

// Free implements memory.Allocator.
func (l *LimitedAllocator) Free(p unsafe.Pointer) error {
	return l.next.Free(p)
}

// Owns forwards to the wrapped allocator when it tracks ownership.
func (l *LimitedAllocator) Owns(p unsafe.Pointer) bool {
	if owner, ok := l.next.(memory.Owner); ok {
		return owner.Owns(p)
	}
	return true
}

// Tag forwards to the wrapped allocator when it labels allocations.
func (l *LimitedAllocator) Tag(p unsafe.Pointer, tag string) {
	memory.Label(l.next, p, tag)
}

// TagOf forwards to the wrapped allocator when it labels allocations.
func (l *LimitedAllocator) TagOf(p unsafe.Pointer) (string, bool) {
	tagger, ok := l.next.(memory.Tagger)
	if !ok {
		return "", false
	}
	return tagger.TagOf(p)
}

// SetBudget replaces the remaining allocation budget.
func (l *LimitedAllocator) SetBudget(n int) {
	l.mu.Lock()
	l.remaining = n
	l.mu.Unlock()
}
