package memory

// #include <stdlib.h>
import "C"

import (
	"errors"
	"fmt"
	"unsafe"
)

var (
	ErrAllocation     = errors.New("allocation failed")
	ErrUnknownPointer = errors.New("pointer was not allocated by this allocator or is already freed")
	ErrTagMismatch    = errors.New("allocation holds a different kind of value")
)

// Allocator hands out memory that foreign callers may hold across calls.
// Alloc returns zeroed memory or nil when the request cannot be served.
type Allocator interface {
	Alloc(size uintptr) unsafe.Pointer
	Free(p unsafe.Pointer) error
}

// Owner is implemented by allocators that can answer liveness questions
// without dereferencing the pointer.
type Owner interface {
	Owns(p unsafe.Pointer) bool
}

// Tagger is implemented by allocators that can label live allocations
// with what they hold, so a release can refuse memory of the wrong shape.
type Tagger interface {
	Tag(p unsafe.Pointer, tag string)
	TagOf(p unsafe.Pointer) (string, bool)
}

// Label tags p when a supports tagging.
func Label(a Allocator, p unsafe.Pointer, tag string) {
	if tagger, ok := a.(Tagger); ok {
		tagger.Tag(p, tag)
	}
}

// CheckTag verifies that p was labelled tag. Allocators without tagging
// accept everything.
func CheckTag(a Allocator, p unsafe.Pointer, tag string) error {
	tagger, ok := a.(Tagger)
	if !ok {
		return nil
	}
	got, live := tagger.TagOf(p)
	if !live {
		return ErrUnknownPointer
	}
	if got != tag {
		return fmt.Errorf("%w: want %s, got %q", ErrTagMismatch, tag, got)
	}
	return nil
}

// CHeap allocates from the C heap. Memory returned here is invisible to
// the Go garbage collector and never moves.
type CHeap struct{}

// Alloc returns size zeroed bytes from calloc.
func (CHeap) Alloc(size uintptr) unsafe.Pointer {
	if size == 0 {
		size = 1
	}
	return C.calloc(1, C.size_t(size))
}

// Free releases p. A nil pointer is a no-op.
func (CHeap) Free(p unsafe.Pointer) error {
	if p != nil {
		C.free(p)
	}
	return nil
}
