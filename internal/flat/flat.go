// Package flat lays variable-length results out as a pointer plus count in
// allocator-owned memory, and releases them in the reverse order.
package flat

import (
	"errors"
	"fmt"
	"unsafe"

	"go.uber.org/multierr"

	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/memory"
)

// ErrForeignPointer is returned when a release targets memory the allocator
// does not own. Nothing is dereferenced in that case.
var ErrForeignPointer = errors.New("result was not produced by this allocator or was already released")

// shape names the record type a box was allocated for.
func shape[T any]() string {
	var zero T
	return fmt.Sprintf("%T", zero)
}

// claim checks that p is a live box of the expected shape before anything
// is dereferenced.
func claim(a memory.Allocator, p unsafe.Pointer, tag string) error {
	if owner, ok := a.(memory.Owner); ok && !owner.Owns(p) {
		return ErrForeignPointer
	}
	return memory.CheckTag(a, p, tag)
}

// Flat mirrors a C struct of the shape { T* data; size_t count; }.
// Data is nil exactly when Count is zero.
type Flat[T any] struct {
	Data  *T
	Count uintptr
}

// Records views the array of a live Flat.
func (f *Flat[T]) Records() []T {
	if f == nil || f.Data == nil || f.Count == 0 {
		return nil
	}
	return unsafe.Slice(f.Data, f.Count)
}

// Export allocates a Flat box and an n-element record array, then fills
// every record in place. n == 0 yields {nil, 0} without allocating an array.
// If fill fails, every record touched so far is dropped, the array and box
// are freed, and the error is returned.
func Export[T any](a memory.Allocator, n int, fill func(i int, rec *T) error, drop func(rec *T)) (unsafe.Pointer, error) {
	var zero Flat[T]
	box := a.Alloc(unsafe.Sizeof(zero))
	if box == nil {
		return nil, fmt.Errorf("result box: %w", memory.ErrAllocation)
	}
	memory.Label(a, box, shape[Flat[T]]())
	out := (*Flat[T])(box)
	out.Data = nil
	out.Count = 0
	if n <= 0 {
		return box, nil
	}

	var rec T
	data := a.Alloc(unsafe.Sizeof(rec) * uintptr(n))
	if data == nil {
		_ = a.Free(box)
		return nil, fmt.Errorf("result array of %d records: %w", n, memory.ErrAllocation)
	}

	recs := unsafe.Slice((*T)(data), n)
	for i := range recs {
		if err := fill(i, &recs[i]); err != nil {
			for j := 0; j <= i; j++ {
				drop(&recs[j])
			}
			_ = a.Free(data)
			_ = a.Free(box)
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}

	out.Data = &recs[0]
	out.Count = uintptr(n)
	return box, nil
}

// Release drops exactly Count records, then frees the array, then the box.
// A nil pointer is a no-op.
func Release[T any](a memory.Allocator, p unsafe.Pointer, drop func(rec *T)) error {
	if p == nil {
		return nil
	}
	if err := claim(a, p, shape[Flat[T]]()); err != nil {
		return err
	}

	f := (*Flat[T])(p)
	var err error
	if f.Data != nil {
		recs := f.Records()
		for i := range recs {
			drop(&recs[i])
		}
		err = multierr.Append(err, a.Free(unsafe.Pointer(f.Data)))
	}
	f.Data = nil
	f.Count = 0
	return multierr.Append(err, a.Free(p))
}

// Box allocates a single record and fills it.
func Box[T any](a memory.Allocator, fill func(rec *T) error, drop func(rec *T)) (unsafe.Pointer, error) {
	var zero T
	p := a.Alloc(unsafe.Sizeof(zero))
	if p == nil {
		return nil, fmt.Errorf("record box: %w", memory.ErrAllocation)
	}
	memory.Label(a, p, shape[T]())
	rec := (*T)(p)
	*rec = zero
	if err := fill(rec); err != nil {
		drop(rec)
		_ = a.Free(p)
		return nil, err
	}
	return p, nil
}

// Unbox drops the record's nested values and frees the box.
func Unbox[T any](a memory.Allocator, p unsafe.Pointer, drop func(rec *T)) error {
	if p == nil {
		return nil
	}
	if err := claim(a, p, shape[T]()); err != nil {
		return err
	}
	drop((*T)(p))
	return a.Free(p)
}
