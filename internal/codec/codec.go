// Package codec converts text between caller-owned NUL-terminated byte
// buffers and Go strings.
package codec

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
	"unsafe"

	"github.com/saintfish/chardet"

	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/memory"
)

// DefaultMaxBytes bounds the scan for a terminator on borrowed text.
const DefaultMaxBytes = 1 << 20

var (
	ErrNullPointer = errors.New("text pointer is null")
	ErrInvalidUTF8 = errors.New("text is not valid UTF-8")
	ErrEmbeddedNUL = errors.New("text contains an embedded NUL byte")
	ErrTooLong     = errors.New("text exceeds maximum length")
)

// EncodingError describes borrowed text that failed UTF-8 validation.
// Charset is a best guess for diagnostics only.
type EncodingError struct {
	Offset     int
	Charset    string
	Confidence int
}

func (e *EncodingError) Error() string {
	if e.Charset == "" {
		return fmt.Sprintf("text is not valid UTF-8 (invalid byte at offset %d)", e.Offset)
	}
	return fmt.Sprintf("text is not valid UTF-8 (invalid byte at offset %d, looks like %s)", e.Offset, e.Charset)
}

func (e *EncodingError) Unwrap() error { return ErrInvalidUTF8 }

// TextTag labels allocations made by Encode.
const TextTag = "text"

// Codec decodes borrowed text and encodes owned text against one allocator.
type Codec struct {
	alloc    memory.Allocator
	maxBytes int
}

// New returns a codec. maxBytes <= 0 selects DefaultMaxBytes.
func New(alloc memory.Allocator, maxBytes int) *Codec {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Codec{alloc: alloc, maxBytes: maxBytes}
}

// Allocator returns the allocator owned text is drawn from.
func (c *Codec) Allocator() memory.Allocator {
	return c.alloc
}

// Decode copies the NUL-terminated text at p into a Go string.
// The caller keeps ownership of p.
func (c *Codec) Decode(p unsafe.Pointer) (string, error) {
	if p == nil {
		return "", ErrNullPointer
	}

	n := 0
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
		if n > c.maxBytes {
			return "", fmt.Errorf("%w: more than %d bytes", ErrTooLong, c.maxBytes)
		}
	}

	raw := unsafe.Slice((*byte)(p), n)
	if !utf8.Valid(raw) {
		return "", describeInvalid(raw)
	}
	return string(raw), nil
}

// DecodeOptional is Decode for arguments where NULL means absent.
func (c *Codec) DecodeOptional(p unsafe.Pointer) (string, bool, error) {
	if p == nil {
		return "", false, nil
	}
	s, err := c.Decode(p)
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}

// DecodeArray decodes n borrowed texts from the pointer array at p.
// Entries that fail to decode are skipped and counted in dropped.
func (c *Codec) DecodeArray(p unsafe.Pointer, n int) (texts []string, dropped int) {
	if p == nil || n <= 0 {
		return nil, 0
	}
	for _, item := range unsafe.Slice((*unsafe.Pointer)(p), n) {
		s, err := c.Decode(item)
		if err != nil {
			dropped++
			continue
		}
		texts = append(texts, s)
	}
	return texts, dropped
}

// Encode copies s into freshly allocated NUL-terminated memory.
// The result must be released with Release.
func (c *Codec) Encode(s string) (*byte, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return nil, ErrEmbeddedNUL
	}

	p := c.alloc.Alloc(uintptr(len(s) + 1))
	if p == nil {
		return nil, fmt.Errorf("encode %d bytes: %w", len(s)+1, memory.ErrAllocation)
	}
	memory.Label(c.alloc, p, TextTag)
	buf := unsafe.Slice((*byte)(p), len(s)+1)
	copy(buf, s)
	buf[len(s)] = 0
	return (*byte)(p), nil
}

// Release frees text produced by Encode. Nil is a no-op. Memory holding
// anything other than text is refused.
func (c *Codec) Release(p *byte) error {
	if p == nil {
		return nil
	}
	if err := memory.CheckTag(c.alloc, unsafe.Pointer(p), TextTag); errors.Is(err, memory.ErrTagMismatch) {
		return err
	}
	return c.alloc.Free(unsafe.Pointer(p))
}

func describeInvalid(raw []byte) error {
	offset := 0
	for offset < len(raw) {
		r, size := utf8.DecodeRune(raw[offset:])
		if r == utf8.RuneError && size <= 1 {
			break
		}
		offset += size
	}

	encErr := &EncodingError{Offset: offset}
	if result, err := chardet.NewTextDetector().DetectBest(raw); err == nil && result != nil {
		encErr.Charset = result.Charset
		encErr.Confidence = result.Confidence
	}
	return encErr
}
