// Package id provides ULID-based identifiers for handles and calls.
//
// Handle addresses are meaningless in logs and get reused by the C heap,
// so every handle also carries a prefixed ULID:
//   - Lexicographic sortability: creation order is visible in logs
//   - Prefixed types: the pipeline kind is readable at a glance (sent_*, ner_*)
//   - Monotonic within a millisecond: handles created in a burst stay ordered
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// HandleID identifies one pipeline handle for its whole lifetime
type HandleID string

// CallID identifies one boundary call
type CallID string

const (
	SentimentPrefix      = "sent"
	POSPrefix            = "pos"
	NERPrefix            = "ner"
	QAPrefix             = "qa"
	SummarizationPrefix  = "summ"
	ZeroShotPrefix       = "zsc"
	TranslationPrefix    = "trans"
	TextGenerationPrefix = "gen"
	CallPrefix           = "call"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
	now       func() time.Time
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator with monotonic, cryptographically
// seeded entropy.
func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source
// and clock. Useful for deterministic tests.
func NewGeneratorWithEntropy(entropy io.Reader, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{
		entropy: entropy,
		now:     now,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewHandleID generates a handle ID with the given kind prefix
func (g *Generator) NewHandleID(prefix string) HandleID {
	return HandleID(g.GenerateWithPrefix(prefix))
}

// NewCallID generates a call ID
func (g *Generator) NewCallID() CallID {
	return CallID(g.GenerateWithPrefix(CallPrefix))
}

// NewHandleID generates a handle ID from the default generator
func NewHandleID(prefix string) HandleID {
	return Default().NewHandleID(prefix)
}

// NewCallID generates a call ID from the default generator
func NewCallID() CallID {
	return Default().NewCallID()
}

func (h HandleID) String() string { return string(h) }
func (c CallID) String() string   { return string(c) }

// Prefix returns the kind prefix of a handle ID
func (h HandleID) Prefix() string {
	prefix, _, _ := strings.Cut(string(h), "_")
	return prefix
}

// Created returns the creation time encoded in a handle ID
func (h HandleID) Created() (time.Time, error) {
	return created("handle", string(h))
}

// Created returns the time the call started
func (c CallID) Created() (time.Time, error) {
	return created("call", string(c))
}

// Valid reports whether c is a call prefix followed by a ULID
func (c CallID) Valid() bool {
	prefix, raw, ok := strings.Cut(string(c), "_")
	return ok && prefix == CallPrefix && IsValid(raw)
}

func created(kind, s string) (time.Time, error) {
	_, raw, ok := strings.Cut(s, "_")
	if !ok {
		return time.Time{}, fmt.Errorf("%s id %q has no prefix", kind, s)
	}
	return Timestamp(raw)
}

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Parse parses a ULID string
func Parse(id string) (ulid.ULID, error) {
	return ulid.Parse(id)
}

// Timestamp extracts the timestamp from a ULID
func Timestamp(id string) (time.Time, error) {
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
