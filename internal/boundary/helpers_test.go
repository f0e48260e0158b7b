package boundary

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/config"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/memory"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/pipeline"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/pipeline/lexicon"
)

type fixture struct {
	*Bridge
	tracker *memory.Tracker
	logs    *observer.ObservedLogs
}

func newFixture(t *testing.T, backend pipeline.Backend, opts ...Option) *fixture {
	t.Helper()
	return newFixtureWithConfig(t, config.Default(), backend, opts...)
}

func newFixtureWithConfig(t *testing.T, cfg *config.Config, backend pipeline.Backend, opts ...Option) *fixture {
	t.Helper()

	core, logs := observer.New(zap.DebugLevel)
	tracker := memory.NewTracker(memory.CHeap{})
	opts = append([]Option{WithAllocator(tracker), WithLogger(zap.New(core))}, opts...)

	b, err := New(cfg, backend, opts...)
	require.NoError(t, err)
	return &fixture{Bridge: b, tracker: tracker, logs: logs}
}

func newLexiconFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixture(t, lexicon.New(nil))
}

// requireNoLeaks asserts every allocation made through the fixture was
// released.
func (f *fixture) requireNoLeaks(t *testing.T) {
	t.Helper()
	require.Equal(t, 0, f.LiveHandles(), "live handles")
	require.Equal(t, 0, f.tracker.Live(), "live allocations")
	require.Zero(t, f.tracker.Stats().LiveBytes, "live bytes")
}

// cstr returns a NUL-terminated copy of s.
func cstr(s string) unsafe.Pointer {
	buf := append([]byte(s), 0)
	return unsafe.Pointer(&buf[0])
}

// cstrs returns an array of pointers the way a C caller would pass char**.
func cstrs(items ...unsafe.Pointer) unsafe.Pointer {
	arr := make([]unsafe.Pointer, len(items))
	copy(arr, items)
	return unsafe.Pointer(&arr[0])
}

// gostr reads NUL-terminated text written by the bridge.
func gostr(p *byte) string {
	if p == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(p, n))
}
