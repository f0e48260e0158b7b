package main

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/boundary"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/config"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/pipeline"
)

func cstr(s string) unsafe.Pointer {
	buf := append([]byte(s), 0)
	return unsafe.Pointer(&buf[0])
}

func gostr(p unsafe.Pointer) string {
	if p == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(p), n))
}

func lexiconRuntime(t *testing.T) *runtime {
	t.Helper()
	return newRuntime(func() (*boundary.Bridge, error) {
		return build(config.Default(), zap.NewNop())
	})
}

func TestLayoutMatchesHeader(t *testing.T) {
	require.NoError(t, checkLayout())
	assert.Len(t, layouts(), 10)
}

func TestLayoutCheckReportsMismatch(t *testing.T) {
	l := layout{
		name:   "Example",
		header: shape{size: 16, offsets: []uintptr{0, 8}},
		record: shape{size: 16, offsets: []uintptr{0, 4}},
	}
	assert.EqualError(t, l.check(), "Example: field 1 at offset 8 in header, 4 in record")

	l.record = shape{size: 24, offsets: []uintptr{0, 8}}
	assert.EqualError(t, l.check(), "Example: header size 16, record size 24")
}

func TestBuildRejectsUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Backend.Name = "onnx"

	_, err := build(cfg, zap.NewNop())
	assert.ErrorIs(t, err, pipeline.ErrUnknownBackend)
}

func TestFailedInitializationIsReported(t *testing.T) {
	starts := 0
	r := newRuntime(func() (*boundary.Bridge, error) {
		starts++
		return nil, errors.New("layout mismatch")
	})

	assert.Nil(t, r.create(sentimentTask, nil))
	assert.Nil(t, r.call(func(b *boundary.Bridge) (unsafe.Pointer, error) {
		t.Fatal("operation ran without a bridge")
		return nil, nil
	}))
	r.destroy(sentimentTask, nil)
	r.release(sentimentTask, nil)

	code, msg := r.lastError()
	assert.Equal(t, boundary.NotInitialized, code)
	assert.Contains(t, msg, "layout mismatch")
	assert.Equal(t, boundary.NotInitialized, r.handleStatus(cstr("not a handle")))
	assert.Zero(t, r.liveHandles())
	assert.Zero(t, r.liveAllocations())

	p := r.lastErrorMessage()
	require.NotNil(t, p)
	assert.Contains(t, gostr(p), "not initialized")
	r.freeString(p)

	assert.Equal(t, 1, starts)
}

func TestRuntimeLifecycle(t *testing.T) {
	r := lexiconRuntime(t)

	h := r.create(sentimentTask, nil)
	require.NotNil(t, h)
	assert.Equal(t, 1, r.liveHandles())

	p := r.call(func(b *boundary.Bridge) (unsafe.Pointer, error) {
		return b.PredictSentiment(h, cstr("I love this product"))
	})
	require.NotNil(t, p)
	assert.Equal(t, "POSITIVE", gostr(unsafe.Pointer((*boundary.SentimentRecord)(p).Label)))
	assert.Equal(t, boundary.OK, r.handleStatus(h))

	r.release(sentimentTask, p)
	r.destroy(sentimentTask, h)

	assert.Zero(t, r.liveHandles())
	assert.Zero(t, r.liveAllocations())
}

func TestRuntimeRecordsCallFailures(t *testing.T) {
	r := lexiconRuntime(t)

	h := r.create(nerTask, nil)
	require.NotNil(t, h)

	assert.Nil(t, r.call(func(b *boundary.Bridge) (unsafe.Pointer, error) {
		return b.PredictNER(h, nil)
	}))
	code, _ := r.lastError()
	assert.Equal(t, boundary.NullArgument, code)
	assert.Equal(t, boundary.NullArgument, r.handleStatus(h))

	msg := r.lastErrorMessage()
	require.NotNil(t, msg)
	assert.Equal(t, "ner predict: text pointer is null", gostr(msg))
	r.freeString(msg)

	r.destroy(sentimentTask, h)
	code, _ = r.lastError()
	assert.Equal(t, boundary.WrongHandleKind, code)
	assert.Equal(t, 1, r.liveHandles())

	r.destroy(nerTask, h)
	r.destroy(nerTask, h)
	code, _ = r.lastError()
	assert.Equal(t, boundary.StaleHandle, code)

	assert.Zero(t, r.liveHandles())
	assert.Zero(t, r.liveAllocations())
}

func TestRuntimeFromFiles(t *testing.T) {
	r := lexiconRuntime(t)

	h := r.createFromFiles(zeroShotTask, nil, nil, nil, nil, 0)
	require.NotNil(t, h)
	r.destroy(zeroShotTask, h)

	assert.Nil(t, r.createFromFiles(zeroShotTask, cstr("/does/not/exist"), nil, nil, nil, 0))
	code, _ := r.lastError()
	assert.Equal(t, boundary.Construction, code)

	assert.Nil(t, r.createFromFiles(zeroShotTask, cstr("model\xff"), nil, nil, nil, 0))
	code, _ = r.lastError()
	assert.Equal(t, boundary.InvalidUTF8, code)

	assert.Zero(t, r.liveHandles())
	assert.Zero(t, r.liveAllocations())
}

func TestRuntimeIntrospection(t *testing.T) {
	r := lexiconRuntime(t)

	for _, op := range []func(*boundary.Bridge) (unsafe.Pointer, error){
		(*boundary.Bridge).VersionText,
		(*boundary.Bridge).StatsText,
		(*boundary.Bridge).MetricsText,
	} {
		p := r.call(op)
		require.NotNil(t, p)
		assert.NotEmpty(t, gostr(p))
		r.freeString(p)
	}

	p := r.call((*boundary.Bridge).VersionText)
	assert.Equal(t, boundary.Version, gostr(p))
	r.freeString(p)

	assert.Zero(t, r.liveAllocations())
}
