package monitoring

import (
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"

	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/memory"
)

func TestHandleMetrics(t *testing.T) {
	m := NewMetrics(clockz.NewFakeClock())

	m.RecordHandleCreated("sentiment")
	m.RecordHandleCreated("sentiment")
	m.RecordHandleCreated("qa")
	m.RecordHandleDestroyed("sentiment")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HandlesLive.WithLabelValues("sentiment")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.HandlesCreated.WithLabelValues("sentiment")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HandlesDestroyed.WithLabelValues("sentiment")))

	snap := m.Snapshot()
	assert.Equal(t, map[string]int64{"sentiment": 1, "qa": 1}, snap.Handles)
	assert.Equal(t, int64(3), snap.HandlesCreated)
	assert.Equal(t, int64(1), snap.HandlesDestroyed)
}

func TestCallMetrics(t *testing.T) {
	m := NewMetrics(clockz.NewFakeClock())

	m.RecordCall("ner", "predict", "ok", 10*time.Millisecond)
	m.RecordCall("ner", "predict", "inference", 30*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CallsTotal.WithLabelValues("ner", "predict", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CallsTotal.WithLabelValues("ner", "predict", "inference")))

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Calls)
	assert.Equal(t, int64(1), snap.Failures)
	assert.InDelta(t, 0.02, snap.AverageCallSeconds(), 1e-9)
}

func TestObserveAllocation(t *testing.T) {
	m := NewMetrics(clockz.NewFakeClock())

	m.ObserveAllocation(memory.Event{Kind: memory.EventAlloc, Size: 16})
	m.ObserveAllocation(memory.Event{Kind: memory.EventAlloc, Size: 8})
	m.ObserveAllocation(memory.Event{Kind: memory.EventFree, Size: 16})
	m.ObserveAllocation(memory.Event{Kind: memory.EventRejected})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AllocationsLive))
	assert.Equal(t, 8.0, testutil.ToFloat64(m.BytesLive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RejectedFrees))

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.Allocations)
	assert.Equal(t, int64(8), snap.AllocatedBytes)
	assert.Equal(t, int64(1), snap.RejectedFrees)
}

func TestSnapshotJSON(t *testing.T) {
	clock := clockz.NewFakeClock()
	m := NewMetrics(clock)
	m.RecordHandleCreated("translation")
	clock.Advance(90 * time.Second)

	data, err := m.SnapshotJSON()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, sonic.Unmarshal(data, &decoded))
	assert.Equal(t, 90.0, decoded["uptime_seconds"])
	assert.Equal(t, map[string]interface{}{"translation": 1.0}, decoded["handles"])
}

func TestSnapshotIsACopy(t *testing.T) {
	m := NewMetrics(nil)
	m.RecordHandleCreated("pos")

	snap := m.Snapshot()
	snap.Handles["pos"] = 99
	assert.Equal(t, int64(1), m.Snapshot().Handles["pos"])
}

func TestWriteText(t *testing.T) {
	m := NewMetrics(clockz.NewFakeClock())
	m.RecordHandleCreated("summarization")
	m.RecordCall("summarization", "summarize", "ok", time.Millisecond)

	var sb strings.Builder
	require.NoError(t, m.WriteText(&sb))
	out := sb.String()

	assert.Contains(t, out, "# TYPE nlpbridge_handles_live gauge")
	assert.Contains(t, out, `nlpbridge_handles_live{task="summarization"} 1`)
	assert.Contains(t, out, `nlpbridge_calls_total{operation="summarize",status="ok",task="summarization"} 1`)
	assert.Contains(t, out, "nlpbridge_call_duration_seconds_bucket")
}

func TestPrivateRegistry(t *testing.T) {
	a := NewMetrics(nil)
	b := NewMetrics(nil)
	assert.NotSame(t, a.Registry(), b.Registry())

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		assert.False(t, strings.HasPrefix(mf.GetName(), "nlpbridge_"), mf.GetName())
	}
}
