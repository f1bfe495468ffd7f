package internmap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/performancecopilot/pcp-redis-bridge/internal/hashid"
)

func TestMapLookupMiss(t *testing.T) {
	m := New("metric.name")
	_, ok := m.Lookup(hashid.SumString("kernel.all.load"))
	require.False(t, ok)
	require.Equal(t, 0, m.Len())
}

func TestMapInsertThenLookup(t *testing.T) {
	m := New("metric.name")
	id := hashid.SumString("kernel.all.load")
	m.Insert(id, "kernel.all.load")

	s, ok := m.Lookup(id)
	require.True(t, ok)
	require.Equal(t, "kernel.all.load", s)
	require.Equal(t, 1, m.Len())
}

func TestMapInsertIsIdempotent(t *testing.T) {
	m := New("metric.name")
	id := hashid.SumString("kernel.all.load")
	m.Insert(id, "kernel.all.load")
	m.Insert(id, "kernel.all.load")
	require.Equal(t, 1, m.Len())
}

func TestNewRegistryCreatesDistinctGlobalMaps(t *testing.T) {
	r := NewRegistry()
	require.Equal(t, "context.name", r.Context.Name())
	require.Equal(t, "metric.name", r.Names.Name())
	require.Equal(t, "inst.name", r.Inst.Name())
	require.Equal(t, "labels", r.Labels.Name())
}

func TestLabelValueMapIsPerLabelNameAndCached(t *testing.T) {
	r := NewRegistry()
	agentID := hashid.SumString("agent")
	deviceID := hashid.SumString("device")

	agentValues := r.LabelValueMap(agentID)
	require.Equal(t, "label."+agentID.String()+".value", agentValues.Name())

	again := r.LabelValueMap(agentID)
	require.Same(t, agentValues, again, "same label name must reuse the same value map")

	deviceValues := r.LabelValueMap(deviceID)
	require.NotSame(t, agentValues, deviceValues)
}

func TestReleaseLabelValueMapRecreatesLazily(t *testing.T) {
	r := NewRegistry()
	agentID := hashid.SumString("agent")

	first := r.LabelValueMap(agentID)
	first.Insert(hashid.SumString("pmcd"), "pmcd")

	r.ReleaseLabelValueMap(agentID)

	second := r.LabelValueMap(agentID)
	require.NotSame(t, first, second)
	require.Equal(t, 0, second.Len())
}
