package slotrouter

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/performancecopilot/pcp-redis-bridge/internal/command"
)

func newTestServer(t *testing.T) (*miniredis.Miniredis, ServerRef) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, ServerRef{HostSpec: mr.Addr(), Client: client}
}

func TestBootstrapStandaloneInstallsSingleRange(t *testing.T) {
	_, control := newTestServer(t)
	router := New(control)

	result, err := Bootstrap(context.Background(), router, control, nil)
	require.NoError(t, err)
	require.True(t, result.Standalone)
	require.True(t, router.Covered())

	rg, ok := router.RangeFor(0)
	require.True(t, ok)
	require.Equal(t, 0, rg.Start)
	require.Equal(t, MaxSlots-1, rg.End)

	// miniredis has no version key yet: bootstrap must write it.
	v, err := control.Client.Get(context.Background(), schemaVersionKey).Result()
	require.NoError(t, err)
	require.Equal(t, SchemaVersion, v)
	require.Equal(t, 0, result.SchemaVersion)
}

func TestBootstrapRejectsWrongSchemaVersion(t *testing.T) {
	mr, control := newTestServer(t)
	require.NoError(t, mr.Set(schemaVersionKey, "1"))

	router := New(control)
	var gotInfo string
	result, err := Bootstrap(context.Background(), router, control, func(level InfoLevel, msg string) {
		if level == InfoRequestError {
			gotInfo = msg
		}
	})
	require.NoError(t, err)
	require.Equal(t, -1, result.SchemaVersion)
	require.Contains(t, gotInfo, "unsupported schema")
}

func TestBootstrapAcceptsMatchingSchemaVersion(t *testing.T) {
	mr, control := newTestServer(t)
	require.NoError(t, mr.Set(schemaVersionKey, SchemaVersion))

	router := New(control)
	result, err := Bootstrap(context.Background(), router, control, nil)
	require.NoError(t, err)
	require.Equal(t, 2, result.SchemaVersion)
}

func TestRequestRoutesKeylessToControl(t *testing.T) {
	_, control := newTestServer(t)
	router := New(control)
	router.InstallStandalone()

	done := make(chan Reply, 1)
	router.Request(context.Background(), command.BuildKeyless("PING"), func(r Reply) { done <- r })

	select {
	case r := <-done:
		require.NoError(t, r.Err)
		require.Equal(t, "PONG", r.Value)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reply")
	}
}

func TestRequestUnroutableSlotYieldsSlotNotCovered(t *testing.T) {
	_, control := newTestServer(t)
	router := New(control) // no ranges installed at all

	done := make(chan Reply, 1)
	router.Request(context.Background(), command.Build("GET", "pcp:version:schema"), func(r Reply) { done <- r })

	r := <-done
	require.ErrorIs(t, r.Err, ErrSlotNotCovered)
}
