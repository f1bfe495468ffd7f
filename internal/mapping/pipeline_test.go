package mapping

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/performancecopilot/pcp-redis-bridge/internal/hashid"
	"github.com/performancecopilot/pcp-redis-bridge/internal/internmap"
	"github.com/performancecopilot/pcp-redis-bridge/internal/slotrouter"
)

func newRouter(t *testing.T) (*miniredis.Miniredis, *slotrouter.Router, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ref := slotrouter.ServerRef{HostSpec: mr.Addr(), Client: client}
	router := slotrouter.New(ref)
	router.InstallStandalone()
	return mr, router, client
}

func awaitDone(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for mapping round to complete")
	}
}

func TestGetMapCacheHitIsSynchronous(t *testing.T) {
	_, router, _ := newRouter(t)
	p := New(router, 100, 10)
	m := internmap.New("metric.name")

	var wg sync.WaitGroup
	wg.Add(1)
	id := p.GetMap(context.Background(), m, "kernel.all.load", wg.Done)
	awaitDone(t, &wg)

	hitFired := false
	id2 := p.GetMap(context.Background(), m, "kernel.all.load", func() { hitFired = true })
	require.True(t, hitFired, "cache hit must invoke onDone synchronously")
	require.Equal(t, id, id2)
}

func TestGetMapNewNameWritesAndPublishes(t *testing.T) {
	_, router, client := newRouter(t)
	p := New(router, 100, 10)
	m := internmap.New("metric.name")

	ctx := context.Background()
	sub := client.Subscribe(ctx, "pcp:channel:metric.name")
	defer sub.Close()
	// Wait for the subscription to register before triggering the publish.
	_, err := sub.Receive(ctx)
	require.NoError(t, err)
	msgs := sub.Channel()

	var wg sync.WaitGroup
	wg.Add(1)
	id := p.GetMap(ctx, m, "kernel.all.load", wg.Done)
	awaitDone(t, &wg)

	val, err := client.HGet(ctx, "pcp:map:metric.name", string(id.Bytes())).Result()
	require.NoError(t, err)
	require.Equal(t, "kernel.all.load", val)

	select {
	case msg := <-msgs:
		require.Equal(t, id.String()+":kernel.all.load", msg.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a publish on the new-mapping channel")
	}
}

func TestGetMapDuplicateOnServerSkipsPublish(t *testing.T) {
	_, router, client := newRouter(t)
	p := New(router, 100, 10)
	m := internmap.New("metric.name")

	ctx := context.Background()
	id := hashid.SumString("kernel.all.load")
	require.NoError(t, client.HSet(ctx, "pcp:map:metric.name", string(id.Bytes()), "kernel.all.load").Err())

	sub := client.Subscribe(ctx, "pcp:channel:metric.name")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)
	msgs := sub.Channel()

	var wg sync.WaitGroup
	wg.Add(1)
	p.GetMap(ctx, m, "kernel.all.load", wg.Done)
	awaitDone(t, &wg)

	select {
	case msg := <-msgs:
		t.Fatalf("unexpected publish for a string the server already had: %v", msg)
	case <-time.After(200 * time.Millisecond):
	}
}
