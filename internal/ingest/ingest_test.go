package ingest

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
	"github.com/performancecopilot/pcp-redis-bridge/internal/mapping"
	"github.com/performancecopilot/pcp-redis-bridge/internal/pcpmodel"
	"github.com/performancecopilot/pcp-redis-bridge/internal/slotrouter"
)

func newTestCore(t *testing.T) (*miniredis.Miniredis, *redis.Client, *Core) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ref := slotrouter.ServerRef{HostSpec: mr.Addr(), Client: client}
	router := slotrouter.New(ref)

	ctx := context.Background()
	_, err := Setup(ctx, router, ref, nil)
	require.NoError(t, err)
	require.True(t, router.Covered())

	pipeline := mapping.New(router, 1000, 100)
	maps := internmap.NewRegistry()
	core := New(router, pipeline, maps, nil, nil)
	return mr, client, core
}

func awaitLoad(t *testing.T) (func(), func()) {
	t.Helper()
	var wg sync.WaitGroup
	wg.Add(1)
	return wg.Done, func() {
		done := make(chan struct{})
		go func() { wg.Wait(); close(done) }()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for load to complete")
		}
	}
}

func testContext() *pcpmodel.Context {
	return &pcpmodel.Context{
		Name:     pcpmodel.NameWithSeriesHash("local:", hashid.SumString("source-a")),
		HostID:   "host-a",
		Location: pcpmodel.GeoLocation{Lat: 49.57, Lon: 11.03},
	}
}

func TestLoadScalarMetricWritesMetadataAndStream(t *testing.T) {
	_, client, core := newTestCore(t)
	ctx := context.Background()

	metricName := pcpmodel.NewName("kernel.all.load")
	seriesHash := hashid.SumString("desc:kernel.all.load")
	metric := &pcpmodel.Metric{
		Names: []pcpmodel.Name{pcpmodel.NameWithSeriesHash(metricName.SDS, seriesHash)},
		Desc: pcpmodel.Descriptor{
			PMID:      pcpmodel.PMID{Domain: 60, Cluster: 0, Item: 0},
			Type:      pcpmodel.TypeFloat,
			Semantics: pcpmodel.SemanticsInstant,
		},
		Scalar: pcpmodel.Value{Type: pcpmodel.TypeFloat, F32: 0.25},
	}

	src := testContext()
	done, wait := awaitLoad(t)
	core.Load(ctx, src, true, []Sample{{Metric: metric, Timestamp: 1000, WriteMeta: true, WriteData: true}}, done)
	wait()

	desc, err := client.HGetAll(ctx, keyDescSeries(seriesHash.String())).Result()
	require.NoError(t, err)
	require.Equal(t, "60.0.0", desc["pmid"])
	require.Equal(t, "float", desc["type"])
	require.Equal(t, "none", desc["indom"])

	entries, err := client.XRange(ctx, keyValuesSeries(seriesHash.String()), "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Contains(t, entries[0].Values, "")
}

func TestLoadInstancedMetricWithLabelsWritesPerInstanceKeys(t *testing.T) {
	_, client, core := newTestCore(t)
	ctx := context.Background()

	seriesHash := hashid.SumString("desc:disk.dev.read")
	metric := &pcpmodel.Metric{
		Names: []pcpmodel.Name{pcpmodel.NameWithSeriesHash("disk.dev.read", seriesHash)},
		Desc: pcpmodel.Descriptor{
			PMID:  pcpmodel.PMID{Domain: 4, Cluster: 0, Item: 0},
			Indom: &pcpmodel.Indom{Domain: 4, Serial: 1},
			Type:  pcpmodel.TypeUint64,
		},
		Labels: []pcpmodel.Label{
			{Name: pcpmodel.NewName("agent"), Value: pcpmodel.NewName("pmcd"), Flags: pcpmodel.LabelItem},
		},
		Instances: []pcpmodel.InstanceValue{
			{
				Instance: pcpmodel.Instance{
					Name: pcpmodel.NewName("sda"),
					Inst: 0,
					Labels: []pcpmodel.Label{
						{Name: pcpmodel.NewName("device"), Value: pcpmodel.NewName("sda"), Flags: pcpmodel.LabelInstances},
					},
				},
				Value: pcpmodel.Value{Type: pcpmodel.TypeUint64, U64: 4096},
			},
		},
	}

	src := testContext()
	done, wait := awaitLoad(t)
	core.Load(ctx, src, true, []Sample{{Metric: metric, Timestamp: 2000, WriteMeta: true, WriteData: true}}, done)
	wait()

	instHash := instanceHash(seriesHash, "sda")
	members, err := client.SMembers(ctx, keyInstancesBySeries(seriesHash.String())).Result()
	require.NoError(t, err)
	require.Contains(t, members, string(instHash.Bytes()))

	inst, err := client.HGetAll(ctx, keyInstSeries(instHash.String())).Result()
	require.NoError(t, err)
	require.Equal(t, string(hashid.SumString("sda").Bytes()), inst["name"])
	require.Equal(t, string(src.Name.Hash.Bytes()), inst["source"])

	entries, err := client.XRange(ctx, keyValuesSeries(seriesHash.String()), "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "4096", entries[0].Values[string(instHash.Bytes())])

	// the instance-scoped "device" label's reverse index still points at the
	// metric's series hash, not the instance hash (spec.md §4.7).
	deviceNameID := hashid.SumString("device")
	deviceValueID := hashid.SumString("sda")
	labelMembers, err := client.SMembers(ctx, keySeriesByLabelValue(deviceNameID.String(), deviceValueID.String())).Result()
	require.NoError(t, err)
	require.Equal(t, []string{string(seriesHash.Bytes())}, labelMembers)
}

func TestLoadMetricErrorWritesErrorField(t *testing.T) {
	_, client, core := newTestCore(t)
	ctx := context.Background()

	seriesHash := hashid.SumString("desc:broken.metric")
	metric := &pcpmodel.Metric{
		Names: []pcpmodel.Name{pcpmodel.NameWithSeriesHash("broken.metric", seriesHash)},
		Desc:  pcpmodel.Descriptor{Type: pcpmodel.TypeInt32},
		Error: int32(pcpmodel.PmErrNYI),
	}

	src := testContext()
	done, wait := awaitLoad(t)
	core.Load(ctx, src, true, []Sample{{Metric: metric, Timestamp: 3000, WriteMeta: true, WriteData: true}}, done)
	wait()

	entries, err := client.XRange(ctx, keyValuesSeries(seriesHash.String()), "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "-12346", entries[0].Values["-1"])
}

func TestLoadMultiNameMetricFansOutPerAlias(t *testing.T) {
	_, client, core := newTestCore(t)
	ctx := context.Background()

	hashA := hashid.SumString("desc:kernel.percpu.cpu.user")
	hashB := hashid.SumString("desc:hinv.cpu.user")
	metric := &pcpmodel.Metric{
		Names: []pcpmodel.Name{
			pcpmodel.NameWithSeriesHash("kernel.percpu.cpu.user", hashA),
			pcpmodel.NameWithSeriesHash("hinv.cpu.user", hashB),
		},
		Desc:   pcpmodel.Descriptor{PMID: pcpmodel.PMID{Domain: 60, Cluster: 0, Item: 1}, Type: pcpmodel.TypeInt64},
		Scalar: pcpmodel.Value{Type: pcpmodel.TypeInt64, I64: 7},
	}

	src := testContext()
	done, wait := awaitLoad(t)
	core.Load(ctx, src, true, []Sample{{Metric: metric, Timestamp: 9000, WriteMeta: true, WriteData: true}}, done)
	wait()

	// one descriptor HMSET per alias, not just Names[0].
	for _, h := range []hashid.ID{hashA, hashB} {
		desc, err := client.HGetAll(ctx, keyDescSeries(h.String())).Result()
		require.NoError(t, err)
		require.Equal(t, "60.0.1", desc["pmid"])

		entries, err := client.XRange(ctx, keyValuesSeries(h.String()), "-", "+").Result()
		require.NoError(t, err)
		require.Len(t, entries, 1)
	}

	// the per-source series set carries every alias in one key.
	members, err := client.SMembers(ctx, keySeriesBySource(src.Name.Hash.String())).Result()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{string(hashA.Bytes()), string(hashB.Bytes())}, members)
}

func TestLoadDuplicateTimestampReportsStreamDuplicate(t *testing.T) {
	_, _, core := newTestCore(t)
	ctx := context.Background()

	seriesHash := hashid.SumString("desc:dup.metric")
	metric := &pcpmodel.Metric{
		Names:  []pcpmodel.Name{pcpmodel.NameWithSeriesHash("dup.metric", seriesHash)},
		Desc:   pcpmodel.Descriptor{Type: pcpmodel.TypeInt32},
		Scalar: pcpmodel.Value{Type: pcpmodel.TypeInt32, I32: 1},
	}

	src := testContext()
	done1, wait1 := awaitLoad(t)
	core.Load(ctx, src, true, []Sample{{Metric: metric, Timestamp: 5000, WriteMeta: true, WriteData: true}}, done1)
	wait1()

	var infos []string
	core.info = func(level InfoLevel, msg string) { infos = append(infos, msg) }

	done2, wait2 := awaitLoad(t)
	core.Load(ctx, src, false, []Sample{{Metric: metric, Timestamp: 5000, WriteMeta: false, WriteData: true}}, done2)
	wait2()

	require.NotEmpty(t, infos)
}
