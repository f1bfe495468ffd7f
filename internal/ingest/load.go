// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pcp-redis-bridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ingest

import (
	"context"

	"github.com/performancecopilot/pcp-redis-bridge/internal/pcpmodel"
	"github.com/performancecopilot/pcp-redis-bridge/internal/slotrouter"
	"github.com/performancecopilot/pcp-redis-bridge/internal/token"
	"github.com/performancecopilot/pcp-redis-bridge/log"
)

// Sample is one metric's contribution to a Load call: the sample itself,
// its PCP timestamp, and the two flags spec.md §6 names on the ingest
// surface. WriteMeta is set the first time a metric (or its descriptor) is
// seen by the caller, or after a schema change; WriteData is set whenever
// the caller wants the current value appended to the metric's stream.
// Setting neither is legal (a sighted-but-unchanged, unsampled metric) and
// is a no-op.
type Sample struct {
	Metric    *pcpmodel.Metric
	Timestamp int64
	WriteMeta bool
	WriteData bool
}

// Load is the ingest surface of spec.md §6: one Load Context batches a
// source plus a set of per-metric samples into a single Load token, firing
// onDone once every command fanned out for the batch — source indexes,
// metric/instance/label metadata, and stream appends alike — has replied.
// writeSource should be true only on a context's first Load (or after a
// source's location/identity changes); every call still reuses the same
// MappingPipeline and SlotRouter, so repeating it is safe, just redundant.
func (c *Core) Load(ctx context.Context, source *pcpmodel.Context, writeSource bool, samples []Sample, onDone func()) *token.Token {
	c.metrics.loadsInFlight.Inc()
	tok := token.New(token.KindLoad, func() {
		c.metrics.loadsInFlight.Dec()
		if onDone != nil {
			onDone()
		}
	})
	log.Debugf("[INGEST]> load %s: source=%s samples=%d", tok.ID, source.Name.SDS, len(samples))

	if writeSource {
		c.WriteSource(ctx, source, tok)
	}

	for _, s := range samples {
		if s.WriteMeta {
			c.WriteMetric(ctx, source, s.Metric, tok)
		}
		if s.WriteData {
			c.WriteSample(ctx, s.Timestamp, s.Metric, tok)
		}
	}

	tok.Release("creation")
	return tok
}

// Setup performs the on_setup half of spec.md §6: bootstrap the backend's
// slot topology and schema version against control, install the resulting
// table into router, and report the outcome through info. It returns the
// bootstrap result so the caller can decide whether a schema mismatch (-1)
// is fatal for its deployment, matching the source's "on_setup still fires
// on a version mismatch" behavior.
func Setup(ctx context.Context, router *slotrouter.Router, control slotrouter.ServerRef, info InfoFunc) (*slotrouter.BootstrapResult, error) {
	return slotrouter.Bootstrap(ctx, router, control, slotrouter.InfoFunc(info))
}
