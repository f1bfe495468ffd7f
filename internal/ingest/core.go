// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pcp-redis-bridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ingest

import (
	"context"

	"github.com/performancecopilot/pcp-redis-bridge/internal/command"
	"github.com/performancecopilot/pcp-redis-bridge/internal/hashid"
	"github.com/performancecopilot/pcp-redis-bridge/internal/internmap"
	"github.com/performancecopilot/pcp-redis-bridge/internal/mapping"
	"github.com/performancecopilot/pcp-redis-bridge/internal/slotrouter"
	"github.com/performancecopilot/pcp-redis-bridge/internal/token"
)

// InfoLevel and InfoFunc are the on_info surface of spec.md §6: levels are
// request-error, response-malformed, protocol-error, warning, informational.
type InfoLevel = slotrouter.InfoLevel

const (
	InfoRequestError      = slotrouter.InfoRequestError
	InfoResponseMalformed = slotrouter.InfoResponseMalformed
	InfoProtocolError     = slotrouter.InfoProtocolError
	InfoWarning           = slotrouter.InfoWarning
	InfoInformational     = slotrouter.InfoInformational
)

// InfoFunc is the caller-supplied on_info sink.
type InfoFunc func(level InfoLevel, msg string)

// Router is the subset of *slotrouter.Router used directly by the writers
// (as opposed to through the mapping pipeline).
type Router interface {
	Request(ctx context.Context, cmd command.Command, callback func(slotrouter.Reply))
}

// Core ties the SlotRouter, MappingPipeline and process-wide InternMaps
// together into the ingest surface of spec.md §6: per-metric ingest plus
// setup/shutdown.
type Core struct {
	router   Router
	pipeline *mapping.Pipeline
	maps     *internmap.Registry
	info     InfoFunc
	metrics  *Metrics
}

// New creates a Core. info may be nil (on_info becomes a no-op).
func New(router Router, pipeline *mapping.Pipeline, maps *internmap.Registry, info InfoFunc, metrics *Metrics) *Core {
	if info == nil {
		info = func(InfoLevel, string) {}
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Core{router: router, pipeline: pipeline, maps: maps, info: info, metrics: metrics}
}

// intern interns s into m, folding the mapping round's completion into
// tok's reference count: the id is returned immediately per spec.md §4.6,
// but tok is not released for this unit of work until the mapping round
// (cache hit: synchronous; cache miss: HSET and maybe PUBLISH) completes.
func (c *Core) intern(ctx context.Context, tok *token.Token, m *internmap.Map, s string) hashid.ID {
	id, hit := c.pipeline.Ensure(ctx, m, s)
	if hit {
		c.metrics.mappingHits.Inc()
		return id
	}
	c.metrics.mappingMisses.Inc()
	tok.AddRef(1)
	c.pipeline.Resolve(ctx, m, id, s, func() { tok.Release("mapping:" + m.Name()) })
	return id
}

// instanceHash identifies one (series, instance-name) pairing: distinct
// from the instance name's own interning id, and from the series hash
// alone, so the same instance name under two different metrics does not
// collide (spec.md §4.7/§4.8).
func instanceHash(seriesHash hashid.ID, instName string) hashid.ID {
	return hashid.SumString(seriesHash.String() + ":" + instName)
}

// submit issues cmd through the router, tying its reply into tok's
// reference count. onReply, if non-nil, is invoked with the reply before
// the token is released, so callers can react to errors or counts.
func (c *Core) submit(ctx context.Context, tok *token.Token, cmd command.Command, onReply func(slotrouter.Reply)) {
	tok.AddRef(1)
	c.router.Request(ctx, cmd, func(reply slotrouter.Reply) {
		defer tok.Release(cmd.Name())
		if reply.Err != nil {
			c.metrics.commandErrors.WithLabelValues(cmd.Name()).Inc()
			c.info(InfoRequestError, cmd.Name()+": "+reply.Err.Error())
		} else {
			c.metrics.commandsSubmitted.WithLabelValues(cmd.Name()).Inc()
		}
		if onReply != nil {
			onReply(reply)
		}
	})
}
