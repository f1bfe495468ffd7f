// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pcp-redis-bridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package mapping implements the "ensure interned" pipeline of spec.md
// §4.6: given a string, make sure both the local cache and the backend's
// pcp:map:<name> hash know about it, publishing new mappings to
// pcp:channel:<name> for any other interested reader.
package mapping

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/performancecopilot/pcp-redis-bridge/internal/command"
	"github.com/performancecopilot/pcp-redis-bridge/internal/hashid"
	"github.com/performancecopilot/pcp-redis-bridge/internal/internmap"
	"github.com/performancecopilot/pcp-redis-bridge/internal/slotrouter"
	"github.com/performancecopilot/pcp-redis-bridge/internal/token"
	"github.com/performancecopilot/pcp-redis-bridge/log"
)

// Router is the subset of *slotrouter.Router the pipeline needs; narrowed
// to an interface so tests can fake it without a live Redis.
type Router interface {
	Request(ctx context.Context, cmd command.Command, callback func(slotrouter.Reply))
}

// Pipeline runs "lookup or insert" interning rounds against one Router,
// rate-limiting how fast round trips for brand-new strings may start so
// a sudden batch of novel names cannot flood the control connection.
type Pipeline struct {
	router  Router
	limiter *rate.Limiter
}

// New creates a Pipeline. burst is how many new-mapping round trips (HSET
// + PUBLISH pairs) may start back to back without waiting; rps bounds the
// steady-state rate at which further ones may start. Completions are not
// tracked, so the number of round trips in flight is not bounded.
func New(router Router, rps float64, burst int) *Pipeline {
	return &Pipeline{router: router, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Ensure computes s's id and reports whether m already caches it. It
// inserts nothing and issues no command: on a hit the id is usable at once
// (spec.md §4.6's synchronous fast path); on a miss the caller continues
// with Resolve, so only a true cache miss goes over the wire.
func (p *Pipeline) Ensure(ctx context.Context, m *internmap.Map, s string) (hashid.ID, bool) {
	id := hashid.SumString(s)
	if _, ok := m.Lookup(id); ok {
		return id, true
	}
	return id, false
}

// Resolve is the asynchronous continuation of Ensure for the cache-miss
// path: it inserts (id, s) locally, issues HSET pcp:map:<name>, and on a
// newname reply additionally PUBLISHes to pcp:channel:<name>, invoking
// onDone only once every issued command has replied (spec.md §4.6, §4.9).
func (p *Pipeline) Resolve(ctx context.Context, m *internmap.Map, id hashid.ID, s string, onDone func()) {
	m.Insert(id, s)

	tok := token.New(token.KindMapping, onDone)
	tok.Payload = m.Name()

	if err := p.limiter.Wait(ctx); err != nil {
		log.Warnf("[MAPPING]> rate limiter wait failed for %s: %s", m.Name(), err.Error())
	}

	key := fmt.Sprintf("pcp:map:%s", m.Name())
	cmd := command.Build("HSET", key, id.Bytes(), s)

	tok.AddRef(1)
	p.router.Request(ctx, cmd, func(reply slotrouter.Reply) {
		defer tok.Release("hset-reply")

		if reply.Err != nil {
			log.Warnf("[MAPPING]> HSET %s failed: %s", key, reply.Err.Error())
			return
		}

		newname := isOne(reply.Value)
		if !newname {
			return
		}

		channel := fmt.Sprintf("pcp:channel:%s", m.Name())
		msg := fmt.Sprintf("%s:%s", id.String(), s)
		pub := command.BuildKeyless("PUBLISH", channel, msg)

		tok.AddRef(1)
		p.router.Request(ctx, pub, func(reply slotrouter.Reply) {
			defer tok.Release("publish-reply")
			if reply.Err != nil {
				log.Warnf("[MAPPING]> PUBLISH %s failed: %s", channel, reply.Err.Error())
			}
		})
	})

	tok.Release("creation")
}

// GetMap is the full "lookup or insert" operation of spec.md §4.6: it
// returns s's id immediately (valid for the caller right away, regardless
// of whether any wire round trip is needed) and arranges for onDone to run
// once any such round trip has completed. On a cache hit onDone runs
// synchronously before GetMap returns.
func (p *Pipeline) GetMap(ctx context.Context, m *internmap.Map, s string, onDone func()) hashid.ID {
	id, hit := p.Ensure(ctx, m, s)
	if hit {
		onDone()
		return id
	}
	p.Resolve(ctx, m, id, s, onDone)
	return id
}

// isOne reports whether reply is the integer 1, i.e. HSET's "field did not
// exist" result — the newname signal of spec.md §4.6.
func isOne(v any) bool {
	switch n := v.(type) {
	case int64:
		return n == 1
	case int:
		return n == 1
	default:
		return false
	}
}
