// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pcp-redis-bridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ingest

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the process-wide counters this core exposes, named after
// the quantities spec.md §7/§8 cares about diagnosing: loads in flight,
// mapping cache effectiveness, and stream duplicates.
type Metrics struct {
	commandsSubmitted *prometheus.CounterVec
	commandErrors     *prometheus.CounterVec
	mappingHits       prometheus.Counter
	mappingMisses     prometheus.Counter
	streamDuplicates  prometheus.Counter
	loadsInFlight     prometheus.Gauge
}

// NewMetrics builds a Metrics and, if reg is non-nil, registers it. Passing
// a nil registry is useful for tests that only want the counters to exist,
// not to be scraped.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		commandsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pcp_redis_bridge",
			Name:      "commands_submitted_total",
			Help:      "Commands successfully acknowledged by the backend, by command name.",
		}, []string{"command"}),
		commandErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pcp_redis_bridge",
			Name:      "command_errors_total",
			Help:      "Commands whose reply carried an error, by command name.",
		}, []string{"command"}),
		mappingHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pcp_redis_bridge",
			Name:      "mapping_cache_hits_total",
			Help:      "Interning lookups served from the local cache without a round trip.",
		}),
		mappingMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pcp_redis_bridge",
			Name:      "mapping_cache_misses_total",
			Help:      "Interning lookups that required an HSET round trip.",
		}),
		streamDuplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pcp_redis_bridge",
			Name:      "stream_duplicates_total",
			Help:      "XADD attempts rejected as duplicate or non-monotonic (ESTREAMXADD).",
		}),
		loadsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pcp_redis_bridge",
			Name:      "loads_in_flight",
			Help:      "Load contexts with at least one outstanding command.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.commandsSubmitted, m.commandErrors, m.mappingHits, m.mappingMisses, m.streamDuplicates, m.loadsInFlight)
	}
	return m
}
