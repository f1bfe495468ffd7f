// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pcp-redis-bridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package internmap implements the local half of string interning: a
// process-lived cache of (identifier -> string) per named domain, mirrored
// server-side under pcp:map:<name> (see internal/mapping). It is not
// thread-safe: the ingest core reads and inserts only on the goroutine
// that calls Load, never from the per-request reply goroutines.
package internmap

import "github.com/performancecopilot/pcp-redis-bridge/internal/hashid"

// Map is a local cache for one interning domain (metric names, instance
// names, label names, or one label's value set). The same string always
// maps to the same id because the id is the SHA-1 of the string itself;
// the cache only saves the round trip of proving that to the server again.
type Map struct {
	name    string
	entries map[hashid.ID]string
}

// New creates an empty map. name is the stable mapname suffix used in the
// server-side key pcp:map:<name> and pcp:channel:<name>.
func New(name string) *Map {
	return &Map{name: name, entries: make(map[hashid.ID]string)}
}

// Name returns the mapname this cache was created for.
func (m *Map) Name() string {
	return m.name
}

// Lookup returns the string for id and whether it was present.
func (m *Map) Lookup(id hashid.ID) (string, bool) {
	s, ok := m.entries[id]
	return s, ok
}

// Insert records the mapping locally. Safe to call redundantly: interning
// is stable, so inserting the same (id, string) pair twice is a no-op.
func (m *Map) Insert(id hashid.ID, s string) {
	m.entries[id] = s
}

// Len reports how many strings are cached, mostly for tests and metrics.
func (m *Map) Len() int {
	return len(m.entries)
}

// Registry owns the process-wide global maps (context, metric name,
// instance name, label name) plus the per-label-name value maps that are
// created on first sighting of a label (spec.md §4.2). A value map is
// dropped only by an explicit ReleaseLabelValueMap call; the ingest core
// makes none, so value maps live as long as the Registry.
type Registry struct {
	Context *Map
	Names   *Map
	Inst    *Map
	Labels  *Map

	labelValues map[hashid.ID]*Map // keyed by the label-name's id
}

// NewRegistry builds the four global maps with their canonical mapnames.
func NewRegistry() *Registry {
	return &Registry{
		Context:     New("context.name"),
		Names:       New("metric.name"),
		Inst:        New("inst.name"),
		Labels:      New("labels"),
		labelValues: make(map[hashid.ID]*Map),
	}
}

// LabelValueMap returns (creating if necessary) the dynamic value map for
// the label whose name has the given id. The server-side mapname is
// "label.<name-hash>.value", per spec.md §4.2/§6.
func (r *Registry) LabelValueMap(labelNameID hashid.ID) *Map {
	m, ok := r.labelValues[labelNameID]
	if !ok {
		m = New("label." + labelNameID.String() + ".value")
		r.labelValues[labelNameID] = m
	}
	return m
}

// ReleaseLabelValueMap drops the local cache for a label's value map. The
// map is recreated lazily the next time that label name is sighted.
func (r *Registry) ReleaseLabelValueMap(labelNameID hashid.ID) {
	delete(r.labelValues, labelNameID)
}
