// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pcp-redis-bridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ingest

import (
	"context"

	"github.com/performancecopilot/pcp-redis-bridge/internal/command"
	"github.com/performancecopilot/pcp-redis-bridge/internal/hashid"
	"github.com/performancecopilot/pcp-redis-bridge/internal/pcpmodel"
	"github.com/performancecopilot/pcp-redis-bridge/internal/token"
)

// WriteSource records a collection source's identity, per spec.md §4.7: the
// bidirectional context-name<->source-hash index plus its geographic
// location, keyed under pcp:source:location. When the source also advertises
// a hostid, it is registered as a second alias of the same source-hash
// (mirroring how WriteMetric treats a metric's alternate names), so a lookup
// by either the full context name or the bare hostid finds the same source.
func (c *Core) WriteSource(ctx context.Context, src *pcpmodel.Context, tok *token.Token) {
	token.Assert(tok, token.KindLoad)

	sourceHash := src.Name.Hash
	c.registerContextAlias(ctx, src.Name.SDS, sourceHash, tok)
	if src.HostID != "" && src.HostID != src.Name.SDS {
		c.registerContextAlias(ctx, src.HostID, sourceHash, tok)
	}

	c.submit(ctx, tok, command.Build("GEOADD", keySourceLocation(),
		src.Location.Lon, src.Location.Lat, sourceHash.Bytes()), nil)
}

// registerContextAlias interns name into the context map and links it to
// sourceHash in both directions.
func (c *Core) registerContextAlias(ctx context.Context, name string, sourceHash hashid.ID, tok *token.Token) {
	ci := c.intern(ctx, tok, c.maps.Context, name)
	c.submit(ctx, tok, command.Build("SADD", keySourceByContextName(ci.String()), sourceHash.Bytes()), nil)
	c.submit(ctx, tok, command.Build("SADD", keyContextNameBySource(sourceHash.String()), ci.Bytes()), nil)
}

// WriteMetric records a metric's identity and descriptor, per spec.md §4.7:
// one name-index entry, and one descriptor HMSET, per alias; the per-source
// membership set (all aliases in a single SADD); and (for instanced
// metrics) one index entry per instance. Labels are written separately by
// writeLabels so both metric-scoped and instance-scoped label entries can
// share the same field-rendering logic. Every per-metric key besides the
// name indexes is keyed or fanned out by each alias's own hash, never by
// Names[0] alone, matching numnames XADDs that StreamWriter issues for the
// same metric. The returned id is Names[0].Hash, used by callers (and by
// writeInstance, to derive per-instance hashes) as the metric's canonical
// series identity.
func (c *Core) WriteMetric(ctx context.Context, src *pcpmodel.Context, m *pcpmodel.Metric, tok *token.Token) hashid.ID {
	token.Assert(tok, token.KindLoad)

	seriesHash := m.Names[0].Hash
	sourceHash := src.Name.Hash

	nameHashes := make([]hashid.ID, len(m.Names))
	for i, name := range m.Names {
		nameHashes[i] = name.Hash
	}

	for _, name := range m.Names {
		ni := c.intern(ctx, tok, c.maps.Names, name.SDS)
		c.submit(ctx, tok, command.Build("SADD", keySeriesByMetricName(ni.String()), name.Hash.Bytes()), nil)
		c.submit(ctx, tok, command.Build("SADD", keyMetricNameBySeries(name.Hash.String()), ni.Bytes()), nil)

		c.submit(ctx, tok, command.Build("HMSET", keyDescSeries(name.Hash.String()),
			"indom", pcpmodel.IndomString(m.Desc.Indom),
			"pmid", pcpmodel.PMIDString(m.Desc.PMID),
			"semantics", pcpmodel.SemanticsString(m.Desc.Semantics),
			"source", sourceHash.String(),
			"type", pcpmodel.ValueTypeString(m.Desc.Type),
			"units", pcpmodel.UnitsString(m.Desc.Units),
		), nil)
	}

	c.submit(ctx, tok, command.Build("SADD", keySeriesBySource(sourceHash.String()), bytesParams(nameHashes)...), nil)

	c.writeLabels(ctx, m.Labels, nameHashes, nameHashes, tok)

	if m.Desc.Indom != nil {
		for _, iv := range m.Instances {
			c.writeInstance(ctx, sourceHash, nameHashes, iv.Instance, tok)
		}
	}

	return seriesHash
}

// writeInstance records one member of an instanced metric's domain, per
// spec.md §4.7: the instance-name index (every metric alias's hash under
// the instance name's id), the per-alias instance set (the instance hash
// under each alias), and the instance's own hash carrying its inst number,
// name id and source. An instance's hash is distinct from its
// name's interning id, mirroring how a metric's series hash differs from
// its name's: it identifies this particular (series, instance) pairing,
// not the instance name alone.
func (c *Core) writeInstance(ctx context.Context, sourceHash hashid.ID, nameHashes []hashid.ID, inst pcpmodel.Instance, tok *token.Token) {
	instHash := instanceHash(nameHashes[0], inst.Name.SDS)
	instNameID := c.intern(ctx, tok, c.maps.Inst, inst.Name.SDS)

	c.submit(ctx, tok, command.Build("SADD", keySeriesByInstName(instNameID.String()), bytesParams(nameHashes)...), nil)
	for _, nameHash := range nameHashes {
		c.submit(ctx, tok, command.Build("SADD", keyInstancesBySeries(nameHash.String()), instHash.Bytes()), nil)
	}
	c.submit(ctx, tok, command.Build("HMSET", keyInstSeries(instHash.String()),
		"inst", inst.Inst,
		"name", instNameID.Bytes(),
		"source", sourceHash.Bytes(),
	), nil)

	c.writeLabels(ctx, inst.Labels, []hashid.ID{instHash}, nameHashes, tok)
}

// writeLabels records one label list (a metric's or an instance's), per
// spec.md §4.7. targets is
// where the per-label HMSETs land: each metric alias's own hash for
// metric-scoped labels (one entry per name, matching the descriptor write),
// or the single instance hash for instance-scoped ones. seriesHashes is
// always every alias of the owning metric — the reverse index from a label
// value back to its series is keyed off the metric, never the instance,
// even for an instance-scoped label (schema.c's redis_series_label always
// threads metric->numnames into this SADD regardless of which label list it
// is called for).
func (c *Core) writeLabels(ctx context.Context, labels []pcpmodel.Label, targets, seriesHashes []hashid.ID, tok *token.Token) {
	for _, lbl := range labels {
		nameID := c.intern(ctx, tok, c.maps.Labels, lbl.Name.SDS)
		valueMap := c.maps.LabelValueMap(nameID)
		valueID := c.intern(ctx, tok, valueMap, lbl.Value.SDS)

		for _, h := range targets {
			if !lbl.Flags.IsContextScoped() {
				c.submit(ctx, tok, command.Build("HMSET", keyLabelFlagsSeries(h.String()),
					nameID.Bytes(), uint32(lbl.Flags)), nil)
			}
			c.submit(ctx, tok, command.Build("HMSET", keyLabelValueSeries(h.String()),
				nameID.Bytes(), valueID.Bytes()), nil)
		}
		c.submit(ctx, tok, command.Build("SADD", keySeriesByLabelValue(nameID.String(), valueID.String()),
			bytesParams(seriesHashes)...), nil)
	}
}

// bytesParams renders a slice of hashes as command.Param values in one
// call, for the handful of keys that add every alias of a metric in a
// single multi-member SADD (spec.md §4.7's "single key, all hashes added").
func bytesParams(ids []hashid.ID) []command.Param {
	out := make([]command.Param, len(ids))
	for i, id := range ids {
		out[i] = id.Bytes()
	}
	return out
}
