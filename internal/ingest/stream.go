// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pcp-redis-bridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ingest

import (
	"context"
	"errors"
	"strconv"

	"github.com/performancecopilot/pcp-redis-bridge/internal/command"
	"github.com/performancecopilot/pcp-redis-bridge/internal/pcpmodel"
	"github.com/performancecopilot/pcp-redis-bridge/internal/slotrouter"
	"github.com/performancecopilot/pcp-redis-bridge/internal/token"
)

// WriteSample appends one metric's current sample to its stream, per
// spec.md §4.8: the field set depends on whether the metric is scalar,
// instanced, instanced-with-zero-instances, or reporting an error, but every
// case XADDs exactly one entry per name-hash to pcp:values:series:<hash> at
// timestamp ts (PCP's own sample time, not wall-clock time of ingestion). A
// metric with numnames aliases therefore fans out into numnames XADDs, one
// per series the metric is stored under, all carrying the same field set. An
// explicit sequence number of 0 means a repeat submission of the same ts is
// rejected by the backend as non-monotonic rather than silently accepted; a
// rejected XADD surfaces to the caller through on_info, never as a panic or
// a dropped sample, and is counted as a stream duplicate.
func (c *Core) WriteSample(ctx context.Context, ts int64, m *pcpmodel.Metric, tok *token.Token) {
	token.Assert(tok, token.KindLoad)

	id := strconv.FormatInt(ts, 10) + "-0"
	fields := c.streamFields(m)

	for _, name := range m.Names {
		key := keyValuesSeries(name.Hash.String())
		c.submit(ctx, tok, command.Build("XADD", key, append([]command.Param{id}, fields...)...),
			func(reply slotrouter.Reply) {
				if errors.Is(reply.Err, slotrouter.ErrStreamDuplicate) {
					c.metrics.streamDuplicates.Inc()
				}
			})
	}
}

// streamFields renders a metric's current sample as the XADD field/value
// pairs of spec.md §4.8's four cases: one pair for an error, a scalar or
// zero instances, and one pair per instance otherwise.
func (c *Core) streamFields(m *pcpmodel.Metric) []command.Param {
	if m.Error != 0 {
		return []command.Param{"-1", strconv.Itoa(int(m.Error))}
	}

	if m.Desc.Indom == nil {
		return []command.Param{"", pcpmodel.EncodeValue(m.Scalar)}
	}

	if len(m.Instances) == 0 {
		return []command.Param{"0", "0"}
	}

	fields := make([]command.Param, 0, len(m.Instances)*2)
	for _, iv := range m.Instances {
		instHash := instanceHash(m.Names[0].Hash, iv.Instance.Name.SDS)
		fields = append(fields, instHash.Bytes(), pcpmodel.EncodeValue(iv.Value))
	}
	return fields
}
