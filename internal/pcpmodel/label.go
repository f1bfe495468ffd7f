// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pcp-redis-bridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pcpmodel

// LabelFlags identifies the scope a label was declared at, mirroring the
// original implementation's PM_LABEL_* bitset (original_source's
// schema.c / pmSeriesLabel_Ex). Only LabelContext is handled specially by
// MetadataWriter (spec.md §4.7: "stored only when the label is
// non-context-scoped"); the others are preserved for fidelity with the
// source format and for callers that want to filter by scope.
type LabelFlags uint32

const (
	LabelContext   LabelFlags = 1 << iota // inherited from the source, never stored on its own
	LabelDomain                           // scoped to a PMID's domain
	LabelIndom                            // scoped to an instance domain
	LabelCluster                          // scoped to a PMID's cluster
	LabelItem                             // scoped to a single metric (PMID item)
	LabelInstances                        // scoped to one instance of an indom
)

// IsContextScoped reports whether a label is inherited from the context
// and therefore must not get its own pcp:labelflags:series:* entry.
func (f LabelFlags) IsContextScoped() bool {
	return f&LabelContext != 0
}
