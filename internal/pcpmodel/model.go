// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pcp-redis-bridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pcpmodel holds the records handed to this core by its caller: the
// PCP metric-acquisition side (archive readers, live agents, label
// decoders). This package only models data; it never talks to Redis.
package pcpmodel

import "github.com/performancecopilot/pcp-redis-bridge/internal/hashid"

// Name is the {sds, id, hash} triple spec.md §3 uses for every interned
// string: the human-readable form, the interning identifier (== SHA-1 of
// the string), and (for metrics and sources) the semantic series/source
// hash which may differ from ID when the canonical bytes hashed are not
// simply the name itself.
type Name struct {
	SDS  string
	ID   hashid.ID
	Hash hashid.ID
}

// NewName builds a Name whose ID and Hash are both the SHA-1 of sds. This
// is the common case (instance names, label names and values); metric
// names and context names override Hash with a hash of their canonical
// descriptor bytes instead, see NameWithSeriesHash.
func NewName(sds string) Name {
	id := hashid.SumString(sds)
	return Name{SDS: sds, ID: id, Hash: id}
}

// NameWithSeriesHash builds a Name whose interning ID is the hash of sds
// but whose Hash field carries an independently computed series/source
// hash (e.g. SHA-1 of the canonical metric descriptor, or of the canonical
// source descriptor).
func NameWithSeriesHash(sds string, hash hashid.ID) Name {
	return Name{SDS: sds, ID: hashid.SumString(sds), Hash: hash}
}

// GeoLocation is a (lat, lon) pair. Stored with GEOADD as <lon> <lat>
// (spec.md §4.7 Design Notes: longitude precedes latitude).
type GeoLocation struct {
	Lat, Lon float64
}

// Context is the source of a batch of samples: one collection agent or
// archive at a point in time. Its Name.Hash is the source-hash.
type Context struct {
	Name     Name
	HostID   string
	Location GeoLocation
}

// ValueType enumerates the PCP value encodings a Value can carry.
type ValueType int

const (
	TypeInt32 ValueType = iota
	TypeUint32
	TypeInt64
	TypeUint64
	TypeFloat
	TypeDouble
	TypeString
	TypeAggregate
	TypeUnknown
)

// Value is a tagged union over the PCP value encodings. Exactly one field
// matching Type is meaningful.
type Value struct {
	Type   ValueType
	I32    int32
	U32    uint32
	I64    int64
	U64    uint64
	F32    float32
	F64    float64
	Str    string // TypeString; a Go nil is not representable, use StrNull
	Bytes  []byte // TypeAggregate
	StrNull bool
}

// Label is one entry of the per-metric or per-instance label list.
// Non-context-scoped labels (LabelContext bit not set) get their own
// pcp:labelflags:series:* entry per spec.md §4.7.
type Label struct {
	Name  Name
	Value Name
	Flags LabelFlags
}

// Instance is one member of a metric's instance domain.
type Instance struct {
	Name   Name
	Inst   int32
	Labels []Label
}

// Descriptor mirrors PCP's pmDesc: the fixed metadata of a metric
// independent of any particular sample.
type Descriptor struct {
	PMID       PMID
	Indom      *Indom // nil for scalar (indom-less) metrics
	Type       ValueType
	Semantics  Semantics
	Units      Units
}

// PMID is a 32-bit domain.cluster.item triple.
type PMID struct {
	Domain, Cluster, Item uint32
}

// Indom is an instance-domain identifier: domain.serial.
type Indom struct {
	Domain, Serial uint32
}

// Semantics is PCP's metric semantics (counter, instant, discrete...).
type Semantics int

const (
	SemanticsUnknown Semantics = iota
	SemanticsCounter
	SemanticsInstant
	SemanticsDiscrete
)

// Units mirrors pmUnits's packed dimension/scale/sign fields closely
// enough to render the canonical string form required by spec.md §4.7.
type Units struct {
	DimSpace, DimTime, DimCount int8
	ScaleSpace, ScaleTime, ScaleCount int8
}

// Metric is one ingested metric sample set: one or more aliased names, a
// descriptor, an optional instance domain, either a scalar value or a
// vlist of per-instance values, and the metric-scoped labels.
type Metric struct {
	Names   []Name
	Desc    Descriptor
	Labels  []Label
	Updated bool
	Error   int32 // 0 == no error; spec.md §4.8 "Metric error"

	// Scalar is used when Desc.Indom == nil.
	Scalar Value

	// Instances is used when Desc.Indom != nil; each entry pairs an
	// instance with its sampled value. A present-but-empty Instances on
	// an instanced metric is the "zero instances" case of spec.md §4.8.
	Instances []InstanceValue
}

// InstanceValue pairs one instance of an instanced metric with its value
// and that instance's own label set.
type InstanceValue struct {
	Instance Instance
	Value    Value
}
