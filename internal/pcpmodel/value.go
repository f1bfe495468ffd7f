// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pcp-redis-bridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pcpmodel

import (
	"fmt"
	"strconv"
)

// PmErrNYI mirrors PCP's PM_ERR_NYI ("not yet implemented"), used as the
// rendered value for a type this core does not recognize (spec.md §4.8).
const PmErrNYI = -12346

// EncodeValue renders v as the raw bytes stored in an XADD field, per the
// encoding rules of spec.md §4.8.
func EncodeValue(v Value) []byte {
	switch v.Type {
	case TypeInt32:
		return []byte(strconv.FormatInt(int64(v.I32), 10))
	case TypeUint32:
		return []byte(strconv.FormatUint(uint64(v.U32), 10))
	case TypeInt64:
		return []byte(strconv.FormatInt(v.I64, 10))
	case TypeUint64:
		return []byte(strconv.FormatUint(v.U64, 10))
	case TypeFloat:
		return []byte(fmt.Sprintf("%e", float64(v.F32)))
	case TypeDouble:
		return []byte(fmt.Sprintf("%e", v.F64))
	case TypeString:
		if v.StrNull {
			return []byte("<null>")
		}
		return []byte(v.Str)
	case TypeAggregate:
		return v.Bytes
	default:
		return []byte(strconv.Itoa(PmErrNYI))
	}
}

// IndomString renders an instance domain as "domain.serial", or "none" for
// a scalar metric, per spec.md §4.7.
func IndomString(indom *Indom) string {
	if indom == nil {
		return "none"
	}
	return fmt.Sprintf("%d.%d", indom.Domain, indom.Serial)
}

// PMIDString renders a PMID as "domain.cluster.item", per spec.md §4.7.
func PMIDString(pmid PMID) string {
	return fmt.Sprintf("%d.%d.%d", pmid.Domain, pmid.Cluster, pmid.Item)
}

// ValueTypeString renders a value type for the descriptor's "type" field:
// the integer types as PCP's numeric type codes ("32", "U32", "64", "U64"),
// the others as a lower-case word ("float", "double", "string", ...).
func ValueTypeString(t ValueType) string {
	switch t {
	case TypeInt32:
		return "32"
	case TypeUint32:
		return "U32"
	case TypeInt64:
		return "64"
	case TypeUint64:
		return "U64"
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	case TypeString:
		return "string"
	case TypeAggregate:
		return "aggregate"
	default:
		return "unknown"
	}
}

// SemanticsString renders PCP metric semantics canonically.
func SemanticsString(s Semantics) string {
	switch s {
	case SemanticsCounter:
		return "counter"
	case SemanticsInstant:
		return "instant"
	case SemanticsDiscrete:
		return "discrete"
	default:
		return "unknown"
	}
}

// UnitsString renders a Units value as PCP's canonical dimension/scale
// string, e.g. "1,0,0,1,0,0" for kilobytes (space/time/count dimension
// followed by space/time/count scale, all as integers). Zero-dimension units render as "none".
func UnitsString(u Units) string {
	if u.DimSpace == 0 && u.DimTime == 0 && u.DimCount == 0 {
		return "none"
	}
	return fmt.Sprintf("%d,%d,%d,%d,%d,%d",
		u.DimSpace, u.DimTime, u.DimCount,
		u.ScaleSpace, u.ScaleTime, u.ScaleCount)
}
