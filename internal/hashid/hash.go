// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pcp-redis-bridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package hashid computes the content-addressed 20-byte identifiers used
// throughout the key namespace: interned strings, metric series and
// collection sources are all named by the SHA-1 of their canonical bytes.
package hashid

import (
	"crypto/sha1"
	"encoding/hex"
)

// Size is the length in bytes of an identifier.
const Size = sha1.Size

// ID is a 20-byte opaque identifier. The zero value is not a valid id.
type ID [Size]byte

// Sum hashes b and returns its identifier. Identical input always yields
// identical output; this is the one invariant the rest of the system leans
// on for idempotent interning and routing.
func Sum(b []byte) ID {
	return ID(sha1.Sum(b))
}

// SumString is a convenience wrapper around Sum for string input.
func SumString(s string) ID {
	return Sum([]byte(s))
}

// String renders the identifier as 40 lower-case hex characters, the form
// used inside Redis keys.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns the identifier's raw 20 bytes. Used where a command
// parameter must carry the identifier itself rather than its hex text (the
// instance-hash field name in XADD, per spec.md §4.8).
func (id ID) Bytes() []byte {
	return id[:]
}

// IsZero reports whether id is the zero identifier (never a hash of real
// content, used as a sentinel for "absent").
func (id ID) IsZero() bool {
	return id == ID{}
}
