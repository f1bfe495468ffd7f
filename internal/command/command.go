// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pcp-redis-bridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package command assembles the typed parameter lists that become Redis
// multi-bulk command arrays (spec.md §4.3). The wire-level "*N\r\n"
// framing itself is delegated to the transport (github.com/redis/go-redis/v9,
// via (*redis.Client).Do); this package owns the one piece of real design:
// deciding, once and for all at construction time, which parameter (if any)
// is the routing key, so that a Command is self-contained and immutable
// from the caller's point of view.
package command

// Param is one argument of a command. Any Go value go-redis' Do() accepts
// is legal: a plain string (opaque string parameter), a []byte (length-
// counted bytes, e.g. a raw 20-byte instance hash used as an XADD field
// name), or a pre-encoded value such as an int64 timestamp.
type Param = any

// Command is an immutable, fully-assembled multi-bulk command. Once built
// it never changes; SlotRouter reads Name/Key to decide where to send it
// and Args to decide what to send.
type Command struct {
	name    string
	key     string // empty means keyless: routed to the control connection
	hasKey  bool
	args    []Param
}

// Build assembles a keyed command. name is the Redis command name (e.g.
// "HSET"); key is the parameter used for slot routing; params is the
// remainder of the argument list in wire order.
func Build(name, key string, params ...Param) Command {
	args := make([]Param, 0, len(params)+2)
	args = append(args, name, key)
	args = append(args, params...)
	return Command{name: name, key: key, hasKey: true, args: args}
}

// BuildKeyless assembles a command with no routing key (e.g. "COMMAND",
// "CLUSTER SLOTS"); it is always dispatched to the designated control
// connection (spec.md §4.4).
func BuildKeyless(name string, params ...Param) Command {
	args := make([]Param, 0, len(params)+1)
	args = append(args, name)
	args = append(args, params...)
	return Command{name: name, hasKey: false, args: args}
}

// Name returns the command's Redis verb.
func (c Command) Name() string { return c.name }

// Key returns the routing key and whether one was set.
func (c Command) Key() (string, bool) { return c.key, c.hasKey }

// Args returns the full argument list in wire order, suitable for passing
// to (*redis.Client).Do(ctx, args...).
func (c Command) Args() []Param {
	// Defensive copy: Command is documented as immutable once built, and a
	// caller must not be able to mutate the slice backing it.
	out := make([]Param, len(c.args))
	copy(out, c.args)
	return out
}
