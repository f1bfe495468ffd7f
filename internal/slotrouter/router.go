// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pcp-redis-bridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package slotrouter implements the backend transport of spec.md §4.4 and
// §4.5: a slot->node routing table built once at startup by
// TopologyBootstrap, and a Router that sends commands to the right shard
// and delivers replies to a callback. The low-level framing of individual
// commands is handled by github.com/redis/go-redis/v9; everything about
// deciding *which connection* serves a key, and *when all outstanding
// commands have replied*, is owned here rather than by go-redis's own
// (unused) ClusterClient.
package slotrouter

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/performancecopilot/pcp-redis-bridge/internal/command"
	"github.com/performancecopilot/pcp-redis-bridge/log"
)

// ServerRef is one backend node: its connect spec and a pooled client.
type ServerRef struct {
	HostSpec string
	Client   *redis.Client
}

// SlotRange is a contiguous range of cluster slots, Start and End both
// inclusive, served by one master (spec.md §3).
type SlotRange struct {
	Start, End int
	Master     ServerRef
	Replicas   []ServerRef
}

func (r SlotRange) contains(slot int) bool {
	return slot >= r.Start && slot <= r.End
}

// Reply is what a Router callback receives: either a decoded value, a
// recognized error kind, or a generic error.
type Reply struct {
	Value any
	Err   error
}

// Sentinel errors a callback can check for with errors.Is, corresponding
// to the "error kinds recognized and forwarded" of spec.md §4.4/§7.
var (
	// ErrNoCluster marks the benign CLUSTER SLOTS failure mode observed
	// against a standalone (non-clustered) backend.
	ErrNoCluster = errors.New("slotrouter: backend reports standalone (NOCLUSTER)")
	// ErrStreamDuplicate marks an XADD that was rejected because the entry
	// already existed or the id was not monotonically increasing.
	ErrStreamDuplicate = errors.New("slotrouter: duplicate or non-monotonic stream entry (ESTREAMXADD)")
	// ErrSlotNotCovered marks a key whose slot has no installed range; this
	// can only happen before TopologyBootstrap completes or if it failed to
	// establish full slot coverage.
	ErrSlotNotCovered = errors.New("slotrouter: no range installed for this key's slot")
)

func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "NOCLUSTER") || strings.Contains(msg, "cluster support disabled"):
		return ErrNoCluster
	case strings.Contains(msg, "ESTREAMXADD") ||
		strings.Contains(msg, "equal or smaller than the target stream top item"):
		return ErrStreamDuplicate
	default:
		return err
	}
}

// Router owns the slot table and dispatches commands. It is safe for
// concurrent use: each Request issues its round trip on its own goroutine
// (see internal/token for why), so reads of the slot table must be guarded.
type Router struct {
	mu      sync.RWMutex
	ranges  []SlotRange // sorted by Start, non-overlapping, covers [0, MaxSlots)
	control ServerRef
	keypos  map[string]int
}

// New creates a Router whose control connection (for keyless commands, and
// for the single range installed on standalone fallback) is control.
func New(control ServerRef) *Router {
	return &Router{control: control, keypos: make(map[string]int)}
}

// InstallRanges replaces the routing table wholesale. Ranges need not be
// pre-sorted; InstallRanges sorts them by Start.
func (r *Router) InstallRanges(ranges []SlotRange) {
	sorted := make([]SlotRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	r.mu.Lock()
	r.ranges = sorted
	r.mu.Unlock()
}

// InstallStandalone installs the single-range table used when the backend
// reports NOCLUSTER: every slot maps to the control connection (spec.md
// §4.5).
func (r *Router) InstallStandalone() {
	r.InstallRanges([]SlotRange{{Start: 0, End: MaxSlots - 1, Master: r.control}})
}

// SetKeyPositions records, for each command name that takes a key, its
// first-key-position as loaded from COMMAND (spec.md §4.5).
func (r *Router) SetKeyPositions(pos map[string]int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range pos {
		r.keypos[k] = v
	}
}

// KeyPosition returns the first-key-position recorded for name.
func (r *Router) KeyPosition(name string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.keypos[strings.ToUpper(name)]
	return p, ok
}

// RangeFor returns the slot range covering slot, if the table has one.
func (r *Router) RangeFor(slot int) (SlotRange, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	// Ranges are sorted and non-overlapping: binary search for the last
	// range whose Start is <= slot, then confirm it actually contains it.
	i := sort.Search(len(r.ranges), func(i int) bool { return r.ranges[i].Start > slot }) - 1
	if i < 0 || i >= len(r.ranges) {
		return SlotRange{}, false
	}
	if !r.ranges[i].contains(slot) {
		return SlotRange{}, false
	}
	return r.ranges[i], true
}

// Covered reports whether every slot in [0, MaxSlots) maps to a range
// (the invariant TopologyBootstrap must establish, spec.md §4.5).
func (r *Router) Covered() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	next := 0
	for _, rg := range r.ranges {
		if rg.Start != next {
			return false
		}
		next = rg.End + 1
	}
	return next == MaxSlots
}

// destination picks the connection a command should be sent over: the
// control connection for keyless commands, otherwise the master of the
// range owning the key's slot. Replicas are never used for writes
// (spec.md §4.4).
func (r *Router) destination(cmd command.Command) (ServerRef, int, bool) {
	key, hasKey := cmd.Key()
	if !hasKey || key == "" {
		return r.control, -1, true
	}
	slot := Slot(key)
	rg, ok := r.RangeFor(slot)
	if !ok {
		return ServerRef{}, slot, false
	}
	return rg.Master, slot, true
}

// Request sends cmd to the correct shard and delivers the reply to
// callback. callback runs on a dedicated goroutine per spec.md §5's
// suspension-point model, adapted from the source's single-threaded event
// loop to Go's goroutine-per-round-trip idiom (see internal/token). Request
// never blocks the caller.
func (r *Router) Request(ctx context.Context, cmd command.Command, callback func(Reply)) {
	dest, slot, ok := r.destination(cmd)
	if !ok {
		go callback(Reply{Err: ErrSlotNotCovered})
		return
	}
	if dest.Client == nil {
		go callback(Reply{Err: errors.New("slotrouter: no connection for slot " + strconv.Itoa(slot))})
		return
	}

	go func() {
		res := dest.Client.Do(ctx, cmd.Args()...)
		val, err := res.Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			log.Debugf("slotrouter: %s -> %s failed: %s", cmd.Name(), dest.HostSpec, err.Error())
			callback(Reply{Err: classify(err)})
			return
		}
		if errors.Is(err, redis.Nil) {
			callback(Reply{Value: nil})
			return
		}
		callback(Reply{Value: val})
	}()
}
