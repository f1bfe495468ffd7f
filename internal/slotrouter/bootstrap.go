// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pcp-redis-bridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slotrouter

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/performancecopilot/pcp-redis-bridge/log"
)

// SchemaVersion is the schema version this core enforces (spec.md §6).
const SchemaVersion = "2"

const schemaVersionKey = "pcp:version:schema"

// InfoLevel mirrors the on_info levels of spec.md §6.
type InfoLevel int

const (
	InfoRequestError InfoLevel = iota
	InfoResponseMalformed
	InfoProtocolError
	InfoWarning
	InfoInformational
)

// InfoFunc is the caller-supplied sink for the on_info callback.
type InfoFunc func(level InfoLevel, msg string)

// BootstrapResult is handed to on_setup once the state machine reaches
// DONE (spec.md §4.5).
type BootstrapResult struct {
	Standalone    bool
	SchemaVersion int // -1: fatal mismatch; 0: freshly written; >0: confirmed
}

// Bootstrap runs the TopologyBootstrap state machine against control: it
// issues CLUSTER SLOTS, falls back to a single standalone range on
// NOCLUSTER, loads COMMAND key-position metadata, and enforces the schema
// version (spec.md §4.5). It installs the resulting table into router and
// returns the resolved state; it never returns an error for a schema
// mismatch, since per spec "on_setup still fires" — callers should inspect
// result.SchemaVersion instead.
func Bootstrap(ctx context.Context, router *Router, control ServerRef, info InfoFunc) (*BootstrapResult, error) {
	if info == nil {
		info = func(InfoLevel, string) {}
	}

	result := &BootstrapResult{}

	// LOAD_SLOTS
	slots, err := control.Client.ClusterSlots(ctx).Result()
	switch {
	case isNoCluster(err):
		router.InstallStandalone()
		result.Standalone = true
		info(InfoInformational, "backend reports standalone mode; installed single-range topology")
	case err != nil:
		info(InfoRequestError, fmt.Sprintf("CLUSTER SLOTS failed: %s", err.Error()))
		return nil, err
	default:
		ranges, err := decodeClusterSlots(slots, router)
		if err != nil {
			info(InfoResponseMalformed, err.Error())
			return nil, err
		}
		router.InstallRanges(ranges)
	}

	if !router.Covered() {
		err := errors.New("slotrouter: installed topology does not cover all slots")
		info(InfoProtocolError, err.Error())
		return nil, err
	}

	// LOAD_KEYMAP
	cmds, err := control.Client.Command(ctx).Result()
	if err != nil {
		info(InfoRequestError, fmt.Sprintf("COMMAND failed: %s", err.Error()))
	} else {
		pos := make(map[string]int, len(cmds))
		for name, c := range cmds {
			if c.FirstKeyPos > 0 {
				pos[upper(name)] = int(c.FirstKeyPos)
			}
		}
		router.SetKeyPositions(pos)
	}

	// LOAD_VERSION
	version, err := loadSchemaVersion(ctx, control, info)
	if err != nil {
		return nil, err
	}
	result.SchemaVersion = version

	log.Infof("bootstrap complete: standalone=%v schema_version=%d", result.Standalone, result.SchemaVersion)
	return result, nil
}

func loadSchemaVersion(ctx context.Context, control ServerRef, info InfoFunc) (int, error) {
	val, err := control.Client.Get(ctx, schemaVersionKey).Result()
	switch {
	case errors.Is(err, redis.Nil), err == nil && (val == "" || val == "0"):
		if _, err := control.Client.Set(ctx, schemaVersionKey, SchemaVersion, 0).Result(); err != nil {
			info(InfoRequestError, fmt.Sprintf("SET %s failed: %s", schemaVersionKey, err.Error()))
			return -1, err
		}
		return 0, nil
	case err != nil:
		info(InfoRequestError, fmt.Sprintf("GET %s failed: %s", schemaVersionKey, err.Error()))
		return -1, err
	case val == SchemaVersion:
		return mustAtoi(SchemaVersion), nil
	default:
		info(InfoRequestError, fmt.Sprintf("unsupported schema (got v%s, expected v%s)", val, SchemaVersion))
		return -1, nil
	}
}

func isNoCluster(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(classify(err), ErrNoCluster)
}

func decodeClusterSlots(slots []redis.ClusterSlot, router *Router) ([]SlotRange, error) {
	ranges := make([]SlotRange, 0, len(slots))
	for _, s := range slots {
		if len(s.Nodes) == 0 {
			return nil, errors.New("slotrouter: CLUSTER SLOTS entry has no nodes")
		}
		master := s.Nodes[0]
		replicas := make([]ServerRef, 0, len(s.Nodes)-1)
		for _, n := range s.Nodes[1:] {
			replicas = append(replicas, dial(n.Addr))
		}
		ranges = append(ranges, SlotRange{
			Start:    s.Start,
			End:      s.End,
			Master:   dialNamed(master.Addr, router),
			Replicas: replicas,
		})
	}
	return ranges, nil
}

// dial opens a new pooled client for addr; it does not reuse existing ones.
func dial(addr string) ServerRef {
	return ServerRef{HostSpec: addr, Client: redis.NewClient(&redis.Options{Addr: addr})}
}

// dialNamed reuses the router's control connection when addr matches it
// (the common single-node-cluster case in tests), otherwise dials fresh.
func dialNamed(addr string, router *Router) ServerRef {
	if router.control.HostSpec == addr {
		return router.control
	}
	return dial(addr)
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

func mustAtoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}
