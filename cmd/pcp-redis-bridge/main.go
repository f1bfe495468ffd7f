// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pcp-redis-bridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/performancecopilot/pcp-redis-bridge/internal/config"
	"github.com/performancecopilot/pcp-redis-bridge/internal/ingest"
	"github.com/performancecopilot/pcp-redis-bridge/internal/internmap"
	"github.com/performancecopilot/pcp-redis-bridge/internal/mapping"
	"github.com/performancecopilot/pcp-redis-bridge/internal/slotrouter"
	"github.com/performancecopilot/pcp-redis-bridge/log"
)

// version is set via -ldflags at build time; "dev" is the fallback used for
// local builds.
var version = "dev"

// applyLogLevel reproduces log.init's LOGLEVEL-env-var handling for the
// -loglevel flag, since the log package only exposes its writers, not a
// setter: the flag is parsed after the package's own init has already run.
func applyLogLevel(level string) {
	switch level {
	case "err", "fatal":
		log.WarnWriter = io.Discard
		fallthrough
	case "warn":
		log.InfoWriter = io.Discard
		fallthrough
	case "info":
		log.DebugWriter = io.Discard
	case "debug":
		log.DebugWriter, log.InfoWriter, log.WarnWriter = os.Stderr, os.Stderr, os.Stderr
	default:
		log.Warnf("invalid -loglevel %q, keeping LOGLEVEL env default", level)
	}
}

func main() {
	cliInit()

	if flagVersion {
		fmt.Printf("pcp-redis-bridge version %s\n", version)
		return
	}
	applyLogLevel(flagLogLevel)

	config.Init(flagConfigFile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := redis.NewClient(&redis.Options{Addr: config.Keys.Control})
	control := slotrouter.ServerRef{HostSpec: config.Keys.Control, Client: client}
	router := slotrouter.New(control)

	if config.Keys.Cluster {
		result, err := ingest.Setup(ctx, router, control, func(level ingest.InfoLevel, msg string) {
			log.Warnf("[SETUP]> %s", msg)
		})
		if err != nil {
			log.Fatalf("bootstrap failed: %s", err.Error())
		}
		if result.SchemaVersion < 0 && config.Keys.EnforceSchemaVersion {
			log.Fatalf("unsupported schema version reported by backend; refusing to start")
		}
	} else {
		router.InstallStandalone()
	}

	pipeline := mapping.New(router, config.Keys.Mapping.RequestsPerSecond, config.Keys.Mapping.Burst)
	maps := internmap.NewRegistry()

	reg := prometheus.NewRegistry()
	metrics := ingest.NewMetrics(reg)
	// This binary only proves out the process wiring (bootstrap, topology
	// refresh, metrics exposition); the actual Load() calls come from the
	// PCP acquisition side embedding this core as a library, which is out of
	// scope here (spec.md Non-goals).
	core := ingest.New(router, pipeline, maps, func(level ingest.InfoLevel, msg string) {
		log.Warnf("[INGEST]> %s", msg)
	}, metrics)
	log.Infof("ingest core ready: control=%s cluster=%v workers=%d", config.Keys.Control, config.Keys.Cluster, config.Keys.Workers)
	_ = core

	scheduler, err := slotrouter.StartRefresh(ctx, router, control, config.Keys.RefreshEvery())
	if err != nil {
		log.Fatalf("starting topology refresh: %s", err.Error())
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: flagMetricsAddr, Handler: mux}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Infof("metrics listening at %s", flagMetricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("metrics server: %s", err.Error())
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	log.Info("shutting down")
	cancel()
	server.Shutdown(context.Background())
	if err := scheduler.Shutdown(); err != nil {
		log.Warnf("scheduler shutdown: %s", err.Error())
	}
	wg.Wait()
	log.Print("graceful shutdown completed")
}
