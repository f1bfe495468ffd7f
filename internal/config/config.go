// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pcp-redis-bridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config follows the teacher's own config.go/schema.go/validate.go
// triad (a package-level Keys value decoded from JSON and validated against
// an embedded JSON Schema) but describes this service's own domain: Redis
// endpoints, cluster mode, schema-version enforcement, and the worker/rate
// tuning of the mapping pipeline, instead of the teacher's HTTP/DB/UI
// defaults.
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"time"

	"github.com/performancecopilot/pcp-redis-bridge/log"
)

// MappingTuning rate-limits the start of the mapping pipeline's new-name
// round trips (internal/mapping.New's rps/burst parameters).
type MappingTuning struct {
	RequestsPerSecond float64 `json:"requestsPerSecond"`
	Burst             int     `json:"burst"`
}

// Settings is the decoded configuration file.
type Settings struct {
	Control              string        `json:"control"`
	Cluster              bool          `json:"cluster"`
	EnforceSchemaVersion bool          `json:"enforceSchemaVersion"`
	Mapping              MappingTuning `json:"mapping"`
	RefreshInterval      string        `json:"refreshInterval"`
	Workers              int           `json:"workers"`
}

// RefreshEvery parses RefreshInterval, falling back to a sane default if the
// field was left empty or unparsable.
func (s Settings) RefreshEvery() time.Duration {
	if s.RefreshInterval == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(s.RefreshInterval)
	if err != nil {
		log.Warnf("config: invalid refreshInterval %q, using default: %s", s.RefreshInterval, err.Error())
		return 30 * time.Second
	}
	return d
}

// Keys holds the process-wide configuration, following the teacher's
// package-level-variable convention. Defaults here match a single
// standalone backend on localhost so the binary is runnable without a
// config file during development.
var Keys = Settings{
	Control:              "127.0.0.1:6379",
	Cluster:              true,
	EnforceSchemaVersion: true,
	Mapping:              MappingTuning{RequestsPerSecond: 500, Burst: 50},
	RefreshInterval:      "30s",
	Workers:              4,
}

// Init reads flagConfigFile, validates it against Schema, and decodes it
// into Keys. A missing file is not an error (Keys keeps its defaults); a
// present-but-invalid file is fatal, matching the teacher's own
// log.Fatalf-on-bad-config startup behavior.
func Init(flagConfigFile string) {
	raw, err := os.ReadFile(flagConfigFile)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("config: reading %s: %s", flagConfigFile, err.Error())
		}
		return
	}

	if err := Validate(Schema, raw); err != nil {
		log.Fatalf("config: %s", err.Error())
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&Keys); err != nil {
		log.Fatalf("config: decoding %s: %s", flagConfigFile, err.Error())
	}

	if Keys.Control == "" {
		log.Fatal("config: \"control\" is required")
	}
}
