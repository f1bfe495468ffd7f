// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pcp-redis-bridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import "flag"

var (
	flagVersion                                   bool
	flagConfigFile, flagLogLevel, flagMetricsAddr string
)

func cliInit() {
	flag.BoolVar(&flagVersion, "version", false, "Show version information and exit")
	flag.StringVar(&flagConfigFile, "config", "./config.json", "Specify alternative path to `config.json`")
	flag.StringVar(&flagLogLevel, "loglevel", "warn", "Sets the logging level: `[debug, info, warn, err, fatal]`")
	flag.StringVar(&flagMetricsAddr, "metrics-addr", ":9000", "Address the Prometheus /metrics endpoint listens on")
	flag.Parse()
}
