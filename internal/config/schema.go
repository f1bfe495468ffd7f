// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pcp-redis-bridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

// Schema is the JSON Schema every config file is validated against before
// decoding, following the teacher's config/validate.go pattern of an
// embedded schema string rather than a struct-tag validator.
const Schema = `
{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"title": "pcp-redis-bridge configuration",
	"type": "object",
	"properties": {
		"control": {
			"type": "string",
			"description": "host:port of the control connection used for CLUSTER SLOTS, COMMAND and the schema-version key"
		},
		"cluster": {
			"type": "boolean",
			"description": "if false, skip the startup bootstrap and install a single standalone range; the periodic topology refresh still issues CLUSTER SLOTS"
		},
		"enforceSchemaVersion": {
			"type": "boolean",
			"description": "treat a schema-version mismatch reported by on_setup as fatal"
		},
		"mapping": {
			"type": "object",
			"properties": {
				"requestsPerSecond": {"type": "number", "minimum": 0},
				"burst": {"type": "integer", "minimum": 1}
			}
		},
		"refreshInterval": {
			"type": "string",
			"description": "Go duration string for the periodic CLUSTER SLOTS refresh (e.g. \"30s\")"
		},
		"workers": {
			"type": "integer",
			"minimum": 1,
			"description": "number of concurrent Load batches; reported in the startup log only, the ingest surface does not limit concurrent Loads by it"
		}
	},
	"required": ["control"],
	"additionalProperties": false
}
`
