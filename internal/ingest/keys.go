// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pcp-redis-bridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ingest wires MappingPipeline and SlotRouter together into the
// two writers spec.md §4.7/§4.8 describe (MetadataWriter, StreamWriter)
// and the per-sample Load Context orchestration of §4.9/§6. The key
// namespace below is the external interface of spec.md §6 and must not
// drift from it — other tools read these keys directly.
package ingest

import "fmt"

func keySchemaVersion() string { return "pcp:version:schema" }

func keyMap(mapname string) string     { return fmt.Sprintf("pcp:map:%s", mapname) }
func keyChannel(mapname string) string { return fmt.Sprintf("pcp:channel:%s", mapname) }

func keySourceByContextName(contextID string) string {
	return fmt.Sprintf("pcp:source:context.name:%s", contextID)
}
func keyContextNameBySource(sourceHash string) string {
	return fmt.Sprintf("pcp:context.name:source:%s", sourceHash)
}
func keySourceLocation() string { return "pcp:source:location" }

func keySeriesByMetricName(nameID string) string {
	return fmt.Sprintf("pcp:series:metric.name:%s", nameID)
}
func keyMetricNameBySeries(seriesHash string) string {
	return fmt.Sprintf("pcp:metric.name:series:%s", seriesHash)
}
func keyDescSeries(seriesHash string) string {
	return fmt.Sprintf("pcp:desc:series:%s", seriesHash)
}
func keySeriesBySource(sourceHash string) string {
	return fmt.Sprintf("pcp:series:source:%s", sourceHash)
}

func keySeriesByInstName(instNameID string) string {
	return fmt.Sprintf("pcp:series:inst.name:%s", instNameID)
}
func keyInstancesBySeries(seriesHash string) string {
	return fmt.Sprintf("pcp:instances:series:%s", seriesHash)
}
func keyInstSeries(instHash string) string {
	return fmt.Sprintf("pcp:inst:series:%s", instHash)
}

func keyLabelFlagsSeries(hash string) string {
	return fmt.Sprintf("pcp:labelflags:series:%s", hash)
}
func keyLabelValueSeries(hash string) string {
	return fmt.Sprintf("pcp:labelvalue:series:%s", hash)
}
func keySeriesByLabelValue(labelNameHash, labelValueHash string) string {
	return fmt.Sprintf("pcp:series:label.%s.value:%s", labelNameHash, labelValueHash)
}

func keyValuesSeries(seriesHash string) string {
	return fmt.Sprintf("pcp:values:series:%s", seriesHash)
}
