// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

// Package event normalizes rsyslog "jsonmesg" records into the flat document
// shape stored in the logs table.
package event

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Raw is one line of rsyslog omprog output, as produced by the jsonmesg
// property. Field names follow the rsyslog property names verbatim.
type Raw struct {
	Msg              string          `json:"msg"`
	RawMsg           string          `json:"rawmsg"`
	TimeReported     time.Time       `json:"timereported"`
	TimeGenerated    time.Time       `json:"timegenerated"`
	Hostname         string          `json:"hostname"`
	Syslogtag        string          `json:"syslogtag"`
	Inputname        string          `json:"inputname"`
	Fromhost         string          `json:"fromhost"`
	FromhostIP       string          `json:"fromhost-ip"`
	Pri              string          `json:"pri"`
	SyslogSeverity   string          `json:"syslogseverity"`
	SyslogFacility   string          `json:"syslogfacility"`
	Programname      string          `json:"programname"`
	ProtocolVersion  string          `json:"protocol-version"`
	StructuredData   string          `json:"structured-data"`
	AppName          string          `json:"app-name"`
	Procid           *string         `json:"procid"`
	Msgid            *string         `json:"msgid"`
	UUID             *string         `json:"uuid"`
	MessageVariables json.RawMessage `json:"$!"`
}

// severityNames maps the decimal severity codes rsyslog emits to their
// conventional names.
var severityNames = map[string]string{
	"0": "emergency",
	"1": "alert",
	"2": "critical",
	"3": "error",
	"4": "warning",
	"5": "notice",
	"6": "info",
	"7": "debug",
}

var facilityNames = map[string]string{
	"0":  "kern",
	"1":  "user",
	"2":  "mail",
	"3":  "daemon",
	"4":  "auth",
	"5":  "syslog",
	"6":  "lpr",
	"7":  "news",
	"8":  "uucp",
	"9":  "cron",
	"10": "authpriv",
	"11": "ftp",
	"12": "ntp",
	"13": "security",
	"14": "console",
	"15": "solariscron",
	"16": "local0",
	"17": "local1",
	"18": "local2",
	"19": "local3",
	"20": "local4",
	"21": "local5",
	"22": "local6",
	"23": "local7",
}

// ftsFields are the doc keys whose values feed the text-search column
// directly. Everything under vars. is indexed as key=value pairs.
var ftsFields = map[string]bool{
	"hostname":  true,
	"syslogtag": true,
	"msg":       true,
}

// Event is a normalized log record: the report timestamp that drives
// partitioning, plus a flat document of string keys.
type Event struct {
	Timestamp time.Time
	Doc       map[string]any
}

// FromRaw builds the canonical document. rawmsg, pri and structured-data are
// dropped, numeric severity and facility codes become their textual names,
// and the free-form variable tree is flattened into vars.<dotted.path> keys.
func FromRaw(raw *Raw) (*Event, error) {
	severity, ok := severityNames[raw.SyslogSeverity]
	if !ok {
		return nil, fmt.Errorf("invalid syslogseverity %q", raw.SyslogSeverity)
	}
	facility, ok := facilityNames[raw.SyslogFacility]
	if !ok {
		return nil, fmt.Errorf("invalid syslogfacility %q", raw.SyslogFacility)
	}

	doc := map[string]any{
		"msg":              raw.Msg,
		"timereported":     raw.TimeReported.Format(time.RFC3339),
		"timegenerated":    raw.TimeGenerated.Format(time.RFC3339),
		"hostname":         raw.Hostname,
		"inputname":        raw.Inputname,
		"syslogtag":        raw.Syslogtag,
		"fromhost":         raw.Fromhost,
		"fromhost_ip":      raw.FromhostIP,
		"syslogfacility":   facility,
		"syslogseverity":   severity,
		"programname":      raw.Programname,
		"protocol_version": raw.ProtocolVersion,
		"app_name":         raw.AppName,
	}
	if raw.Procid != nil {
		doc["procid"] = *raw.Procid
	}
	if raw.Msgid != nil {
		doc["msgid"] = *raw.Msgid
	}
	if raw.UUID != nil {
		doc["uuid"] = *raw.UUID
	}
	if len(raw.MessageVariables) > 0 {
		var vars any
		if err := json.Unmarshal(raw.MessageVariables, &vars); err != nil {
			return nil, fmt.Errorf("invalid message variables: %w", err)
		}
		flattenValue(vars, doc, "vars", ".")
	}

	return &Event{Timestamp: raw.TimeReported, Doc: doc}, nil
}

// flattenValue unnests objects into target using dotted keys; scalars and
// arrays land as-is under their accumulated prefix.
func flattenValue(value any, target map[string]any, prefix, separator string) {
	obj, ok := value.(map[string]any)
	if !ok {
		target[prefix] = value
		return
	}
	for key, sub := range obj {
		subprefix := key
		if prefix != "" {
			subprefix = prefix + separator + key
		}
		flattenValue(sub, target, subprefix, separator)
	}
}

// SearchString collects the text fed to to_tsvector: the JSON forms of the
// full-text fields plus key=value pairs for every flattened variable. Keys
// are visited in sorted order so the result does not depend on map layout.
func (e *Event) SearchString() string {
	keys := make([]string, 0, len(e.Doc))
	for key := range e.Doc {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var parts []string
	for _, key := range keys {
		switch {
		case ftsFields[key]:
			parts = append(parts, jsonText(e.Doc[key]))
		case strings.HasPrefix(key, "vars."):
			parts = append(parts, key+"="+jsonText(e.Doc[key]))
		}
	}
	return strings.Join(parts, " ")
}

// SwapVarsMsg returns a copy with msg and vars.msg exchanged, used when the
// daemon-provided application message should take the primary slot. Events
// without a vars.msg come back unchanged (still copied).
func (e *Event) SwapVarsMsg() *Event {
	doc := make(map[string]any, len(e.Doc))
	for key, value := range e.Doc {
		doc[key] = value
	}
	if varsMsg, ok := doc["vars.msg"]; ok {
		doc["vars.msg"] = doc["msg"]
		doc["msg"] = varsMsg
	}
	return &Event{Timestamp: e.Timestamp, Doc: doc}
}

// Printable renders a doc entry for display. Arrays and objects flatten to
// space-joined key=value pairs. The second return is false when the key is
// absent.
func (e *Event) Printable(key string) (string, bool) {
	value, ok := e.Doc[key]
	if !ok {
		return "", false
	}
	switch v := value.(type) {
	case string:
		return v, true
	case []any, map[string]any:
		return flatten(v), true
	default:
		return jsonText(v), true
	}
}

func flatten(value any) string {
	unnested := map[string]any{}
	flattenValue(value, unnested, "", ".")
	keys := make([]string, 0, len(unnested))
	for key := range unnested {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, key := range keys {
		parts[i] = key + "=" + jsonText(unnested[key])
	}
	return strings.Join(parts, " ")
}

func jsonText(value any) string {
	text, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return string(text)
}
