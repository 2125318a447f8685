// Package record defines the Flow Event produced by the Record Decoder:
// a timestamped, protocol-tagged structure ready to hand to a Sink.
package record

import (
	"encoding/json"
	"time"
)

// FailureTag marks an event emitted in place of flow records when a
// datagram could not be decoded.
const FailureTag = "_netflowdecodefailure"

// Event is one flow record (or one decode-failure notice) ready for the
// sink. Target names the container field the decoded fields nest
// under; it defaults to "netflow" but is configurable per §6.
type Event struct {
	Timestamp  time.Time
	SourceHost string
	Target     string
	Header     map[string]interface{}
	Fields     map[string]interface{}
	Failure    string // FailureTag when this event reports a decode failure, else empty
}

// New returns an event with empty header/field maps, ready for the
// Record Decoder to populate.
func New(target, sourceHost string, timestamp time.Time) *Event {
	return &Event{
		Timestamp:  timestamp,
		SourceHost: sourceHost,
		Target:     target,
		Header:     make(map[string]interface{}),
		Fields:     make(map[string]interface{}),
	}
}

// NewFailure builds a decode-failure event: no flow fields, just the
// human-readable message under the container field and the failure
// tag.
func NewFailure(target, sourceHost string, timestamp time.Time, message string) *Event {
	e := New(target, sourceHost, timestamp)
	e.Failure = FailureTag
	e.Fields["message"] = message
	return e
}

// SetHeader records a header-derived field (version, flow_seq_num,
// flowset_id, and similar) under the container field.
func (e *Event) SetHeader(name string, value interface{}) {
	e.Header[name] = value
}

// SetField records one decoded flow field under the container field,
// applying MAC/IP JSON normalization.
func (e *Event) SetField(name string, value interface{}) {
	e.Fields[name] = normalizeValue(value)
}

// MarshalJSON renders the event as the nested shape the sink contract
// requires: a top-level timestamp and source host, and a single
// container field (named by Target) holding the header fields merged
// with the decoded flow fields.
func (e *Event) MarshalJSON() ([]byte, error) {
	container := make(map[string]interface{}, len(e.Header)+len(e.Fields))
	for k, v := range e.Header {
		container[k] = v
	}
	for k, v := range e.Fields {
		container[k] = v
	}
	if e.Failure != "" {
		container["tags"] = e.Failure
	}

	out := map[string]interface{}{
		"timestamp":   ISO8601(e.Timestamp),
		"source_host": e.SourceHost,
		e.Target:      container,
	}
	return json.Marshal(out)
}
