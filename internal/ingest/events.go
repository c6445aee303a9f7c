package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/raphael-dev/raphael/internal/apperr"
	"github.com/raphael-dev/raphael/internal/rowstore"
)

func nowMS() int64 { return time.Now().UnixMilli() }

// RawEvent is one wide event as received by POST /v1/events — a flat
// JSON object using dotted keys for the structured columns, with
// everything else preserved verbatim as attributes_json (spec.md §4.D).
type RawEvent = map[string]interface{}

// DecodeEventsBody accepts either a single event object or a JSON
// array of events (spec.md §4.D).
func DecodeEventsBody(raw []byte) ([]RawEvent, error) {
	trimmed := trimLeadingSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var events []RawEvent
		if err := json.Unmarshal(raw, &events); err != nil {
			return nil, fmt.Errorf("decode events array: %w", err)
		}
		return events, nil
	}
	var single RawEvent
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return []RawEvent{single}, nil
}

func trimLeadingSpace(b []byte) []byte {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t' || b[i] == '\n' || b[i] == '\r') {
		i++
	}
	return b[i:]
}

func stringField(e RawEvent, key string) string {
	if v, ok := e[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func stringFieldPtr(e RawEvent, key string) *string {
	s := stringField(e, key)
	if s == "" {
		return nil
	}
	return &s
}

// coerceCount coerces a numeric field to an int64, defaulting
// non-finite or missing values to 0 (spec.md §4.D).
func coerceCount(e RawEvent, key string) int64 {
	v, ok := e[key]
	if !ok {
		return 0
	}
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int64(f)
}

// coerceDuration coerces a numeric field to *int64, defaulting
// non-finite or missing values to nil (spec.md §4.D).
func coerceDuration(e RawEvent, key string) *int64 {
	v, ok := e[key]
	if !ok {
		return nil
	}
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	n := int64(f)
	return &n
}

// NormalizeEvent builds a Row Store WideEvent from one raw event,
// preserving the entire original object as attributes_json (spec.md §4.D).
func NormalizeEvent(e RawEvent, dropID string) (*rowstore.WideEvent, error) {
	attrsJSON, err := json.Marshal(e)
	if err != nil {
		return nil, apperr.Internal("failed to marshal event attributes")
	}
	return &rowstore.WideEvent{
		ID:             uuid.NewString(),
		DropID:         dropID,
		TraceID:        stringFieldPtr(e, "trace_id"),
		ServiceName:    fallback(stringField(e, "service.name"), "unknown"),
		OperationType:  stringFieldPtr(e, "graphql.operation_type"),
		FieldName:      stringFieldPtr(e, "graphql.field_name"),
		Outcome:        fallback(stringField(e, "outcome"), "unknown"),
		DurationMS:     coerceDuration(e, "duration.total_ms"),
		UserID:         stringFieldPtr(e, "user.id"),
		ErrorCount:     coerceCount(e, "error_count"),
		RPCCallCount:   coerceCount(e, "count.rpc_calls"),
		AttributesJSON: string(attrsJSON),
		CreatedAt:      nowMS(),
	}, nil
}

func fallback(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
