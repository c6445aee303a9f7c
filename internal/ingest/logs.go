package ingest

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/raphael-dev/raphael/internal/rowstore"
)

type otlpLogRecord struct {
	Body       otlpAnyValue   `json:"body"`
	Attributes []otlpKeyValue `json:"attributes"`
}

type otlpScopeLogs struct {
	LogRecords []otlpLogRecord `json:"logRecords"`
}

type otlpResourceLogs struct {
	Resource  otlpResource    `json:"resource"`
	ScopeLogs []otlpScopeLogs `json:"scopeLogs"`
}

// LogsRequest is the top-level body of POST /v1/logs.
type LogsRequest struct {
	ResourceLogs []otlpResourceLogs `json:"resourceLogs"`
}

const wideEventMarker = "[WIDE_EVENT]"

func isWideEventLog(attrs map[string]interface{}, body string) bool {
	if v, ok := attrs["log.type"]; ok {
		if s, ok := v.(string); ok && s == "wide_event" {
			return true
		}
	}
	return strings.Contains(body, wideEventMarker)
}

// NormalizeLogsAsEvents filters an OTLP logs request down to records
// marked as wide events and maps them identically to NormalizeEvent
// (spec.md §4.D).
func NormalizeLogsAsEvents(req *LogsRequest, dropID string) ([]*rowstore.WideEvent, error) {
	now := nowMS()
	var out []*rowstore.WideEvent

	for _, rl := range req.ResourceLogs {
		for _, sl := range rl.ScopeLogs {
			for _, rec := range sl.LogRecords {
				attrs := flattenAttributes(rec.Attributes)
				body := ""
				if rec.Body.StringValue != nil {
					body = *rec.Body.StringValue
				}
				if !isWideEventLog(attrs, body) {
					continue
				}

				raw := RawEvent{}
				for k, v := range attrs {
					raw[k] = v
				}
				if _, ok := raw["body"]; !ok {
					raw["body"] = body
				}

				attrsJSON, err := json.Marshal(raw)
				if err != nil {
					return nil, err
				}
				out = append(out, &rowstore.WideEvent{
					ID:             uuid.NewString(),
					DropID:         dropID,
					TraceID:        stringFieldPtr(raw, "trace_id"),
					ServiceName:    fallback(stringField(raw, "service.name"), "unknown"),
					OperationType:  stringFieldPtr(raw, "graphql.operation_type"),
					FieldName:      stringFieldPtr(raw, "graphql.field_name"),
					Outcome:        fallback(stringField(raw, "outcome"), "unknown"),
					DurationMS:     coerceDuration(raw, "duration.total_ms"),
					UserID:         stringFieldPtr(raw, "user.id"),
					ErrorCount:     coerceCount(raw, "error_count"),
					RPCCallCount:   coerceCount(raw, "count.rpc_calls"),
					AttributesJSON: string(attrsJSON),
					CreatedAt:      now,
				})
			}
		}
	}
	return out, nil
}
