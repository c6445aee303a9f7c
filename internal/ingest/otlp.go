// Package ingest normalizes OTLP spans, wide events, and OTLP logs
// into Row Store rows and stages them for the Broadcast Hub
// (spec.md §4.D).
package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/raphael-dev/raphael/internal/rowstore"
)

// --- OTLP/HTTP-JSON wire shapes, sized to what spec.md §4.D reads. ---

type otlpAnyValue struct {
	StringValue *string  `json:"stringValue"`
	IntValue    *string  `json:"intValue"` // OTLP JSON encodes int64 as a string
	BoolValue   *bool    `json:"boolValue"`
	DoubleValue *float64 `json:"doubleValue"`
}

type otlpKeyValue struct {
	Key   string       `json:"key"`
	Value otlpAnyValue `json:"value"`
}

type otlpStatus struct {
	Code int `json:"code"`
}

type otlpSpan struct {
	TraceID           string         `json:"traceId"`
	SpanID            string         `json:"spanId"`
	ParentSpanID      string         `json:"parentSpanId"`
	Name              string         `json:"name"`
	StartTimeUnixNano string         `json:"startTimeUnixNano"`
	EndTimeUnixNano   string         `json:"endTimeUnixNano"`
	Status            otlpStatus     `json:"status"`
	Attributes        []otlpKeyValue `json:"attributes"`
}

type otlpResource struct {
	Attributes []otlpKeyValue `json:"attributes"`
}

type otlpScopeSpans struct {
	Spans []otlpSpan `json:"spans"`
}

type otlpResourceSpans struct {
	Resource   otlpResource     `json:"resource"`
	ScopeSpans []otlpScopeSpans `json:"scopeSpans"`
}

// TracesRequest is the top-level body of POST /v1/traces.
type TracesRequest struct {
	ResourceSpans []otlpResourceSpans `json:"resourceSpans"`
}

// flattenAttributes turns an OTLP AnyValue array into a {key:
// primitive} map, preserving the wire type (spec.md §4.D).
func flattenAttributes(attrs []otlpKeyValue) map[string]interface{} {
	out := make(map[string]interface{}, len(attrs))
	for _, kv := range attrs {
		out[kv.Key] = anyValueToPrimitive(kv.Value)
	}
	return out
}

func anyValueToPrimitive(v otlpAnyValue) interface{} {
	switch {
	case v.StringValue != nil:
		return *v.StringValue
	case v.IntValue != nil:
		var n int64
		fmt.Sscanf(*v.IntValue, "%d", &n)
		return n
	case v.BoolValue != nil:
		return *v.BoolValue
	case v.DoubleValue != nil:
		return *v.DoubleValue
	default:
		return nil
	}
}

func attrString(attrs map[string]interface{}, key, fallback string) string {
	if v, ok := attrs[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

// canonicalTraceID reformats a 32-hex trace id into 8-4-4-4-12
// hyphenated form, left unchanged if its length isn't 32 (spec.md §4.D).
func canonicalTraceID(id string) string {
	if len(id) != 32 {
		return id
	}
	return fmt.Sprintf("%s-%s-%s-%s-%s", id[0:8], id[8:12], id[12:16], id[16:20], id[20:32])
}

func unixNanoToMS(nano string) (int64, bool) {
	if nano == "" || nano == "0" {
		return 0, false
	}
	var n int64
	if _, err := fmt.Sscanf(nano, "%d", &n); err != nil {
		return 0, false
	}
	return n / 1_000_000, true
}

// NormalizeSpans flattens an OTLP traces request into Row Store Span
// rows for dropID. Any malformed JSON inside attributes.Marshal fails
// the whole request (spec.md §4.D error semantics) — the caller is
// expected to have already decoded the top-level envelope.
func NormalizeSpans(req *TracesRequest, dropID string) ([]*rowstore.Span, error) {
	now := nowMS()
	var out []*rowstore.Span

	for _, rs := range req.ResourceSpans {
		resourceAttrs := flattenAttributes(rs.Resource.Attributes)
		serviceName := attrString(resourceAttrs, "service.name", "unknown")

		for _, ss := range rs.ScopeSpans {
			for _, s := range ss.Spans {
				attrs := flattenAttributes(s.Attributes)
				attrsJSON, err := json.Marshal(attrs)
				if err != nil {
					return nil, fmt.Errorf("marshal span attributes: %w", err)
				}

				startMS, hasStart := unixNanoToMS(s.StartTimeUnixNano)
				endMS, hasEnd := unixNanoToMS(s.EndTimeUnixNano)

				var endPtr *int64
				var durationPtr *int64
				if hasEnd {
					endPtr = &endMS
					if hasStart {
						d := endMS - startMS
						durationPtr = &d
					}
				}

				var parentPtr *string
				if s.ParentSpanID != "" {
					parentPtr = &s.ParentSpanID
				}

				status := "ok"
				if s.Status.Code == 2 {
					status = "error"
				}

				out = append(out, &rowstore.Span{
					ID:             uuid.NewString(),
					DropID:         dropID,
					TraceID:        canonicalTraceID(s.TraceID),
					SpanID:         s.SpanID,
					ParentSpanID:   parentPtr,
					ServiceName:    serviceName,
					OperationName:  s.Name,
					StartTime:      startMS,
					EndTime:        endPtr,
					DurationMS:     durationPtr,
					Status:         status,
					AttributesJSON: string(attrsJSON),
					CreatedAt:      now,
				})
			}
		}
	}
	return out, nil
}
