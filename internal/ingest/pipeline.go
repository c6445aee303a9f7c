package ingest

import (
	"encoding/json"

	"github.com/raphael-dev/raphael/internal/broadcast"
	"github.com/raphael-dev/raphael/internal/logger"
	"github.com/raphael-dev/raphael/internal/rowstore"
)

// Pipeline implements spec.md §4.D's shared
// normalize→append→insertRows→stage pattern for both spans and events.
type Pipeline struct {
	db                *rowstore.Database
	hub               *broadcast.Hub
	maxBroadcastItems int
	batchSize         int
}

func NewPipeline(db *rowstore.Database, hub *broadcast.Hub, maxBroadcastItems, batchSize int) *Pipeline {
	if maxBroadcastItems <= 0 {
		maxBroadcastItems = 500
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	return &Pipeline{db: db, hub: hub, maxBroadcastItems: maxBroadcastItems, batchSize: batchSize}
}

// ring keeps only the most recent n elements of a batch — the bounded
// ring buffer's overflow behavior (discard oldest) collapses to a
// tail-slice when staging happens after the whole batch is already in
// memory (spec.md §4.D).
func ring[T any](items []T, capacity int) []T {
	if len(items) <= capacity {
		return items
	}
	return items[len(items)-capacity:]
}

func chunks[T any](items []T, size int) [][]T {
	var out [][]T
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[i:end])
	}
	return out
}

// IngestSpans writes spans and, only if the Drop has live subscribers,
// stages and broadcasts them in batchSize chunks.
func (p *Pipeline) IngestSpans(dropID string, spans []*rowstore.Span) (int, error) {
	if len(spans) == 0 {
		return 0, nil
	}
	hasSubs := p.hub.HasSubscribers(dropID)

	var staged []*rowstore.Span
	if hasSubs {
		staged = ring(spans, p.maxBroadcastItems)
	}

	if err := p.db.InsertSpans(spans); err != nil {
		return 0, err
	}

	if hasSubs {
		for _, chunk := range chunks(staged, p.batchSize) {
			p.broadcastSpans(dropID, chunk)
		}
	}
	return len(spans), nil
}

// IngestEvents mirrors IngestSpans for wide events.
func (p *Pipeline) IngestEvents(dropID string, events []*rowstore.WideEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	hasSubs := p.hub.HasSubscribers(dropID)

	var staged []*rowstore.WideEvent
	if hasSubs {
		staged = ring(events, p.maxBroadcastItems)
	}

	if err := p.db.InsertEvents(events); err != nil {
		return 0, err
	}

	if hasSubs {
		for _, chunk := range chunks(staged, p.batchSize) {
			p.broadcastEvents(dropID, chunk)
		}
	}
	return len(events), nil
}

func (p *Pipeline) broadcastSpans(dropID string, spans []*rowstore.Span) {
	payload, err := json.Marshal(map[string]any{"type": "traces", "drop_id": dropID, "data": spans})
	if err != nil {
		logger.Ingest().Error().Err(err).Msg("failed to marshal span broadcast")
		return
	}
	p.hub.Broadcast(payload, dropID)
}

func (p *Pipeline) broadcastEvents(dropID string, events []*rowstore.WideEvent) {
	payload, err := json.Marshal(map[string]any{"type": "wide_events", "drop_id": dropID, "data": events})
	if err != nil {
		logger.Ingest().Error().Err(err).Msg("failed to marshal event broadcast")
		return
	}
	p.hub.Broadcast(payload, dropID)
}
