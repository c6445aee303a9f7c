package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/raphael-dev/raphael/internal/apperr"
	"github.com/raphael-dev/raphael/internal/auth"
	"github.com/raphael-dev/raphael/internal/ingest"
	"github.com/raphael-dev/raphael/internal/logger"
	"github.com/raphael-dev/raphael/internal/rowstore"
)

// RegisterIngestRoutes wires the OTLP-shaped ingest endpoints (spec.md
// §4.D, §6). Every route resolves a Drop and requires ingest capability
// before the body is normalized.
func (a *API) RegisterIngestRoutes(rg *gin.RouterGroup) {
	dropGate := a.auth.RequireDropAccess(dropIDFromContext, auth.ActionIngest)

	rg.POST("/traces", dropGate, a.handleIngestTraces)
	rg.POST("/events", dropGate, a.handleIngestEvents)
	rg.POST("/logs", dropGate, a.handleIngestLogs)
}

func (a *API) handleIngestTraces(c *gin.Context) {
	dropID := dropIDFromContext(c)

	var req ingest.TracesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.AbortWithError(c, apperr.NewWithDetails(apperr.CodeBadInput, "request body is not a valid OTLP traces export", err.Error()))
		return
	}

	spans, err := ingest.NormalizeSpans(&req, dropID)
	if err != nil {
		apperr.AbortWithError(c, apperr.NewWithDetails(apperr.CodeBadInput, "failed to normalize spans", err.Error()))
		return
	}

	n, err := a.ingest.IngestSpans(dropID, spans)
	if err != nil {
		logger.Ingest().Error().Err(err).Str("drop_id", dropID).Msg("failed to ingest spans")
		apperr.AbortWithError(c, apperr.InternalFrom(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"accepted": n})
}

func (a *API) handleIngestEvents(c *gin.Context) {
	dropID := dropIDFromContext(c)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		apperr.AbortWithError(c, apperr.NewWithDetails(apperr.CodeBadInput, "failed to read request body", err.Error()))
		return
	}

	raw, err := ingest.DecodeEventsBody(body)
	if err != nil {
		apperr.AbortWithError(c, apperr.NewWithDetails(apperr.CodeBadInput, "request body is not a valid wide event or array of events", err.Error()))
		return
	}

	events := make([]*rowstore.WideEvent, 0, len(raw))
	for _, r := range raw {
		ev, err := ingest.NormalizeEvent(r, dropID)
		if err != nil {
			logger.Ingest().Warn().Err(err).Str("drop_id", dropID).Msg("dropped malformed wide event")
			continue
		}
		events = append(events, ev)
	}

	n, err := a.ingest.IngestEvents(dropID, events)
	if err != nil {
		logger.Ingest().Error().Err(err).Str("drop_id", dropID).Msg("failed to ingest wide events")
		apperr.AbortWithError(c, apperr.InternalFrom(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"accepted": n})
}

func (a *API) handleIngestLogs(c *gin.Context) {
	dropID := dropIDFromContext(c)

	var req ingest.LogsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.AbortWithError(c, apperr.NewWithDetails(apperr.CodeBadInput, "request body is not a valid OTLP logs export", err.Error()))
		return
	}

	events, err := ingest.NormalizeLogsAsEvents(&req, dropID)
	if err != nil {
		apperr.AbortWithError(c, apperr.NewWithDetails(apperr.CodeBadInput, "failed to normalize logs", err.Error()))
		return
	}

	n, err := a.ingest.IngestEvents(dropID, events)
	if err != nil {
		logger.Ingest().Error().Err(err).Str("drop_id", dropID).Msg("failed to ingest logs-as-events")
		apperr.AbortWithError(c, apperr.InternalFrom(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"accepted": n})
}
