package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/raphael-dev/raphael/internal/apperr"
	"github.com/raphael-dev/raphael/internal/auth"
	"github.com/raphael-dev/raphael/internal/query"
)

// RegisterQueryRoutes wires the envelope-style query endpoints plus the
// convenience aliases the UI uses for quick reads (spec.md §4.E, §6).
func (a *API) RegisterQueryRoutes(v1 *gin.RouterGroup, apiGroup *gin.RouterGroup) {
	dropGate := a.auth.RequireDropAccess(dropIDFromContext, auth.ActionQuery)

	v1.POST("/query/traces", dropGate, a.handleQueryTraces)
	v1.POST("/query/events", dropGate, a.handleQueryEvents)
	v1.GET("/query/traces/:traceId", dropGate, a.handleTraceDrillDown)

	apiGroup.GET("/traces", dropGate, a.handleQueryTraces)
	apiGroup.GET("/events", dropGate, a.handleQueryEvents)
	apiGroup.GET("/traces/:id", dropGate, a.handleTraceDrillDownByParam("id"))
	apiGroup.GET("/search/traces", dropGate, a.handleSearchTraces)
	apiGroup.GET("/search/events", dropGate, a.handleSearchEvents)
	apiGroup.GET("/stats", dropGate, a.handleStats)
	apiGroup.DELETE("/clear", dropGate, a.handleClearDrop)
}

func bindEnvelope(c *gin.Context) (query.Envelope, bool) {
	var e query.Envelope
	if c.Request.Method == http.MethodGet {
		e.Q = c.Query("q")
		e.Order = c.Query("order")
		return e, true
	}
	if c.Request.ContentLength == 0 {
		return e, true
	}
	if err := c.ShouldBindJSON(&e); err != nil {
		apperr.AbortWithError(c, apperr.NewWithDetails(apperr.CodeBadInput, "request body is not a valid query envelope", err.Error()))
		return e, false
	}
	return e, true
}

func (a *API) handleQueryTraces(c *gin.Context) {
	e, ok := bindEnvelope(c)
	if !ok {
		return
	}
	spans, err := a.query.QuerySpans(dropIDFromContext(c), e)
	if err != nil {
		apperr.AbortWithError(c, apperr.InternalFrom(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"spans": spans})
}

func (a *API) handleQueryEvents(c *gin.Context) {
	e, ok := bindEnvelope(c)
	if !ok {
		return
	}
	events, err := a.query.QueryEvents(dropIDFromContext(c), e)
	if err != nil {
		apperr.AbortWithError(c, apperr.InternalFrom(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (a *API) handleSearchTraces(c *gin.Context) {
	e, ok := bindEnvelope(c)
	if !ok {
		return
	}
	spans, err := a.query.QuerySpans(dropIDFromContext(c), e)
	if err != nil {
		apperr.AbortWithError(c, apperr.InternalFrom(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"spans": spans})
}

func (a *API) handleSearchEvents(c *gin.Context) {
	e, ok := bindEnvelope(c)
	if !ok {
		return
	}
	events, err := a.query.QueryEvents(dropIDFromContext(c), e)
	if err != nil {
		apperr.AbortWithError(c, apperr.InternalFrom(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (a *API) handleTraceDrillDown(c *gin.Context) {
	a.traceDrillDown(c, c.Param("traceId"))
}

func (a *API) handleTraceDrillDownByParam(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		a.traceDrillDown(c, c.Param(param))
	}
}

func (a *API) traceDrillDown(c *gin.Context, traceID string) {
	if traceID == "" {
		apperr.AbortWithError(c, apperr.BadInput("traceId is required"))
		return
	}
	detail, err := a.query.TraceDrillDown(dropIDFromContext(c), traceID)
	if err != nil {
		apperr.AbortWithError(c, apperr.InternalFrom(err))
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (a *API) handleStats(c *gin.Context) {
	stats, err := a.db.Stats(dropIDFromContext(c))
	if err != nil {
		apperr.AbortWithError(c, apperr.InternalFrom(err))
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (a *API) handleClearDrop(c *gin.Context) {
	if err := a.db.ClearDrop(dropIDFromContext(c)); err != nil {
		apperr.AbortWithError(c, apperr.InternalFrom(err))
		return
	}
	c.Status(http.StatusNoContent)
}
