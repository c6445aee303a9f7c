package api

import (
	"github.com/gin-gonic/gin"

	"github.com/raphael-dev/raphael/internal/apperr"
	"github.com/raphael-dev/raphael/internal/middleware"
)

// Router assembles the full Gin engine: ambient middleware chain, auth
// resolution, drop-resolution, and every route group (spec.md §4.H,
// §6). Grounded on the teacher's cmd/main.go setupRoutes idiom, scaled
// down from per-domain handler structs to one API value.
func (a *API) Router() *gin.Engine {
	r := gin.New()

	r.Use(
		apperr.Recovery(),
		middleware.RequestID(),
		middleware.StructuredLogger(),
		middleware.SecurityHeaders(),
		middleware.DisallowedHTTPMethods(),
		middleware.CORS(a.cfg.CORSAllowedOrigins),
		middleware.GzipWithExclusions(5, []string{"/ws"}),
		middleware.DefaultSizeLimiter(),
		middleware.Timeout(middleware.DefaultTimeoutConfig()),
		middleware.NewInputValidator().SanitizeJSONMiddleware(),
		a.auth.Resolve(),
		a.auth.LogAPIKeyUsage(),
		apperr.ErrorHandler(),
	)

	dropCtx := a.DropContext()

	v1 := r.Group("/v1")
	v1.Use(dropCtx)
	a.RegisterIngestRoutes(v1)

	apiQuery := r.Group("/api")
	apiQuery.Use(dropCtx)
	a.RegisterQueryRoutes(v1, apiQuery)

	a.RegisterAuthRoutes(r.Group("/auth"))
	a.RegisterAdminRoutes(r.Group("/api"))
	a.RegisterAccountRoutes(r.Group("/api/account"))
	a.RegisterWebSocketRoute(r.Group("/"))

	r.GET("/healthz", func(c *gin.Context) { c.Status(200) })

	return r
}
