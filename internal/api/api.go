// Package api is the HTTP Surface (spec.md §4.H): drop-resolution
// middleware, ingest/query/admin/account/auth handlers, and the
// WebSocket upgrade route, wired onto a gin.Engine by Router.
package api

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/raphael-dev/raphael/internal/auth"
	"github.com/raphael-dev/raphael/internal/broadcast"
	"github.com/raphael-dev/raphael/internal/config"
	"github.com/raphael-dev/raphael/internal/drops"
	"github.com/raphael-dev/raphael/internal/ingest"
	"github.com/raphael-dev/raphael/internal/query"
	"github.com/raphael-dev/raphael/internal/rowstore"
)

// API holds every service the HTTP surface glues together. Handlers
// are methods on this type so they share one set of dependencies
// without a handler struct per domain — the teacher's scale called for
// one struct per concern (sessions, teams, plugins, …); Raphael's
// seven components fit in one.
type API struct {
	db       *rowstore.Database
	auth     *auth.Service
	drops    *drops.Registry
	ingest   *ingest.Pipeline
	query    *query.Engine
	hub      *broadcast.Hub
	cfg      *config.Config
	upgrader websocket.Upgrader
}

func New(db *rowstore.Database, authSvc *auth.Service, dropsReg *drops.Registry, pipeline *ingest.Pipeline,
	queryEngine *query.Engine, hub *broadcast.Hub, cfg *config.Config) *API {
	return &API{
		db:     db,
		auth:   authSvc,
		drops:  dropsReg,
		ingest: pipeline,
		query:  queryEngine,
		hub:    hub,
		cfg:    cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return isAllowedOrigin(r.Header.Get("Origin"), cfg.CORSAllowedOrigins)
			},
		},
	}
}

func isAllowedOrigin(origin string, allowed []string) bool {
	if origin == "" {
		return true // same-origin requests and non-browser clients send no Origin header
	}
	for _, a := range allowed {
		if a == origin {
			return true
		}
	}
	return false
}
