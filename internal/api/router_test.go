package api

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/raphael-dev/raphael/internal/auth"
	"github.com/raphael-dev/raphael/internal/broadcast"
	"github.com/raphael-dev/raphael/internal/config"
	"github.com/raphael-dev/raphael/internal/drops"
	"github.com/raphael-dev/raphael/internal/ingest"
	"github.com/raphael-dev/raphael/internal/query"
	"github.com/raphael-dev/raphael/internal/rowstore"
)

// newTestAPI wires every component against a fresh temp-file database,
// the same shape cmd/raphaeld assembles at boot, with auth disabled so
// handlers exercise the KindDisabled fast path.
func newTestAPI(t *testing.T) *API {
	t.Helper()
	db, err := rowstore.Open(rowstore.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	jwtManager := auth.NewJWTManager(auth.JWTConfig{SecretKey: "test-secret"})
	sessionStore := auth.NewSessionStore(0)
	authSvc := auth.NewService(db, jwtManager, sessionStore, auth.Config{Enabled: false})

	dropsReg := drops.NewRegistry(db)
	hub := broadcast.NewHub(dropsReg)
	go hub.Run()

	pipeline := ingest.NewPipeline(db, hub, 500, 200)
	queryEngine := query.NewEngine(db)

	cfg := &config.Config{CORSAllowedOrigins: []string{"http://localhost:3000"}}

	return New(db, authSvc, dropsReg, pipeline, queryEngine, hub, cfg)
}

func TestHealthz(t *testing.T) {
	a := newTestAPI(t)
	r := a.Router()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestIngestAndQueryTracesRoundTrip(t *testing.T) {
	a := newTestAPI(t)
	r := a.Router()

	body := `{"resourceSpans":[{"resource":{"attributes":[{"key":"service.name","value":{"stringValue":"checkout"}}]},"scopeSpans":[{"spans":[{"traceId":"0123456789abcdef0123456789abcdef","spanId":"0123456789abcdef","name":"handle-request","startTimeUnixNano":"1700000000000000000","endTimeUnixNano":"1700000000100000000"}]}]}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/traces", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	queryReq := httptest.NewRequest(http.MethodGet, "/api/traces", nil)
	queryW := httptest.NewRecorder()
	r.ServeHTTP(queryW, queryReq)
	require.Equal(t, http.StatusOK, queryW.Code, queryW.Body.String())
	require.Contains(t, queryW.Body.String(), "handle-request")
}
