package api

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/raphael-dev/raphael/internal/auth"
	"github.com/raphael-dev/raphael/internal/broadcast"
	"github.com/raphael-dev/raphael/internal/logger"
)

// RegisterWebSocketRoute wires the live fan-out endpoint (spec.md §4.F,
// §6).
func (a *API) RegisterWebSocketRoute(rg *gin.RouterGroup) {
	rg.GET("/ws", a.handleWebSocket)
}

// handleWebSocket upgrades the connection and hands it to the
// Broadcast Hub. Hub.Serve performs no auth rejection of its own, so
// the onConnect eligibility check (close codes 4401/4403) happens here,
// before the hub ever sees the connection.
func (a *API) handleWebSocket(c *gin.Context) {
	ctx := auth.FromContext(c)

	var sess *broadcast.Session
	rejectCode := 0
	switch ctx.Kind {
	case auth.KindDisabled:
		sess = nil
	case auth.KindSession:
		if ctx.Disabled {
			rejectCode = broadcast.CloseDisabled
			break
		}
		sess = &broadcast.Session{UserID: ctx.UserID, Role: ctx.Role}
	default:
		// api_key and anonymous principals don't get a live socket — the
		// hub is for session-authenticated dashboard viewers (spec.md §4.F).
		rejectCode = broadcast.CloseUnauthorized
	}

	conn, err := a.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.WebSocket().Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	if rejectCode != 0 {
		closeMsg := websocket.FormatCloseMessage(rejectCode, "unauthorized")
		conn.WriteMessage(websocket.CloseMessage, closeMsg)
		conn.Close()
		return
	}

	a.hub.Serve(conn, sess)
}
