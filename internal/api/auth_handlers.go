package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/raphael-dev/raphael/internal/apperr"
	"github.com/raphael-dev/raphael/internal/auth"
)

// RegisterAuthRoutes wires the local-password login path (spec.md §10.1
// — Raphael's session provider is otherwise an opaque external
// resolver, so login/logout/refresh are all this package implements).
func (a *API) RegisterAuthRoutes(rg *gin.RouterGroup) {
	rg.POST("/login", a.handleLogin)
	rg.POST("/logout", a.handleLogout)
	rg.POST("/refresh", auth.RequireAuth(), a.handleRefresh)
	rg.GET("/me", a.handleMe)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (a *API) cookieDomain() string {
	return ""
}

func (a *API) setSessionCookie(c *gin.Context, token string) {
	maxAge := int(a.cfg.SessionTTL.Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookieName(), token, maxAge, "/", a.cookieDomain(), false, true)
}

func (a *API) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookieName(), "", -1, "/", a.cookieDomain(), false, true)
}

func (a *API) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.AbortWithError(c, apperr.BadInput("email and password are required"))
		return
	}

	token, profile, err := a.auth.LoginWithPassword(req.Email, req.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		apperr.HandleError(c, err)
		return
	}

	a.setSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{
		"user_id": profile.UserID,
		"email":   profile.Email,
		"role":    profile.Role,
	})
}

func (a *API) handleLogout(c *gin.Context) {
	ctx := auth.FromContext(c)
	a.auth.Logout(ctx.SessionID)
	a.clearSessionCookie(c)
	c.Status(http.StatusNoContent)
}

func (a *API) handleRefresh(c *gin.Context) {
	ctx := auth.FromContext(c)
	if ctx.Kind != auth.KindSession || !a.auth.RefreshSession(ctx.SessionID) {
		apperr.AbortWithError(c, apperr.Unauthenticated("session is no longer valid"))
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) handleMe(c *gin.Context) {
	ctx := auth.FromContext(c)
	switch ctx.Kind {
	case auth.KindDisabled:
		c.JSON(http.StatusOK, gin.H{"auth_disabled": true})
	case auth.KindSession:
		c.JSON(http.StatusOK, gin.H{
			"user_id": ctx.UserID,
			"email":   ctx.Email,
			"role":    ctx.Role,
		})
	case auth.KindAPIKey:
		c.JSON(http.StatusOK, gin.H{"kind": "api_key", "service_account_id": ctx.ServiceAccountID})
	default:
		apperr.AbortWithError(c, apperr.Unauthenticated("not signed in"))
	}
}
