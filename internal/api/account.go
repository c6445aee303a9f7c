package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/raphael-dev/raphael/internal/apperr"
	"github.com/raphael-dev/raphael/internal/auth"
	"github.com/raphael-dev/raphael/internal/validator"
)

// RegisterAccountRoutes wires service-account and API-key management.
// These are session-only: minting or revoking credentials on behalf of
// an API key is not something the key itself should be able to do.
func (a *API) RegisterAccountRoutes(rg *gin.RouterGroup) {
	rg.Use(auth.RequireAuth(), a.requireSessionKind)

	rg.GET("/service-accounts", a.handleListServiceAccounts)
	rg.POST("/service-accounts", a.handleCreateServiceAccount)
	rg.DELETE("/service-accounts/:id", a.handleDeleteServiceAccount)

	rg.GET("/api-keys", a.handleListAPIKeys)
	rg.POST("/api-keys", a.handleCreateAPIKey)
	rg.DELETE("/api-keys/:id", a.handleRevokeAPIKey)

	rg.GET("/api-key-usage", a.handleAPIKeyUsage)

	rg.PUT("/password", a.handleSetOwnPassword)
}

// requireSessionKind rejects API-key authentication on account routes —
// minting more keys from a key is not a capability any principal gets.
func (a *API) requireSessionKind(c *gin.Context) {
	ctx := auth.FromContext(c)
	if ctx.Kind != auth.KindDisabled && ctx.Kind != auth.KindSession {
		apperr.AbortWithError(c, apperr.Forbidden("account management requires a session"))
		return
	}
	c.Next()
}

func (a *API) sessionUserID(c *gin.Context) string {
	ctx := auth.FromContext(c)
	if ctx.Kind == auth.KindDisabled {
		return ""
	}
	return ctx.UserID
}

func (a *API) handleListServiceAccounts(c *gin.Context) {
	accounts, err := a.db.ListServiceAccountsByOwner(a.sessionUserID(c))
	if err != nil {
		apperr.AbortWithError(c, apperr.InternalFrom(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"service_accounts": accounts})
}

type createServiceAccountRequest struct {
	Name string `json:"name" binding:"required"`
}

func (a *API) handleCreateServiceAccount(c *gin.Context) {
	var req createServiceAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.AbortWithError(c, apperr.BadInput("name is required"))
		return
	}
	sa, err := a.db.CreateServiceAccount(a.sessionUserID(c), req.Name)
	if err != nil {
		apperr.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sa)
}

func (a *API) handleDeleteServiceAccount(c *gin.Context) {
	if err := a.ownsServiceAccount(c, c.Param("id")); err != nil {
		apperr.HandleError(c, err)
		return
	}
	if err := a.db.DeleteServiceAccount(c.Param("id")); err != nil {
		apperr.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) ownsServiceAccount(c *gin.Context, id string) error {
	ctx := auth.FromContext(c)
	if ctx.Kind == auth.KindDisabled || ctx.IsAdmin() {
		return nil
	}
	sa, err := a.db.ServiceAccountByID(id)
	if err != nil {
		return err
	}
	if sa == nil {
		return apperr.NotFound("service account")
	}
	if sa.CreatedByUserID != ctx.UserID {
		return apperr.Forbidden("not your service account")
	}
	return nil
}

func (a *API) handleListAPIKeys(c *gin.Context) {
	serviceAccountID := c.Query("service_account_id")
	if serviceAccountID == "" {
		apperr.AbortWithError(c, apperr.BadInput("service_account_id is required"))
		return
	}
	if err := a.ownsServiceAccount(c, serviceAccountID); err != nil {
		apperr.HandleError(c, err)
		return
	}
	keys, err := a.db.ListApiKeysByServiceAccount(serviceAccountID)
	if err != nil {
		apperr.AbortWithError(c, apperr.InternalFrom(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"api_keys": keys})
}

type createAPIKeyRequest struct {
	ServiceAccountID string                    `json:"service_account_id" binding:"required"`
	Name             string                    `json:"name" binding:"required"`
	Permissions      []apiKeyPermissionRequest `json:"permissions"`
}

type apiKeyPermissionRequest struct {
	DropID    string `json:"drop_id" binding:"required"`
	CanIngest bool   `json:"can_ingest"`
	CanQuery  bool   `json:"can_query"`
}

// handleCreateAPIKey mints a new key, but only grants capabilities the
// caller already holds themselves — a member can't mint a key with
// more access to a Drop than their own session has.
func (a *API) handleCreateAPIKey(c *gin.Context) {
	var req createAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.AbortWithError(c, apperr.BadInput("service_account_id and name are required"))
		return
	}
	if err := a.ownsServiceAccount(c, req.ServiceAccountID); err != nil {
		apperr.HandleError(c, err)
		return
	}

	ctx := auth.FromContext(c)
	for _, p := range req.Permissions {
		if ctx.Kind == auth.KindDisabled || ctx.IsAdmin() {
			continue
		}
		own, err := a.db.UserDropPermissionFor(ctx.UserID, p.DropID)
		if err != nil {
			apperr.AbortWithError(c, apperr.InternalFrom(err))
			return
		}
		if (p.CanIngest && (own == nil || !own.CanIngest)) || (p.CanQuery && (own == nil || !own.CanQuery)) {
			apperr.AbortWithError(c, apperr.Forbidden("cannot grant an api key more access than your own session has"))
			return
		}
	}

	raw, prefix, hash, err := auth.GenerateAPIKey()
	if err != nil {
		apperr.AbortWithError(c, apperr.InternalFrom(err))
		return
	}
	key, err := a.db.CreateApiKey(req.ServiceAccountID, req.Name, prefix, hash, a.sessionUserID(c))
	if err != nil {
		apperr.HandleError(c, err)
		return
	}
	for _, p := range req.Permissions {
		if err := a.db.SetApiKeyPermission(key.ID, p.DropID, p.CanIngest, p.CanQuery); err != nil {
			apperr.AbortWithError(c, apperr.InternalFrom(err))
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"api_key": key,
		"token":   raw,
	})
}

func (a *API) handleRevokeAPIKey(c *gin.Context) {
	id := c.Param("id")
	key, err := a.db.ApiKeyByID(id)
	if err != nil {
		apperr.AbortWithError(c, apperr.InternalFrom(err))
		return
	}
	if key == nil {
		apperr.AbortWithError(c, apperr.NotFound("api key"))
		return
	}
	if err := a.ownsServiceAccount(c, key.ServiceAccountID); err != nil {
		apperr.HandleError(c, err)
		return
	}
	if err := a.db.RevokeApiKey(id); err != nil {
		apperr.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) handleAPIKeyUsage(c *gin.Context) {
	apiKeyID := c.Query("api_key_id")
	if apiKeyID == "" {
		apperr.AbortWithError(c, apperr.BadInput("api_key_id is required"))
		return
	}
	key, err := a.db.ApiKeyByID(apiKeyID)
	if err != nil {
		apperr.AbortWithError(c, apperr.InternalFrom(err))
		return
	}
	if key == nil {
		apperr.AbortWithError(c, apperr.NotFound("api key"))
		return
	}
	if err := a.ownsServiceAccount(c, key.ServiceAccountID); err != nil {
		apperr.HandleError(c, err)
		return
	}
	usage, err := a.db.ListApiKeyUsage(apiKeyID, 100)
	if err != nil {
		apperr.AbortWithError(c, apperr.InternalFrom(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"usage": usage})
}

type setPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,password"`
}

// handleSetOwnPassword lets a signed-in user set their own local
// password, enforced by the same strength rule the teacher's validator
// package applies to every password field.
func (a *API) handleSetOwnPassword(c *gin.Context) {
	ctx := auth.FromContext(c)
	if ctx.Kind != auth.KindSession {
		apperr.AbortWithError(c, apperr.Forbidden("a session is required to set a password"))
		return
	}

	var req setPasswordRequest
	if !validator.BindAndValidate(c, &req) {
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		apperr.AbortWithError(c, apperr.InternalFrom(err))
		return
	}
	if err := a.db.SetPasswordHash(ctx.UserID, hash); err != nil {
		apperr.AbortWithError(c, apperr.InternalFrom(err))
		return
	}
	c.Status(http.StatusNoContent)
}
