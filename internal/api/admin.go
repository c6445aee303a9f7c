package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/raphael-dev/raphael/internal/apperr"
	"github.com/raphael-dev/raphael/internal/auth"
	"github.com/raphael-dev/raphael/internal/rowstore"
)

// RegisterAdminRoutes wires Drop CRUD, user management, and
// auth-policy editing, all gated behind RequireAdmin (spec.md §4.C,
// §4.B, §6).
func (a *API) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.Use(auth.RequireAuth(), auth.RequireAdmin())

	rg.GET("/drops", a.handleListDrops)
	rg.POST("/drops", a.handleCreateDrop)
	rg.PUT("/drops/:id/retention", a.handleSetDropRetention)
	rg.DELETE("/drops/:id", a.handleDeleteDrop)

	rg.GET("/admin/users", a.handleListUsers)
	rg.PATCH("/admin/users/:id", a.handlePatchUser)
	rg.GET("/admin/users/:id/permissions", a.handleGetUserPermissions)
	rg.PUT("/admin/users/:id/permissions", a.handleSetUserPermissions)

	rg.GET("/admin/auth-policy", a.handleGetAuthPolicy)
	rg.PUT("/admin/auth-policy", a.handleSetAuthPolicy)
}

func (a *API) handleListDrops(c *gin.Context) {
	drops, err := a.drops.List(auth.FromContext(c))
	if err != nil {
		apperr.AbortWithError(c, apperr.InternalFrom(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"drops": drops})
}

type createDropRequest struct {
	Name  string `json:"name" binding:"required"`
	Label string `json:"label"`
}

func (a *API) handleCreateDrop(c *gin.Context) {
	var req createDropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.AbortWithError(c, apperr.BadInput("name is required"))
		return
	}
	drop, err := a.drops.Create(auth.FromContext(c), req.Name, req.Label)
	if err != nil {
		apperr.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, drop)
}

type setDropRetentionRequest struct {
	TracesRetentionDays int64 `json:"traces_retention_days"`
	EventsRetentionDays int64 `json:"events_retention_days"`
}

func (a *API) handleSetDropRetention(c *gin.Context) {
	var req setDropRetentionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.AbortWithError(c, apperr.BadInput("invalid retention body"))
		return
	}
	if err := a.drops.SetRetentionDays(c.Param("id"), req.TracesRetentionDays, req.EventsRetentionDays); err != nil {
		apperr.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) handleDeleteDrop(c *gin.Context) {
	if err := a.drops.Delete(c.Param("id")); err != nil {
		apperr.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) handleListUsers(c *gin.Context) {
	users, err := a.db.ListUserProfiles()
	if err != nil {
		apperr.AbortWithError(c, apperr.InternalFrom(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

type patchUserRequest struct {
	Role     *string `json:"role"`
	Disabled *bool   `json:"disabled"`
}

func (a *API) handlePatchUser(c *gin.Context) {
	var req patchUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.AbortWithError(c, apperr.BadInput("invalid user patch body"))
		return
	}
	userID := c.Param("id")

	if req.Role != nil {
		if *req.Role != rowstore.RoleAdmin && *req.Role != rowstore.RoleMember {
			apperr.AbortWithError(c, apperr.BadInput("role must be admin or member"))
			return
		}
		if err := a.db.SetUserRole(userID, *req.Role, a.cfg.AdminEmail); err != nil {
			apperr.HandleError(c, err)
			return
		}
	}
	if req.Disabled != nil {
		if err := a.db.SetUserDisabled(userID, *req.Disabled, a.cfg.AdminEmail); err != nil {
			apperr.HandleError(c, err)
			return
		}
		if *req.Disabled {
			a.auth.RevokeUserSessions(userID)
		}
	}
	c.Status(http.StatusNoContent)
}

func (a *API) handleGetUserPermissions(c *gin.Context) {
	perms, err := a.db.ListUserDropPermissions(c.Param("id"))
	if err != nil {
		apperr.AbortWithError(c, apperr.InternalFrom(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"permissions": perms})
}

type setUserPermissionRequest struct {
	DropID    string `json:"drop_id" binding:"required"`
	CanIngest bool   `json:"can_ingest"`
	CanQuery  bool   `json:"can_query"`
}

func (a *API) handleSetUserPermissions(c *gin.Context) {
	var req setUserPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.AbortWithError(c, apperr.BadInput("drop_id is required"))
		return
	}
	if err := a.db.SetUserDropPermission(c.Param("id"), req.DropID, req.CanIngest, req.CanQuery); err != nil {
		apperr.AbortWithError(c, apperr.InternalFrom(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) handleGetAuthPolicy(c *gin.Context) {
	policy, err := a.auth.GetAuthPolicy()
	if err != nil {
		apperr.AbortWithError(c, apperr.InternalFrom(err))
		return
	}
	c.JSON(http.StatusOK, policy)
}

func (a *API) handleSetAuthPolicy(c *gin.Context) {
	var policy auth.AuthPolicy
	if err := c.ShouldBindJSON(&policy); err != nil {
		apperr.AbortWithError(c, apperr.BadInput("invalid auth policy body"))
		return
	}
	if err := a.auth.SetAuthPolicy(policy); err != nil {
		apperr.AbortWithError(c, apperr.InternalFrom(err))
		return
	}
	c.Status(http.StatusNoContent)
}
