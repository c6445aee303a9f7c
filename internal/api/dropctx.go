package api

import (
	"github.com/gin-gonic/gin"

	"github.com/raphael-dev/raphael/internal/auth"
)

// dropIDContextKey is where the resolved Drop id is stashed for
// RequireDropAccess, LogAPIKeyUsage, and the handlers themselves to read.
const dropIDContextKey = "raphael.dropID"

// dropSelector reads the caller's drop selector in precedence order
// ?drop=, ?dropId=, X-Raphael-Drop (spec.md §4.H).
func dropSelector(c *gin.Context) string {
	if v := c.Query("drop"); v != "" {
		return v
	}
	if v := c.Query("dropId"); v != "" {
		return v
	}
	return c.GetHeader("X-Raphael-Drop")
}

// DropContext resolves the request's Drop and stores its id under
// dropIDContextKey. allowCreate is granted when auth is disabled or the
// caller is an admin — members and API keys can only resolve Drops
// that already exist (spec.md §4.H, §4.C).
func (a *API) DropContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := auth.FromContext(c)
		allowCreate := ctx.Kind == auth.KindDisabled || ctx.IsAdmin()

		dropID, err := a.drops.ResolveDrop(dropSelector(c), allowCreate)
		if err != nil {
			c.Error(err)
			c.Abort()
			return
		}
		c.Set(dropIDContextKey, dropID)
		c.Next()
	}
}

// dropIDFromContext reads back what DropContext resolved. Used by
// RequireDropAccess's dropID func and by every handler that needs the
// Drop its request was scoped to.
func dropIDFromContext(c *gin.Context) string {
	v, ok := c.Get(dropIDContextKey)
	if !ok {
		return ""
	}
	id, _ := v.(string)
	return id
}
