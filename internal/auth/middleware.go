package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/raphael-dev/raphael/internal/apperr"
	"github.com/raphael-dev/raphael/internal/logger"
	"github.com/raphael-dev/raphael/internal/rowstore"
)

const sessionCookieName = "raphael_session"

// apiKeyHeaders is checked in order; the first populated header wins
// (spec.md §4.B).
var apiKeyHeaders = []string{"x-api-key", "x-raphael-api-key", "x-raphael-key", "x-raphael-token"}

func extractAPIKeyToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); auth != "" {
		if parts := strings.SplitN(auth, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}
	for _, h := range apiKeyHeaders {
		if v := c.GetHeader(h); v != "" {
			return v
		}
	}
	return ""
}

const authContextKey = "raphael.authctx"

// Resolve builds this request's AuthContext and stores it on the Gin
// context for downstream handlers and policy middleware. It never
// aborts the chain — requireAuth/requireAdmin/requireDropAccess decide
// what to do with an anonymous or disabled result.
func (s *Service) Resolve() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.cfg.Enabled {
			c.Set(authContextKey, &AuthContext{Kind: KindDisabled})
			c.Next()
			return
		}

		if token := extractAPIKeyToken(c); token != "" {
			ctx, err := s.resolveAPIKey(token)
			if err == nil && ctx != nil {
				c.Set(authContextKey, ctx)
				c.Next()
				return
			}
		}

		if cookie, err := c.Cookie(sessionCookieName); err == nil && cookie != "" {
			ctx := s.resolveSession(cookie)
			if ctx != nil {
				c.Set(authContextKey, ctx)
				c.Next()
				return
			}
		}

		c.Set(authContextKey, &AuthContext{Kind: KindAnonymous})
		c.Next()
	}
}

func (s *Service) resolveAPIKey(rawToken string) (*AuthContext, error) {
	hash := HashAPIKey(rawToken)
	key, err := s.db.ApiKeyByHash(hash)
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, nil
	}
	return &AuthContext{
		Kind:             KindAPIKey,
		ApiKeyID:         key.ID,
		ServiceAccountID: key.ServiceAccountID,
	}, nil
}

func (s *Service) resolveSession(cookie string) *AuthContext {
	claims, err := s.jwt.ValidateToken(cookie)
	if err != nil {
		return nil
	}
	if claims.ID != "" && !s.sess.ValidateSession(claims.ID) {
		return nil
	}
	profile, err := s.db.UserProfileByID(claims.UserID)
	if err != nil || profile == nil {
		return nil
	}
	return &AuthContext{
		Kind:      KindSession,
		UserID:    profile.UserID,
		Email:     profile.Email,
		Role:      profile.Role,
		Disabled:  profile.Disabled,
		SessionID: claims.ID,
	}
}

// FromContext retrieves the resolved AuthContext. Resolve must run
// earlier in the chain; handlers outside it get an anonymous default.
func FromContext(c *gin.Context) *AuthContext {
	v, ok := c.Get(authContextKey)
	if !ok {
		return &AuthContext{Kind: KindAnonymous}
	}
	ctx, ok := v.(*AuthContext)
	if !ok {
		return &AuthContext{Kind: KindAnonymous}
	}
	return ctx
}

// RequireAuth fails 401 if anonymous, 403 if the session's user is
// disabled (spec.md §4.B). "disabled" auth mode always passes.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := FromContext(c)
		switch ctx.Kind {
		case KindDisabled:
			c.Next()
		case KindAnonymous:
			c.Error(apperr.Unauthenticated("authentication required"))
			c.Abort()
		case KindSession:
			if ctx.Disabled {
				c.Error(apperr.Forbidden("account is disabled"))
				c.Abort()
				return
			}
			c.Next()
		case KindAPIKey:
			c.Next()
		default:
			c.Error(apperr.Unauthenticated("authentication required"))
			c.Abort()
		}
	}
}

// RequireAdmin fails 403 unless the session's role is admin.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := FromContext(c)
		if ctx.Kind == KindDisabled {
			c.Next()
			return
		}
		if !ctx.IsAdmin() {
			c.Error(apperr.Forbidden("admin role required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// Action is a Drop capability checked by RequireDropAccess.
type Action string

const (
	ActionIngest Action = "ingest"
	ActionQuery  Action = "query"
)

// RequireDropAccess enforces spec.md §4.B's per-Drop capability rule:
// admins pass unconditionally, members need the matching
// UserDropPermission flag, API-key principals need the matching
// ApiKeyPermission capability for dropID.
func (s *Service) RequireDropAccess(dropID func(*gin.Context) string, action Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := FromContext(c)
		if ctx.Kind == KindDisabled {
			c.Next()
			return
		}
		id := dropID(c)
		if id == "" {
			c.Error(apperr.BadInput("drop could not be resolved"))
			c.Abort()
			return
		}

		switch ctx.Kind {
		case KindSession:
			if ctx.IsAdmin() {
				c.Next()
				return
			}
			perm, err := s.db.UserDropPermissionFor(ctx.UserID, id)
			if err != nil {
				c.Error(err)
				c.Abort()
				return
			}
			if perm == nil || !hasCapability(perm.CanIngest, perm.CanQuery, action) {
				c.Error(apperr.Forbidden("no " + string(action) + " access to this drop"))
				c.Abort()
				return
			}
			c.Next()
		case KindAPIKey:
			perm, err := s.db.ApiKeyPermissionFor(ctx.ApiKeyID, id)
			if err != nil {
				c.Error(err)
				c.Abort()
				return
			}
			if perm == nil || !hasCapability(perm.CanIngest, perm.CanQuery, action) {
				c.Error(apperr.Forbidden("no " + string(action) + " access to this drop"))
				c.Abort()
				return
			}
			c.Next()
		default:
			c.Error(apperr.Unauthenticated("authentication required"))
			c.Abort()
		}
	}
}

func hasCapability(canIngest, canQuery bool, action Action) bool {
	if action == ActionIngest {
		return canIngest
	}
	return canQuery
}

// LogAPIKeyUsage appends one ApiKeyUsage row per api_key request after
// the response completes, with whatever drop_id the handler resolved
// into the Gin context under "raphael.dropID" (spec.md §4.B).
func (s *Service) LogAPIKeyUsage() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			ctx := FromContext(c)
			if ctx.Kind != KindAPIKey {
				return
			}
			var dropID *string
			if v, ok := c.Get("raphael.dropID"); ok {
				if id, ok := v.(string); ok && id != "" {
					dropID = &id
				}
			}
			err := s.db.LogApiKeyUsage(&rowstore.ApiKeyUsage{
				ApiKeyID:  ctx.ApiKeyID,
				Method:    c.Request.Method,
				Path:      c.Request.URL.Path,
				Status:    c.Writer.Status(),
				DropID:    dropID,
				IP:        c.ClientIP(),
				UserAgent: c.Request.UserAgent(),
			})
			if err != nil {
				logger.Security().Error().Err(err).Msg("failed to log api key usage")
			}
		}()
		c.Next()
	}
}
