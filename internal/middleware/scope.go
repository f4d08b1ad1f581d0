package middleware

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-crm-api/internal/access"
	"github.com/noah-isme/edu-crm-api/internal/models"
	appErrors "github.com/noah-isme/edu-crm-api/pkg/errors"
	"github.com/noah-isme/edu-crm-api/pkg/response"
)

// ContextScopeKey is the gin context key storing the resolved access scope.
const ContextScopeKey = "accessScope"

// ScopeResolver turns claims into a visibility scope.
type ScopeResolver interface {
	Resolve(ctx context.Context, claims *models.JWTClaims) (access.Scope, error)
}

// Scope resolves the caller's visibility once per request. It must run after JWT.
func Scope(resolver ScopeResolver, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		scope, err := resolver.Resolve(c.Request.Context(), claims)
		if err != nil {
			if errors.Is(err, access.ErrUnknownRole) {
				response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "unknown role"))
			} else {
				log.Error("resolve access scope", zap.String("user_id", claims.UserID), zap.Error(err))
				response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve access scope"))
			}
			c.Abort()
			return
		}
		c.Set(ContextScopeKey, scope)
		c.Next()
	}
}

// CurrentScope returns the scope stored by Scope.
func CurrentScope(c *gin.Context) (access.Scope, bool) {
	value, ok := c.Get(ContextScopeKey)
	if !ok {
		return access.Scope{}, false
	}
	scope, ok := value.(access.Scope)
	return scope, ok
}
