package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/infrastructure/auth"
	"github.com/coretrack/backend/internal/infrastructure/logger"
	"github.com/coretrack/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Context keys set by Auth
const (
	ActorKey  = "actor"
	ClaimsKey = "jwt_claims"
)

const bearerPrefix = "Bearer "

// TokenChecker validates an access token including its revocation state
type TokenChecker interface {
	CheckAccessToken(ctx context.Context, token string) (*auth.Claims, error)
}

// Auth requires a valid bearer token and stores the caller as an identity.Actor.
// Browsers cannot set headers on EventSource or WebSocket requests, so an
// access_token query parameter is accepted as a fallback.
func Auth(checker TokenChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}

		claims, err := checker.CheckAccessToken(c.Request.Context(), token)
		if err != nil {
			code, message := dto.ErrCodeUnauthorized, "Invalid token"
			var domainErr *shared.DomainError
			if errors.As(err, &domainErr) {
				code, message = domainErr.Code, domainErr.Message
			}
			logger.L(c.Request.Context()).Debug("Authentication failed", zap.Error(err))
			abortUnauthorized(c, code, message)
			return
		}

		actor, err := actorOf(claims)
		if err != nil {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Invalid token claims")
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(ActorKey, actor)

		ctx := logger.WithTenantID(c.Request.Context(), claims.TenantID)
		ctx = logger.WithUserID(ctx, claims.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireManager rejects callers that are neither owners nor managers
func RequireManager() gin.HandlerFunc {
	return requireRole(func(a identity.Actor) error { return a.RequireManager() })
}

// RequireOwner rejects callers that are not owners
func RequireOwner() gin.HandlerFunc {
	return requireRole(func(a identity.Actor) error { return a.RequireOwner() })
}

func requireRole(check func(identity.Actor) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		if err := check(actor); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, "You do not have permission to do this", GetRequestID(c)))
			return
		}
		c.Next()
	}
}

// GetActor returns the authenticated caller
func GetActor(c *gin.Context) (identity.Actor, bool) {
	v, ok := c.Get(ActorKey)
	if !ok {
		return identity.Actor{}, false
	}
	actor, ok := v.(identity.Actor)
	return actor, ok
}

// GetClaims returns the validated access token claims
func GetClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

func actorOf(claims *auth.Claims) (identity.Actor, error) {
	tenantID := claims.TenantUUID()
	userID := claims.UserUUID()
	role := identity.Role(claims.Role)
	if tenantID == uuid.Nil || userID == uuid.Nil || !role.IsValid() {
		return identity.Actor{}, auth.ErrInvalidClaims
	}
	return identity.Actor{
		TenantID:    tenantID,
		UserID:      userID,
		Role:        role,
		LocationIDs: claims.Locations(),
	}, nil
}

func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if strings.HasPrefix(header, bearerPrefix) {
			return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
		}
		return ""
	}
	return c.Query("access_token")
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}
