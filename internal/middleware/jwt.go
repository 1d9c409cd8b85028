package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/henrychris/EventManagement/internal/domain"
	"github.com/henrychris/EventManagement/internal/service"
	"github.com/henrychris/EventManagement/pkg/response"
)

const (
	// ContextKeyClaims is the gin context key holding the verified claims
	ContextKeyClaims = "auth_claims"
)

// JWTMiddleware verifies the bearer token and stores the claims on the
// context for downstream handlers.
func JWTMiddleware(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Unauthorized(c, "Authorization header must be a bearer token")
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(parts[1])
		if err != nil {
			response.Unauthorized(c, err.Error())
			c.Abort()
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// RequireRole aborts with 403 unless the authenticated user holds one of
// the given roles. Must run after JWTMiddleware.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}

		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}

		response.Forbidden(c, "insufficient permissions")
		c.Abort()
	}
}

// GetClaims returns the verified claims set by JWTMiddleware.
func GetClaims(c *gin.Context) (*domain.Claims, bool) {
	v, ok := c.Get(ContextKeyClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*domain.Claims)
	return claims, ok
}

// GetUserID returns the authenticated user's ID, or "" when unauthenticated.
func GetUserID(c *gin.Context) string {
	claims, ok := GetClaims(c)
	if !ok {
		return ""
	}
	return claims.UserID
}
