package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/resourcebook/backend/internal/access"
	"github.com/resourcebook/backend/internal/auth"
	"github.com/resourcebook/backend/pkg/response"
)

// ContextClaims is the key for the caller's access.Claims in gin context.
const ContextClaims = "claims"

// JWT returns a middleware that validates the bearer token and stores the caller's claims in context.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextClaims, claims.Identity())
		c.Next()
	}
}

// Claims returns the caller's claims. It panics when JWT did not run first.
func Claims(c *gin.Context) access.Claims {
	return c.MustGet(ContextClaims).(access.Claims)
}
