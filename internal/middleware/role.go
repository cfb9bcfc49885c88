package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/resourcebook/backend/internal/access"
	"github.com/resourcebook/backend/pkg/response"
)

// RequireOperation allows only roles that the access policy grants op to.
// Target scoping is left to the handler, which knows the entity.
func RequireOperation(op access.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(ContextClaims)
		if !ok {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		claims, _ := v.(access.Claims)
		if !access.Allows(claims.Role, op) {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
