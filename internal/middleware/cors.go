package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/resourcebook/backend/pkg/response"
)

// CORSPolicy lists the browser origins allowed to call the API. An empty list or a "*" entry allows any origin.
type CORSPolicy struct {
	Origins []string
	MaxAge  time.Duration
}

var (
	corsMethods = strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}, ", ")
	corsHeaders = "Content-Type, Authorization"
)

// CORS applies p to every request. Preflights end here and never reach
// authentication; a preflight from an unlisted origin is refused.
func CORS(p CORSPolicy) gin.HandlerFunc {
	allowed := make(map[string]bool, len(p.Origins))
	anyOrigin := len(p.Origins) == 0
	for _, o := range p.Origins {
		if o == "*" {
			anyOrigin = true
		}
		allowed[o] = true
	}
	maxAge := strconv.Itoa(int(p.MaxAge / time.Second))

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		preflight := c.Request.Method == http.MethodOptions
		switch {
		case anyOrigin:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && allowed[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		case preflight:
			response.Forbidden(c, "origin not allowed")
			c.Abort()
			return
		default:
			c.Next()
			return
		}
		c.Header("Access-Control-Allow-Methods", corsMethods)
		c.Header("Access-Control-Allow-Headers", corsHeaders)
		c.Header("Access-Control-Max-Age", maxAge)
		if preflight {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
