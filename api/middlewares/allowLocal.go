package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OnlyAllowLocal rejects control requests that do not come from loopback.
func OnlyAllowLocal(c *gin.Context) {
	if c.ClientIP() == "127.0.0.1" || c.ClientIP() == "::1" {
		c.Next()
	} else {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	}
}
