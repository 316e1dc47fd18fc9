package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAdmin checks the role on the freshly resolved user record, not the
// token claims, so a demoted admin loses access immediately.
func (m *CurrentUser) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := UserFromContext(c)

		if !ok {
			abortUnauthenticated(c)
			return
		}

		if !u.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "forbidden",
					"message": "Admin role required",
				},
			})
			return
		}

		c.Next()
	}
}
