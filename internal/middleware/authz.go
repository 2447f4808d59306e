package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/authz"
)

// ReadOnlyGuard refuses unsafe methods for the auditor role.
func ReadOnlyGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, _ := authz.SessionFromContext(c.Request.Context())
		if authz.IsReadOnly(sess.RoleID) {
			switch c.Request.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
			default:
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "read-only role"})
				return
			}
		}
		c.Next()
	}
}
