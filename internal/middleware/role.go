package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/dooh-ops/backend/internal/models"
	"github.com/dooh-ops/backend/pkg/response"
)

// RequireRole returns a middleware that allows only the given roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[string(r)] = struct{}{}
	}
	return func(c *gin.Context) {
		roleVal, ok := c.Get(ContextUserRole)
		if !ok {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		role, _ := roleVal.(string)
		if _, ok := allowed[role]; !ok {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CanEdit allows the roles that may change bookings and media status.
func CanEdit() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin, models.RoleOperator)
}
