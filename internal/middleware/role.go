package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classconnect-api/internal/models"
	appErrors "github.com/noah-isme/classconnect-api/pkg/errors"
	"github.com/noah-isme/classconnect-api/pkg/response"
)

// RequireSession rejects clients that have not selected a role.
func RequireSession() gin.HandlerFunc {
	return RequireRoles()
}

// RequireRoles rejects signed-out clients with 401 and clients holding another
// role with 403. No roles means any signed-in client.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		holder := HolderFrom(c)
		if holder == nil || !holder.Current().SignedIn() {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "select a role first"))
			c.Abort()
			return
		}
		if len(allowed) == 0 {
			c.Next()
			return
		}
		if _, ok := allowed[holder.Role()]; ok {
			c.Next()
			return
		}
		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
