package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/Singh4599/techno-sapiens/internal/model"
	jwtpkg "github.com/Singh4599/techno-sapiens/pkg/jwt"
	"github.com/Singh4599/techno-sapiens/pkg/response"
)

// AdminOnly checks the role claim on the access token. This is the single
// admin authorization model; there are no password backdoors or per-route
// table lookups. Must be used after JWTAuth.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsVal, exists := c.Get(ContextKeyUserClaims)
		if !exists {
			response.Unauthorized(c, "missing authentication")
			c.Abort()
			return
		}
		claims, ok := claimsVal.(*jwtpkg.Claims)
		if !ok {
			response.Unauthorized(c, "invalid claims")
			c.Abort()
			return
		}

		if claims.Role != string(model.RoleAdmin) {
			response.Forbidden(c, "admin access required")
			c.Abort()
			return
		}

		c.Next()
	}
}
