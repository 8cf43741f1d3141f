package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/homiestan/homiestan_backend/utils"
)

// InspectionMiddleware validates the tenant's signed inspection token from
// the URL path and loads the link identity into the context. An expired or
// tampered token is a 401; tenants have no other credential.
func InspectionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.Param("token"))
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "inspection token is required"})
			c.Abort()
			return
		}

		claim, err := utils.JwtValidateInspection(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired inspection token"})
			c.Abort()
			return
		}

		ctx := context.WithValue(c.Request.Context(), utils.ContextKeyInspectionLink, claim.LinkId)
		ctx = context.WithValue(ctx, utils.ContextKeyHomeId, claim.HomeId)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
