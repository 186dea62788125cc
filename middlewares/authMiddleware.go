package middlewares

import (
	"net/http"
	"strconv"
	"strings"

	"bitbucket.org/mmdatafocus/procurement_backend/utils"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the bearer token and loads the caller's identity
// into the request context. Requests without a token pass through; handlers
// that need a business id will reject them themselves.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")

		if auth == "" {
			c.Next()
			return
		}

		bearer := "Bearer "
		if !strings.HasPrefix(auth, bearer) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		auth = auth[len(bearer):]

		validate, err := utils.JwtValidate(auth)
		if err != nil || !validate.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		customClaim, _ := validate.Claims.(*utils.JwtCustomClaim)

		ctx := c.Request.Context()
		ctx = utils.SetTokenInContext(ctx, auth)
		ctx = utils.SetBusinessIdInContext(ctx, customClaim.BusinessId)
		ctx = utils.SetUserIdInContext(ctx, customClaim.ID)
		ctx = utils.SetUserNameInContext(ctx, customClaim.UserName)
		if branchHeader := c.Request.Header.Get("X-Branch-Id"); branchHeader != "" {
			if branchId, err := strconv.Atoi(branchHeader); err == nil {
				ctx = utils.SetBranchIdInContext(ctx, branchId)
			}
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
