package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoointerview/internal/utils"
)

// DashboardAuth gates researcher routes behind one shared password, sent as
// the X-Dashboard-Password header or the "password" query parameter.
func DashboardAuth(password string) gin.HandlerFunc {
	return func(c *gin.Context) {
		supplied := c.GetHeader("X-Dashboard-Password")
		if supplied == "" {
			supplied = c.Query("password")
		}

		if !utils.VerifySecret(password, supplied) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
				Code:    utils.CodeUnauthorized,
				Message: "password incorrect",
			})
			return
		}

		c.Set("role", "researcher")
		c.Next()
	}
}
