package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sanjuan-tahitic/api-go/services"
	"github.com/sanjuan-tahitic/api-go/utils"
	"github.com/sirupsen/logrus"
)

// AdminAuth requires a valid administrator bearer token. The account is
// re-read on every request, so deleted administrators lose access at once.
func AdminAuth(auth *services.AuthService, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token de autorización requerido"})
			return
		}

		admin, _, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			var derr *services.DomainError
			if errors.As(err, &derr) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": derr.Msg})
				return
			}
			log.WithError(err).Error("admin auth: lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
			return
		}

		utils.SetAdmin(c, admin)
		c.Next()
	}
}

// OptionalAdmin attaches the administrator when a valid token is present and
// lets the request through either way.
func OptionalAdmin(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if admin, _, err := auth.Authenticate(c.Request.Context(), token); err == nil {
				utils.SetAdmin(c, admin)
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
