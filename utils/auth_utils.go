package utils

import (
	"github.com/gin-gonic/gin"
	"github.com/sanjuan-tahitic/api-go/models"
)

type contextKey string

const AdminContextKey contextKey = "admin"

// SetAdmin stores the authenticated administrator on the request context.
func SetAdmin(c *gin.Context, admin *models.Admin) {
	c.Set(string(AdminContextKey), admin)
}

func GetAdmin(c *gin.Context) *models.Admin {
	admin, exists := c.Get(string(AdminContextKey))
	if !exists {
		return nil
	}
	if a, ok := admin.(*models.Admin); ok {
		return a
	}
	return nil
}
