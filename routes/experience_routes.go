package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sanjuan-tahitic/api-go/controllers"
)

func SetupExperienceRoutes(api *gin.RouterGroup, experienceController *controllers.ExperienceController, adminOnly, rateLimit gin.HandlerFunc) {
	experiences := api.Group("/experiencias")
	{
		experiences.POST("", rateLimit, experienceController.SubmitExperience)
		experiences.GET("", experienceController.ListApproved)
		experiences.GET("/:id", experienceController.GetExperience)
	}

	admin := api.Group("/experiencias", adminOnly)
	{
		admin.GET("/admin/todas", experienceController.ListAll)
		admin.GET("/admin/estadisticas", experienceController.GetStats)
		admin.PUT("/:id/moderar", experienceController.Moderate)
		admin.DELETE("/:id", experienceController.DeleteExperience)
	}
}
