package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sanjuan-tahitic/api-go/controllers"
)

func SetupRatingRoutes(api *gin.RouterGroup, ratingController *controllers.RatingController, adminOnly, rateLimit gin.HandlerFunc) {
	ratings := api.Group("/calificaciones")
	{
		ratings.POST("", rateLimit, ratingController.SubmitRating)
		ratings.GET("/lugar/:lugarId/mi-calificacion", ratingController.GetMyRating)
		ratings.GET("/lugar/:lugarId/estadisticas", ratingController.GetStats)

		ratings.GET("/lugar/:lugarId", adminOnly, ratingController.ListRatings)
		ratings.GET("/lugar/:lugarId/export", adminOnly, ratingController.ExportRatings)
		ratings.DELETE("/:id", adminOnly, ratingController.DeleteRating)
	}
}
