package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sanjuan-tahitic/api-go/controllers"
)

func SetupAuthRoutes(api *gin.RouterGroup, authController *controllers.AuthController, adminOnly, optionalAdmin gin.HandlerFunc) {
	auth := api.Group("/auth")
	{
		auth.POST("/register", optionalAdmin, authController.Register)
		auth.POST("/login", authController.Login)

		auth.GET("/google", authController.GoogleLogin)
		auth.GET("/google/callback", authController.GoogleCallback)
		auth.POST("/google/token", authController.GoogleToken)
	}

	protected := api.Group("/auth", adminOnly)
	{
		protected.GET("/me", authController.Me)
		protected.GET("/verify", authController.Verify)
		protected.PUT("/password", authController.ChangePassword)
	}
}
