package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sanjuan-tahitic/api-go/config"
	"github.com/sanjuan-tahitic/api-go/controllers"
	"github.com/sanjuan-tahitic/api-go/events"
	"github.com/sanjuan-tahitic/api-go/middleware"
	"github.com/sanjuan-tahitic/api-go/services"
	"github.com/sanjuan-tahitic/api-go/storage"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Dependencies are the long-lived components built in main.
type Dependencies struct {
	Cfg       *config.Config
	DB        *gorm.DB
	Store     storage.Storage
	Redis     *redis.Client
	Publisher events.Publisher
	Google    *config.GoogleConfig
	Log       *logrus.Logger
}

func SetupRoutes(r *gin.Engine, deps Dependencies) {
	// Initialize services
	placeService := services.NewPlaceService(deps.DB, deps.Store, deps.Log)
	galleryService := services.NewGalleryService(deps.DB, deps.Store, deps.Log)
	ratingService := services.NewRatingService(deps.DB)
	experienceService := services.NewExperienceService(deps.DB, deps.Store, deps.Publisher, deps.Log)
	authService := services.NewAuthService(deps.DB, deps.Cfg, deps.Log)

	// Initialize controllers
	placeController := controllers.NewPlaceController(placeService, deps.Cfg, deps.Log)
	galleryController := controllers.NewGalleryController(galleryService, deps.Cfg, deps.Log)
	ratingController := controllers.NewRatingController(ratingService, deps.Log)
	experienceController := controllers.NewExperienceController(experienceService, deps.Cfg, deps.Log)
	authController := controllers.NewAuthController(authService, deps.Google, deps.Cfg, deps.Log)
	healthController := controllers.NewHealthController(deps.DB)

	adminOnly := middleware.AdminAuth(authService, deps.Log)
	rateLimit := middleware.RateLimit(deps.Cfg.RateLimit, deps.Redis, deps.Log)

	if deps.Cfg.StorageDriver == "local" {
		r.Static(deps.Cfg.PublicUploadPrefix, deps.Cfg.UploadDir)
	}

	api := r.Group("/api")
	{
		api.GET("/health", healthController.Health)

		SetupAuthRoutes(api, authController, adminOnly, middleware.OptionalAdmin(authService))
		SetupPlaceRoutes(api, placeController, galleryController, adminOnly)
		SetupRatingRoutes(api, ratingController, adminOnly, rateLimit)
		SetupExperienceRoutes(api, experienceController, adminOnly, rateLimit)
	}
}
