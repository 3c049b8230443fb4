package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sanjuan-tahitic/api-go/config"
	"github.com/sanjuan-tahitic/api-go/events"
	"github.com/sanjuan-tahitic/api-go/middleware"
	"github.com/sanjuan-tahitic/api-go/routes"
	"github.com/sanjuan-tahitic/api-go/storage"
	"github.com/sanjuan-tahitic/api-go/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.NewLogger(false).WithError(err).Fatal("invalid configuration")
	}
	log := utils.NewLogger(cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}

	store, err := storage.New(cfg)
	if err != nil {
		log.WithError(err).Fatal("storage initialization failed")
	}

	rdb := config.NewRedisClient(cfg)
	if rdb == nil {
		log.Warn("redis not available: rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		publisher = events.NewAMQPPublisher(cfg.RabbitMQURL, log)
		go events.StartModerationConsumer(ctx, cfg.RabbitMQURL, log)
	} else {
		log.Info("RABBITMQ_URL not set: moderation events disabled")
	}
	defer publisher.Close()

	google := config.NewGoogleConfig(cfg)
	if google == nil {
		log.Info("google sign-in not configured")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.SetupCORS(cfg.CORSOrigins))
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.WithError(err).Fatal("invalid TRUSTED_PROXIES")
	}
	r.MaxMultipartMemory = cfg.MaxPDFBytes + (16 << 20)

	// Initialize routes
	routes.SetupRoutes(r, routes.Dependencies{
		Cfg:       cfg,
		DB:        db,
		Store:     store,
		Redis:     rdb,
		Publisher: publisher,
		Google:    google,
		Log:       log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
