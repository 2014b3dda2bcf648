package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/kindlr/kindlr/internal/config"
	"github.com/kindlr/kindlr/internal/database"
	"github.com/kindlr/kindlr/internal/handlers"
	"github.com/kindlr/kindlr/internal/messaging"
	"github.com/kindlr/kindlr/internal/middleware"
	"github.com/kindlr/kindlr/internal/services"
)

type App struct {
	config   *config.Store
	logger   *logrus.Logger
	db       *database.Database
	services *services.Services
	bus      *messaging.MessageBus
	handlers *handlers.Handlers
	router   *gin.Engine

	consumerCancel context.CancelFunc
}

func New(cfg *config.Store) (*App, error) {
	app := &App{
		config: cfg,
		logger: setupLogger(cfg.Get()),
	}

	db, err := database.New(cfg.Get(), app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	bus, err := messaging.NewMessageBus(cfg.Get(), app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize message bus: %w", err)
	}
	app.bus = bus

	app.services = services.New(db, cfg, app.logger)
	app.handlers = handlers.New(app.logger, app.services, db, cfg, bus)

	app.setupRouter()
	return app, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

// Start launches the background workers and the swipe-event consumer.
func (a *App) Start() {
	a.services.StartWorkers()

	ctx, cancel := context.WithCancel(context.Background())
	a.consumerCancel = cancel
	go func() {
		if err := a.bus.ConsumeSwipeEvents(ctx, a.services.HandleSwipeEvent); err != nil && ctx.Err() == nil {
			a.logger.WithError(err).Error("Swipe event consumer exited")
		}
	}()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	if a.consumerCancel != nil {
		a.consumerCancel()
	}
	a.services.StopWorkers()

	if err := a.bus.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing message bus")
	}
	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing database connections")
		return err
	}
	return nil
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	return logger
}

func (a *App) setupRouter() {
	if a.config.Get().Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	registerValidations()

	router := gin.New()

	router.Use(middleware.RequestLogger(a.logger))
	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.CORS(a.config))
	router.Use(middleware.Compression())

	router.GET("/health", a.handlers.Health.Check)
	if a.config.Get().Monitoring.Enabled {
		router.GET(a.config.Get().Monitoring.MetricsPath, gin.WrapH(promhttp.Handler()))
	}

	api := router.Group("/api/v1")
	{
		api.Use(middleware.Auth(a.config, a.logger))
		api.Use(middleware.RateLimit(a.db.Redis.Hot, a.config, a.logger))

		api.GET("/candidates/:userId", a.handlers.Candidates.GetCandidates)
		api.GET("/matches/:userId/stats", a.handlers.Matches.GetStats)
		api.GET("/suggestions/:userId/status", a.handlers.Suggestions.GetStatus)
	}

	internal := router.Group("/internal")
	{
		internal.Use(middleware.APIKey(a.config, a.logger))

		internal.POST("/matches", a.handlers.Matches.CreateMutualMatch)
		internal.DELETE("/matches/:userId", a.handlers.Matches.DeleteForUser)
		internal.POST("/activity/ping", a.handlers.Internal.ActivityPing)
		internal.POST("/activity/ping/batch", a.handlers.Internal.ActivityPingBatch)
		internal.DELETE("/accounts/:userId", a.handlers.Internal.DeleteAccount)
	}

	a.router = router
}

// registerValidations adds the binding validations used by request models.
func registerValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterValidation("matchsource", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "swipe", "daily_pick", "rematch", "admin":
			return true
		}
		return false
	})
}
