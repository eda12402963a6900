// Command server runs the tester coordination API.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aimd54/testquiz/internal/api/adminapi"
	"github.com/aimd54/testquiz/internal/api/identity"
	"github.com/aimd54/testquiz/internal/api/testerapi"
	"github.com/aimd54/testquiz/internal/cache"
	"github.com/aimd54/testquiz/internal/config"
	"github.com/aimd54/testquiz/internal/repository"
	"github.com/aimd54/testquiz/internal/service/branching"
	"github.com/aimd54/testquiz/internal/service/export"
	"github.com/aimd54/testquiz/internal/service/ledger"
	"github.com/aimd54/testquiz/internal/service/progression"
	"github.com/aimd54/testquiz/internal/service/rewards"
	"github.com/aimd54/testquiz/internal/service/visibility"
	"github.com/aimd54/testquiz/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log := logger.Get()

	db, err := repository.NewDB(&cfg.Database.Postgres, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(log); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	redisCache, err := cache.NewRedisCache(&cfg.Database.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisCache.Close()

	testerRepo := repository.NewTesterRepository(db)
	subRepo := repository.NewSubmissionRepository(db)
	contentRepo := repository.NewContentRepository(db)
	progressRepo := repository.NewProgressRepository(db)

	visibilitySvc := visibility.NewService(progressRepo, log)
	tracker := progression.NewTracker(progressRepo, log)
	ledgerSvc := ledger.NewService(db, ledger.WeightsFromConfig(cfg.Points), redisCache, log)
	rewardsSvc := rewards.NewService(db, redisCache, cfg.Season, log)
	branchingSvc := branching.NewService(testerRepo, subRepo, contentRepo, log)
	exportSvc := export.NewService(db, log)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		if err := db.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	authed := router.Group("/api/v1")
	authed.Use(identity.NewMiddleware(testerRepo, log))

	testerHandler := testerapi.NewHandler(db, visibilitySvc, tracker, ledgerSvc, rewardsSvc, branchingSvc, log)
	testerHandler.RegisterRoutes(authed)

	admin := authed.Group("/admin")
	admin.Use(identity.RequireAdmin())
	adminHandler := adminapi.NewHandler(db, ledgerSvc, rewardsSvc, exportSvc, log)
	adminHandler.RegisterRoutes(admin)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Forced shutdown")
	}
	log.Info().Msg("Server stopped")
}
