package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/isdelr/grandline-guide/internal/api"
	"github.com/isdelr/grandline-guide/internal/auth"
	"github.com/isdelr/grandline-guide/internal/config"
	"github.com/isdelr/grandline-guide/internal/countries"
	"github.com/isdelr/grandline-guide/internal/database"
	"github.com/isdelr/grandline-guide/internal/guide"
	"github.com/isdelr/grandline-guide/internal/logger"
	"github.com/isdelr/grandline-guide/internal/monitoring"
	"github.com/isdelr/grandline-guide/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Init(os.Stderr, "info")
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Set up database
	db, err := database.New(ctx, cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up services
	userService := services.NewUserService(db)
	eventService := services.NewEventService(db)
	tokenService := auth.NewTokenService(cfg.JWTSecret)

	var generator guide.Generator = guide.Unavailable{}
	if cfg.GeminiAPIKey != "" {
		gen, err := guide.NewGenAIGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize generation client")
		}
		generator = gen
		log.Info().Str("model", gen.Name()).Msg("Country guides enabled")
	} else {
		log.Warn().Msg("GEMINI_API_KEY is not set, country guide requests will fail")
	}
	guideService := guide.NewService(generator, cfg.GuideTimeout)

	// Set up and run the background health monitor
	directory := countries.NewClient(cfg.CountriesBaseURL)
	monitor := monitoring.NewMonitor(db, directory, eventService, cfg.HealthSchedule)
	if err := monitor.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start health monitor")
	}

	// Set up router
	router := api.NewRouter(cfg.AllowedOrigins, userService, eventService, tokenService, guideService, monitor)

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		monitor.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("Server stopped with error")
	}
	log.Info().Msg("Server exiting")
}
