package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rim/rim/internal/config"
	"github.com/rim/rim/internal/domain/codes"
	"github.com/rim/rim/internal/domain/newtech"
	"github.com/rim/rim/internal/domain/reimbursement"
	"github.com/rim/rim/internal/platform/middleware"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "rim-server",
		Short: "Reimbursement Intelligence API Server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(checkCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the reimbursement API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// checkCmd loads the datasets without serving, so a deployment can verify
// its data directory before rollout.
func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configured data directory and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			ctx := cmd.Context()

			codeSvc := codes.NewService(
				codes.NewJSONSource(cfg.DataDir, logger),
				codes.NewPaymentCalculator(codes.PaymentConfig{
					FacilityCF:     cfg.FacilityCF,
					NonFacilityCF:  cfg.NonFacilityCF,
					IPPSMultiplier: cfg.IPPSMultiplier,
				}),
				logger,
			)
			if err := codeSvc.Load(ctx); err != nil {
				return err
			}

			programSvc := newtech.NewService(
				newtech.NewJSONSource(cfg.DataDir, logger),
				newtechConfig(cfg),
				logger,
			)
			if err := programSvc.Load(ctx); err != nil {
				return err
			}

			stats := codeSvc.GetStats()
			logger.Info().
				Int("codes", stats.TotalCodes).
				Str("data_dir", cfg.DataDir).
				Msg("data directory OK")
			return nil
		},
	}
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

func newtechConfig(cfg *config.Config) newtech.Config {
	return newtech.Config{
		NtapPercentage:              cfg.NTAPPercentage,
		NtapMaxCap:                  cfg.NTAPMaxCap,
		NtapCostThresholdMultiplier: cfg.NTAPCostThresholdMultiplier,
		TptMaxPassThroughYears:      cfg.TPTMaxPassThroughYears,
		TptPackagedShare:            cfg.TPTPackagedShare,
		TptCostSignificance:         cfg.TPTCostSignificance,
	}
}

func runServer() error {
	logger := newLogger()

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()

	// Code index
	codeSource := codes.NewJSONSource(cfg.DataDir, logger)
	calculator := codes.NewPaymentCalculator(codes.PaymentConfig{
		FacilityCF:     cfg.FacilityCF,
		NonFacilityCF:  cfg.NonFacilityCF,
		IPPSMultiplier: cfg.IPPSMultiplier,
	})
	codeSvc := codes.NewService(codeSource, calculator, logger)
	if err := codeSvc.Load(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to load code dataset")
	}

	// New technology programs
	programSvc := newtech.NewService(newtech.NewJSONSource(cfg.DataDir, logger), newtechConfig(cfg), logger)
	if err := programSvc.Load(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to load program data")
	}

	// Reimbursement calculator
	reimbSvc := reimbursement.NewService(codeSvc, reimbursement.Thresholds{
		ProfitableMin: cfg.ProfitableMinMargin,
		BreakEvenMin:  cfg.BreakEvenMinMargin,
	})

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(middleware.BodyLimit("1M"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))

	// API group
	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))
	apiV1.Use(middleware.Cache(middleware.DefaultCacheConfig()))

	// Domain routes
	codes.NewHandler(codeSvc).RegisterRoutes(apiV1)
	reimbursement.NewHandler(reimbSvc).RegisterRoutes(apiV1)
	newtech.NewHandler(programSvc).RegisterRoutes(apiV1)

	// Health check
	e.GET("/health", func(c echo.Context) error {
		stats := codeSvc.GetStats()
		status := "ok"
		if !codeSvc.Ready() || !programSvc.Ready() {
			status = "loading"
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":      status,
			"version":     version,
			"codesLoaded": stats.TotalCodes,
		})
	})

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
