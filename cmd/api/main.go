package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"memoria/internal/adapter/repo"
	httpapi "memoria/internal/http"
	"memoria/internal/http/handlers"
	"memoria/internal/infra"
	"memoria/internal/providers/render"
	"memoria/internal/videojobs"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	jobRepo := repo.NewVideoJobRepository(pool)
	petRepo := repo.NewPetRepository(pool)

	renderClient := render.NewClient(render.Options{
		BaseURL: cfg.RenderBaseURL,
		APIKey:  cfg.RenderAPIKey,
		Timeout: cfg.RenderRequestTimeout,
	})

	jobs := videojobs.NewService(jobRepo, petRepo, renderClient, logger, videojobs.Options{
		Policy: videojobs.RetryPolicy{
			Interval:    cfg.RenderPollInterval,
			MaxAttempts: cfg.RenderPollMaxAttempts,
			Jitter:      0.1,
		},
		MaxConcurrent: int64(cfg.RenderMaxConcurrent),
	})
	defer jobs.Close()

	reaper := videojobs.NewReaper(jobRepo, videojobs.RetryPolicy{
		Interval:    cfg.RenderPollInterval,
		MaxAttempts: cfg.RenderPollMaxAttempts,
	}, logger)
	go reaper.Run(ctx)

	app := handlers.NewApp(jobs, logger)
	router := httpapi.NewRouter(app, cfg, logger)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
