package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"namerecon-service/internal/config"
	"namerecon-service/internal/store"
	serverhttp "namerecon-service/server/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logger := config.SetupLogger(cfg)

	st, err := store.Open(cfg.Store.Type, cfg.Store.Path)
	if err != nil {
		logger.Fatal().Err(err).Str("type", cfg.Store.Type).Msg("open store")
	}
	defer func() { _ = st.Close() }()

	r := serverhttp.NewRouter(cfg, st, logger)

	srv := &http.Server{Addr: cfg.Addr(), Handler: r, ReadHeaderTimeout: 10 * time.Second}
	logger.Info().
		Str("addr", cfg.Addr()).
		Str("store", cfg.Store.Type).
		Float64("threshold", cfg.Match.Threshold).
		Bool("pprof", cfg.Pprof).
		Msg("server starting")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	logger.Info().Msg("bye")
}
