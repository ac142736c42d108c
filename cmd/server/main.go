package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/workhive/workhive/internal/adapters/http"
	wssignal "github.com/workhive/workhive/internal/adapters/signal"
	"github.com/workhive/workhive/internal/app"
	"github.com/workhive/workhive/internal/auth"
	"github.com/workhive/workhive/internal/config"
	"github.com/workhive/workhive/internal/core"
	"github.com/workhive/workhive/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Mode == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	st, err := store.NewMongo(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}()

	guard := &app.Guard{Store: st}
	set := core.NewRoomSet()
	calls := app.NewCalls(guard)

	ctl := &wssignal.Controller{
		Cfg:        cfg,
		Verifier:   auth.NewJWTVerifier(cfg.AuthSecret),
		Registry:   app.NewRegistry(),
		Rooms:      &app.Rooms{Guard: guard, Set: set},
		Relay:      &app.Relay{Guard: guard, Store: st},
		Calls:      calls,
		Interviews: app.NewInterviews(guard, set),
		Set:        set,
		Limiter:    wssignal.NewEventRateLimiter(100, 10*time.Second),
	}

	if cfg.CallIdleTTL > 0 {
		go calls.Reap(ctx, cfg.CallIdleTTL, ctl.ExpireCall)
	}

	r := router.SetupRouter(ctx, cfg, ctl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("workhive coordinator started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
