package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/finadigital/wifipass/internal/bootstrap"
	"github.com/finadigital/wifipass/internal/checkout"
	"github.com/finadigital/wifipass/internal/controller"
	"github.com/finadigital/wifipass/internal/domain/catalog"
	"github.com/finadigital/wifipass/internal/retrieval"
	"github.com/finadigital/wifipass/internal/service"
	"github.com/finadigital/wifipass/internal/store"
	"github.com/finadigital/wifipass/internal/webhook"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, "wifipass-api", "wifipass")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	cfg := app.Config

	// --- Domain ---
	cat, err := catalog.New(catalog.DefaultPasses())
	if err != nil {
		app.Logger.Fatal().Err(err).Msg("Invalid pass catalog")
	}

	sessions := store.NewSessionStore(cfg.Session.TTL, cfg.Session.SweepInterval)
	go sessions.Run(ctx)

	// --- Upstream webhooks ---
	issuer := webhook.NewIssuer(cfg.Webhooks.RequestTimeout)
	recorder := webhook.NewRecorder(cfg.Webhooks.PersistenceURL, cfg.Webhooks.RequestTimeout, app.Logger, app.Metrics)

	engine := retrieval.NewEngine(issuer, retrieval.Config{
		AutoURL:     cfg.Webhooks.CodeAutoURL,
		ManualURL:   cfg.Webhooks.CodeManualURL,
		MaxAttempts: cfg.Retrieval.MaxAttempts,
		RetryDelay:  cfg.Retrieval.RetryDelay,
	}, app.Logger, app.Metrics)

	// --- Storefront ---
	storefront := service.NewStorefront(
		cat, sessions, checkout.NewBuilder(cfg.Checkout),
		engine, recorder, app.Logger, app.Metrics)

	router := controller.NewRouter(controller.RouterDeps{
		Storefront: storefront,
		Sessions:   sessions,
		Metrics:    app.Metrics,
		Config:     cfg,
	})

	// --- HTTP server ---
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()

	app.Logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	app.Logger.Info().Msg("Server exited")
}
