package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sos-alert-service/internal/adapters/directory"
	"sos-alert-service/internal/adapters/gateway"
	"sos-alert-service/internal/api"
	"sos-alert-service/internal/config"
	"sos-alert-service/internal/platform/db"
	"sos-alert-service/internal/platform/logging"
	"sos-alert-service/internal/platform/metrics"
	"sos-alert-service/internal/services"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, Twilio, Redis, Kafka) behind ports and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqlDB, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer sqlDB.Close()

	// A missing or malformed gateway credential stops start-up here,
	// before any SOS request can be accepted.
	gw, err := gateway.NewTwilioGateway(cfg.Gateway.AccountSID, cfg.Gateway.AuthToken, cfg.Gateway.BaseURL)
	if err != nil {
		logger.Fatal("configure sms gateway", zap.Error(err))
	}

	composer, err := services.NewMessageComposer(cfg.Message.Template, cfg.Message.MapLinkBaseURL)
	if err != nil {
		logger.Fatal("configure alert message", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	dispatcher, err := services.NewAlertDispatcher(
		services.DispatcherConfig{SenderID: cfg.Gateway.FromNumber, Concurrency: cfg.Dispatch.Concurrency},
		directory.NewPostgresContactDirectory(sqlDB),
		gw,
		composer,
		logger,
		metrics.New(reg),
	)
	if err != nil {
		logger.Fatal("configure dispatcher", zap.Error(err))
	}

	alertHistory, closeHistory, err := openHistory(ctx, cfg, sqlDB)
	if err != nil {
		logger.Fatal("open alert history", zap.Error(err))
	}
	defer closeHistory()

	router := api.NewRouter(api.Deps{
		Dispatcher: dispatcher,
		History:    alertHistory,
		Gatherer:   reg,
		Logger:     logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
