package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"pharmadash/internal/config"
	"pharmadash/internal/modules/datamanager/application/handler"
	"pharmadash/internal/modules/datamanager/application/usecase"
	"pharmadash/internal/modules/datamanager/infrastructure"
	transport "pharmadash/internal/modules/datamanager/interface"
	"pharmadash/internal/platform/broker"
	"pharmadash/internal/shared/auth"
	"pharmadash/internal/shared/logging"
)

func main() {
	// Load .env so local runs honour configuration tweaks.
	if err := godotenv.Overload(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, ".env load warning: %v\n", err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logFile, _, err := logging.Setup(cfg.Logging.Directory, logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: true,
	}, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging setup error: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	slog.Info("logging initialized", slog.String("directory", cfg.Logging.Directory), slog.String("level", cfg.Logging.Level), slog.String("format", cfg.Logging.Format))
	slog.Info("kafka config resolved", slog.Bool("enabled", cfg.Kafka.Enabled), slog.Any("brokers", cfg.Kafka.Brokers), slog.String("group", cfg.Kafka.GroupID))

	catalog, err := infrastructure.LoadScreenCatalog(cfg.Screens.File, cfg.Screens.BulkPolicy)
	if err != nil {
		slog.Error("screen catalog load failed", slog.String("file", cfg.Screens.File), slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("screen catalog loaded", slog.Any("endpoints", catalog.Endpoints()))

	validator, err := auth.NewJWTValidatorWithPublicKey(cfg.Security.JWTSecret, cfg.Security.JWTPublicKey)
	if err != nil {
		slog.Error("jwt validator setup failed", slog.Any("error", err))
		os.Exit(1)
	}

	hub := infrastructure.NewHub()
	broadcastUC := usecase.NewBroadcastUseCase(hub)

	rest := infrastructure.NewRESTClient(cfg.REST.BaseURL, cfg.REST.Timeout, nil)
	listingClient := infrastructure.NewListingHTTPClient(rest, cfg.REST.Timeout, cfg.REST.PageSize)
	mutationClient := infrastructure.NewMutationHTTPClient(rest, cfg.REST.Timeout)
	loader := usecase.NewListingLoader(listingClient, usecase.NewMemoryListingCache(cfg.Cache.TTL))

	registry := usecase.NewManagerRegistry(catalog, usecase.Dependencies{
		Loader:    loader,
		Lookups:   listingClient,
		Mutator:   mutationClient,
		Confirmer: usecase.ContextConfirmer{},
		Notifier:  usecase.NewNotificationDispatcher(catalog, broadcastUC),
	})

	handlers := infrastructure.NewHandlerRegistry()
	for endpoint, topics := range cfg.Kafka.Topics {
		for _, topic := range topics {
			handlers.Register(handler.NewChangeEventHandler(topic, endpoint, cfg.Kafka.AllowedActions, loader, registry, broadcastUC))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	broker.StartKafkaConsumers(ctx, handlers, broker.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID), cfg.Kafka.Enabled)
	go registry.RunJanitor(ctx, cfg.Cache.SessionIdle, time.Minute)

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetOutput(log.Writer())
	transport.RegisterRoutes(e, transport.RouterDeps{
		Registry:   registry,
		Hub:        hub,
		Validator:  validator,
		Handler:    transport.NewDataManagerHandler(registry, cfg.REST.Timeout+5*time.Second),
		SendBuffer: cfg.Websocket.SendBuffer,
	})

	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil {
			slog.Error("http server stopped", slog.Any("error", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	slog.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http server shutdown error", slog.Any("error", err))
	}
}
