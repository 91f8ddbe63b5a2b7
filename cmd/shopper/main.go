package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gartstein/shopper/internal/shopper/auth"
	"github.com/gartstein/shopper/internal/shopper/config"
	"github.com/gartstein/shopper/internal/shopper/controller"
	"github.com/gartstein/shopper/internal/shopper/db"
	"github.com/gartstein/shopper/internal/shopper/events"
	"github.com/gartstein/shopper/internal/shopper/handlers"
	"github.com/gartstein/shopper/internal/shopper/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const dbStartupTimeout = 30 * time.Second

func main() {
	logger := initLogger()
	defer func(logger *zap.Logger) {
		err := logger.Sync()
		if err != nil {
			logger.Error("failed to sync logger", zap.Error(err))
		}
	}(logger)

	cfg, err := config.Load("")
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	ctx := context.Background()
	store, err := db.OpenWithRetry(ctx, cfg.Database(), logger, m, dbStartupTimeout)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	var producer controller.EventProducer
	if cfg.EventsEnabled {
		p, err := events.NewProducer(cfg.KafkaBrokers, cfg.Topic, logger, m)
		if err != nil {
			logger.Fatal("failed to initialize Kafka producer", zap.Error(err))
		}
		defer p.Close()
		producer = p
	}

	companySvc := controller.NewCompanyService(store, producer, m, logger)
	productSvc := controller.NewProductService(store, producer, m, logger)

	creds := auth.Credentials{JWTSecret: cfg.JWTSecret, APIKey: cfg.APIKey}
	authInterceptor := auth.NewAuthInterceptor(creds, "/"+handlers.ServiceName+"/")

	server := handlers.NewServer(cfg.GRPCPort, cfg.HTTPPort, logger, grpc.UnaryInterceptor(authInterceptor.Unary()))
	server.RegisterGRPCHandler(handlers.NewShopperHandler(companySvc, productSvc, logger))

	httpHandler := handlers.NewHTTPHandler(companySvc, productSvc, m, logger)
	if err := server.RegisterHTTPGateway(httpHandler, creds, prometheus.DefaultGatherer, store); err != nil {
		logger.Fatal("Failed to register HTTP gateway", zap.Error(err))
	}

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start servers", zap.Error(err))
		}
	}()

	waitForShutdown(server, logger)
}

// initLogger initializes a Zap production logger.
func initLogger() *zap.Logger {
	logger, _ := zap.NewProduction()
	return logger
}

// waitForShutdown blocks until an interrupt or SIGTERM is received, then shuts down servers.
func waitForShutdown(server *handlers.Server, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	server.Stop()
	logger.Info("Servers stopped properly")
}
