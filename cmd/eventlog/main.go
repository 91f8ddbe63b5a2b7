// eventlog follows the shopper event topic and logs every change, e.g. to
// audit writes or to check the event stream of a deployment.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gartstein/shopper/internal/shopper/config"
	"github.com/gartstein/shopper/internal/shopper/events"
	"go.uber.org/zap"
)

const groupID = "shopper-eventlog"

func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load("")
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	if len(cfg.KafkaBrokers) == 0 || cfg.Topic == "" {
		logger.Fatal("KAFKA_BROKERS and TOPIC are required")
	}

	consumer := events.NewConsumer(cfg.KafkaBrokers, groupID, cfg.Topic, logger)
	defer consumer.Close()

	consumer.RegisterHandler(func(_ context.Context, event events.Event) error {
		logger.Info("Event",
			zap.String("type", string(event.Type)),
			zap.String("aggregate", event.Aggregate),
			zap.Uint("id", event.ID),
			zap.Time("occurred_at", event.OccurredAt),
			zap.ByteString("payload", event.Payload),
		)
		return nil
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Following events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.Topic))
	consumer.Run(ctx)
	logger.Info("Event log stopped")
}
