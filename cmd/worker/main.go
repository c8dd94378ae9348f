package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/papergraph/internal/config"
	"github.com/OFFIS-RIT/papergraph/internal/queue"
	"github.com/OFFIS-RIT/papergraph/internal/util"
	"github.com/OFFIS-RIT/papergraph/pkg/ai"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"
	"github.com/OFFIS-RIT/papergraph/pkg/logger/console"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"
)

var errConsumerClosed = errors.New("consumer channel closed")

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  util.GetEnvBool("DEBUG", false),
		JSON:   util.GetEnvBool("LOG_JSON", false),
		Prefix: "worker",
	})
	logger.Init(consoleLogger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", "err", err)
	}

	// Graph store
	graphStorage, err := cfg.NewGraphStorage(ctx)
	if err != nil {
		logger.Fatal("Unable to connect to graph store", "err", err)
	}
	defer graphStorage.Close(context.Background())

	// Run ledger and lease lock
	pg, err := cfg.OpenPostgres(ctx)
	if err != nil {
		logger.Fatal("Unable to connect to database", "err", err)
	}
	defer pg.Close()

	embedder, err := cfg.NewEmbeddingClient()
	if err != nil {
		logger.Fatal("Could not create embedding client", "err", err)
	}
	hostname, _ := os.Hostname()
	client, err := cfg.NewGraphClient(graphStorage, embedder, pg, "worker@"+hostname)
	if err != nil {
		logger.Fatal("Could not create graph client", "err", err)
	}

	// Init rabbitmq
	conn, err := util.RetryWithContext(ctx, 5, 2*time.Second, func(context.Context) (*amqp.Connection, error) {
		return queue.Init(cfg.RabbitMQ.URL())
	})
	if err != nil {
		logger.Fatal("Failed to connect to queue", "err", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch, queue.Queues); err != nil {
		logger.Fatal("Failed to declare queues", "err", err)
	}

	// Only one ingestion runs at a time
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := ch.Consume(
		queue.IngestQueue,
		queue.IngestQueue+"_consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.IngestQueue, "err", err)
	}

	logger.Info("Listening for messages", "queue", queue.IngestQueue)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				logger.Info("Stopping message processor")
				return nil
			case msg, ok := <-msgs:
				if !ok {
					return errConsumerClosed
				}
				handle(gctx, ch, client, embedder, msg)
			}
		}
	})
	g.Go(func() error {
		closed := conn.NotifyClose(make(chan *amqp.Error, 1))
		select {
		case <-gctx.Done():
			return nil
		case amqpErr := <-closed:
			if amqpErr == nil {
				return errConsumerClosed
			}
			return amqpErr
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped", "err", err)
		return
	}
	logger.Info("Shutdown signal received, exiting...")
}

func handle(ctx context.Context, ch *amqp.Channel, ingester queue.Ingester, embedder ai.EmbeddingClient, msg amqp.Delivery) {
	startTime := time.Now()
	logger.Info("Received message", "queue", queue.IngestQueue)

	if err := queue.ProcessIngestMessage(ctx, ingester, msg.Body); err != nil {
		logger.Error("Error processing message", "queue", queue.IngestQueue, "err", err)
		queue.HandleProcessingError(context.WithoutCancel(ctx), ch, msg, queue.IngestQueue, err)
	} else {
		if err := msg.Ack(false); err != nil {
			logger.Error("Failed to ack message", "err", err)
		}
		logger.Info("Message processed successfully", "queue", queue.IngestQueue)
	}

	if embedder != nil {
		metrics := embedder.GetMetrics()
		logger.Info(
			"AI Metrics",
			"requests", metrics.Requests,
			"input_tokens", metrics.InputTokens,
			"total_tokens", metrics.TotalTokens,
			"duration", formatDuration(time.Duration(metrics.DurationMs)*time.Millisecond),
		)
		embedder.ResetMetrics()
	}

	logger.Info("Processing time", "duration", formatDuration(time.Since(startTime)))
	logger.Info("Waiting for next message")
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d:%02d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}
