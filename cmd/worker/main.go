package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sebeiconnect/marketplace/internal/config"
	kafkax "github.com/sebeiconnect/marketplace/internal/kafka"
	"github.com/sebeiconnect/marketplace/internal/logger"
	"github.com/sebeiconnect/marketplace/internal/orders"
	"github.com/sebeiconnect/marketplace/internal/redisx"
	"github.com/sebeiconnect/marketplace/internal/statuscache"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(logger.Config{Level: cfg.Logger.Level, Encoding: cfg.Logger.Encoding})
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer rdb.Close()

	proj := &statuscache.Projector{Redis: rdb, Log: log.With("component", "statuscache")}

	consumer := kafkax.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, []string{
		orders.TopicOrderCreated,
		orders.TopicOrderStatusUpdated,
		orders.TopicOrderCancelled,
	}, cfg.Kafka.Workers)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Infof("shutting down...")
		cancel()
	}()

	log.Infof("worker consuming order events (group %s)", cfg.Kafka.ConsumerGroup)
	if err := consumer.Start(ctx, proj.HandleEvent); err != nil {
		log.Fatalf("consumer: %v", err)
	}
}
