package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sebeiconnect/marketplace/internal/auth"
	"github.com/sebeiconnect/marketplace/internal/config"
	"github.com/sebeiconnect/marketplace/internal/httpx"
	kafkax "github.com/sebeiconnect/marketplace/internal/kafka"
	"github.com/sebeiconnect/marketplace/internal/listings"
	"github.com/sebeiconnect/marketplace/internal/logger"
	"github.com/sebeiconnect/marketplace/internal/orders"
	"github.com/sebeiconnect/marketplace/internal/postgres"
	"github.com/sebeiconnect/marketplace/internal/redisx"
	"github.com/sebeiconnect/marketplace/internal/users"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(logger.Config{Level: cfg.Logger.Level, Encoding: cfg.Logger.Encoding})
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.ProducerBuf)
	prod.Start(ctx)

	// Services
	tokens := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	userSvc := users.NewService(&users.Repo{DB: db}, tokens, log.With("component", "users"))
	listingSvc := listings.NewService(&listings.Repo{DB: db}, rdb, log.With("component", "listings"))
	orderSvc := orders.NewService(&orders.Repo{DB: db}, prod, rdb, cfg.ServiceName, log.With("component", "orders"))

	// Router & handlers
	router := httpx.NewRouter(cfg.HTTP.RequestTimeout)
	(&httpx.AuthHandler{Users: userSvc, Tokens: tokens}).Register(router)
	(&httpx.ListingsHandler{Listings: listingSvc, Tokens: tokens}).Register(router)
	(&httpx.OrdersHandler{Orders: orderSvc, Tokens: tokens}).Register(router)

	srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}

	go func() {
		log.Infof("HTTP listening at %s", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Infof("shutting down...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancelShutdown()
	_ = srv.Shutdown(shutdownCtx)

	prod.Close() // close inbox so the loop flushes and exits
	prod.WaitClosed()
}
