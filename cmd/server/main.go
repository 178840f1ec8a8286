package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/teslo-shop/backend/internal/config"
	"github.com/teslo-shop/backend/internal/db"
	"github.com/teslo-shop/backend/internal/es"
	"github.com/teslo-shop/backend/internal/events"
	"github.com/teslo-shop/backend/internal/httpserver"
	"github.com/teslo-shop/backend/internal/kvstore"
	"github.com/teslo-shop/backend/internal/logging"
	"github.com/teslo-shop/backend/internal/paypal"
	"github.com/teslo-shop/backend/internal/repo"
	"github.com/teslo-shop/backend/internal/service"
)

func main() {
	cfg := config.MustLoad()

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()
	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis ping error: %v", err)
	}
	sessionStore := kvstore.NewRedisStore(redisClient)

	var producer *events.Producer
	if cfg.KafkaAddress != "" {
		producer = events.NewProducer(cfg.KafkaAddress)
	}

	repository := repo.New(gdb)

	orderSvc := &service.OrderService{Repo: repository, TaxRate: cfg.TaxRate}
	paymentSvc := &service.PaymentService{
		Repo:     repository,
		Provider: paypal.NewClient(cfg.PaypalClientID, cfg.PaypalSecret, cfg.PaypalOAuthURL, cfg.PaypalOrdersURL),
	}
	if producer != nil {
		orderSvc.Events = producer
		paymentSvc.Events = producer
	}

	deps := &httpserver.Deps{
		AuthHandler: &httpserver.AuthHandler{
			Repo:          repository,
			JWTSecret:     []byte(cfg.JWTSecret),
			RefreshSecret: []byte(cfg.RefreshSecret),
		},
		ProductHandler: &httpserver.ProductHandler{Repo: repository, Index: "products"},
		CartHandler: &httpserver.CartHandler{
			Store:   sessionStore,
			Repo:    repository,
			Placer:  orderSvc,
			TaxRate: cfg.TaxRate,
		},
		OrderHandler: &httpserver.OrderHandler{
			OrderSvc:   orderSvc,
			PaymentSvc: paymentSvc,
			Repo:       repository,
		},
		Auth: &httpserver.AuthMiddleware{JWTSecret: []byte(cfg.JWTSecret)},
	}
	if producer != nil {
		deps.AuthHandler.Events = producer
		deps.ProductHandler.Events = producer
		deps.CartHandler.Events = producer
	}

	if cfg.ES_URL != "" {
		esClient, err := es.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		deps.ProductHandler.ES = esClient
		deps.SearchHandler = &httpserver.SearchHandler{ES: esClient, Index: "products"}
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(httpserver.RequestLogger(logger))

	httpserver.Register(e, deps)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := gdb.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("redis close error: %v", err)
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Printf("kafka close error: %v", err)
		}
	}

	log.Println("shutdown complete")
}
