package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fjod/go_bookstore/internal/cache"
	"github.com/fjod/go_bookstore/internal/cart"
	"github.com/fjod/go_bookstore/internal/checkout"
	"github.com/fjod/go_bookstore/internal/consumer"
	h "github.com/fjod/go_bookstore/internal/http"
	"github.com/fjod/go_bookstore/internal/publisher"
	"github.com/fjod/go_bookstore/internal/repository"
	"github.com/fjod/go_bookstore/internal/sales"
	"github.com/fjod/go_bookstore/internal/stats"
)

type Config struct {
	HTTPPort           string
	KafkaBrokers       []string
	RedisAddr          string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		KafkaBrokers:       strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RequestTimeout:     30 * time.Second,
		ShutdownTimeout:    10 * time.Second,
		MaxRequestBodySize: 1 << 20, // 1MB
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	log.Println("bookstore server starting...")

	cfg := loadConfig()

	// Database setup
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "postgres")
	dbName := getEnv("DB_NAME", "bookstore")
	migrationsPath := getEnv("MIGRATIONS_PATH", "./migrations")

	port, err := strconv.Atoi(dbPort)
	if err != nil {
		log.Fatalf("Invalid DB_PORT: %v", err)
	}

	creds := &repository.Credentials{
		Host:              dbHost,
		Port:              port,
		User:              dbUser,
		Password:          dbPass,
		DBName:            dbName,
		MigrationsDirPath: migrationsPath,
	}

	repo, err := repository.NewRepository(creds)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	// Redis setup
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	cartCache := cache.NewRedisCartCache(redisClient)
	ranking := cache.NewRedisRanking(redisClient)

	// Services
	cartService := cart.NewService(repo, repo, cartCache)
	checkoutService := checkout.NewService(repo, repo, repo, cartService)
	salesService := sales.NewService(repo)
	statsService := stats.NewService(repo, ranking, repo)

	// Handlers
	cartHandler := h.NewCartHandler(cartService, cfg.RequestTimeout)
	checkoutHandler := h.NewCheckoutHandler(checkoutService, cfg.RequestTimeout)
	salesHandler := h.NewSalesHandler(salesService, cfg.RequestTimeout)
	statsHandler := h.NewStatsHandler(statsService, cfg.RequestTimeout)

	// Background workers: outbox -> Kafka -> best-seller ranking
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	poller := publisher.NewOutboxPoller(repo, cfg.KafkaBrokers...)
	go poller.Run(workerCtx)

	salesConsumer := consumer.NewSalesConsumer(ranking, cfg.KafkaBrokers...)
	defer salesConsumer.Close()
	go salesConsumer.Run(workerCtx)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(h.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.AuthMiddleware)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{item_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{item_id}", cartHandler.RemoveItem)
		})

		r.Post("/checkout", checkoutHandler.Checkout)

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", salesHandler.History)
			r.Get("/{sale_id}", salesHandler.Detail)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.RequireAdmin)

			r.Route("/sales", func(r chi.Router) {
				r.Get("/", salesHandler.AdminList)
				r.Get("/{sale_id}", salesHandler.AdminDetail)
			})

			r.Route("/stats", func(r chi.Router) {
				r.Get("/summary", statsHandler.Summary)
				r.Get("/best-sellers", statsHandler.BestSellers)
				r.Get("/sales-by-category", statsHandler.SalesByCategory)
				r.Get("/sales-by-publisher", statsHandler.SalesByPublisher)
			})

			r.Get("/reports/inventory", statsHandler.InventoryReport)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "bookstore"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Bookstore server listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
