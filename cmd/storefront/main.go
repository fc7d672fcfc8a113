package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/huulo/storefront/internal/auth"
	"github.com/huulo/storefront/internal/catalog"
	"github.com/huulo/storefront/internal/kv"
	"github.com/huulo/storefront/internal/kv/rediskv"
	"github.com/huulo/storefront/internal/kv/sqlitekv"
	"github.com/huulo/storefront/internal/orders"
	"github.com/huulo/storefront/internal/outbox"
	"github.com/huulo/storefront/internal/payment"
	"github.com/huulo/storefront/internal/server"
	"github.com/huulo/storefront/pkg/logging"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	logging.Setup()
	slog.Info("storefront starting")
	var wg sync.WaitGroup

	httpAddr := getEnv("HTTP_ADDR", ":8080")
	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	// Product catalog (SQLite).
	catalogRepo, err := catalog.NewRepository(getEnv("CATALOG_DB_PATH", "./data/catalog.db"))
	if err != nil {
		slog.Error("failed to open catalog database", "error", err)
		os.Exit(1)
	}
	defer catalogRepo.Close()
	if err := catalogRepo.RunMigrations(getEnv("CATALOG_MIGRATIONS_PATH", "./internal/catalog/migrations")); err != nil {
		slog.Error("failed to run catalog migrations", "error", err)
		os.Exit(1)
	}
	cachedCatalog := catalog.NewCachedLister(catalogRepo, 5*time.Minute)

	// Order store (Postgres).
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		slog.Error("invalid DB_PORT", "error", err)
		os.Exit(1)
	}
	creds := &orders.Credentials{
		Host:              getEnv("DB_HOST", "localhost"),
		Port:              dbPort,
		User:              getEnv("DB_USER", "postgres"),
		Password:          getEnv("DB_PASSWORD", "postgres"),
		DBName:            getEnv("DB_NAME", "storefront"),
		MigrationsDirPath: getEnv("ORDERS_MIGRATIONS_PATH", "./internal/orders/migrations"),
	}
	orderRepo, err := orders.NewRepository(creds)
	if err != nil {
		slog.Error("failed to connect to orders database", "error", err)
		os.Exit(1)
	}
	defer orderRepo.Close()
	if err := orderRepo.RunMigrations(creds); err != nil {
		slog.Error("failed to run orders migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations completed")

	// Durable cart snapshots: Redis when configured, embedded SQLite
	// otherwise.
	var cartKV kv.Store
	switch getEnv("CART_STORAGE", "sqlite") {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		cartKV = rediskv.New(client)
	default:
		store, err := sqlitekv.New(getEnv("CART_DB_PATH", "./data/carts.db"))
		if err != nil {
			slog.Error("failed to open cart database", "error", err)
			os.Exit(1)
		}
		cartKV = store
	}
	defer cartKV.Close()

	paystackSecret := getEnv("PAYSTACK_SECRET_KEY", "")
	paystack := payment.NewPaystackClient(
		getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		paystackSecret,
		&http.Client{Timeout: 10 * time.Second},
	)

	srv := server.New(server.Config{
		Catalog:  cachedCatalog,
		Products: catalogRepo,
		Gateway:  orderRepo,
		History:  orderRepo,
		Payments: paystack,
		Sessions: server.NewSessions(cartKV),
		Verifier: auth.NewVerifier(jwtSecret),
		// Paystack signs webhooks with the same secret key.
		WebhookSecret: paystackSecret,
	})

	// Outbox poller publishes completed orders to Kafka when brokers are
	// configured.
	pollerCtx, pollerCancel := context.WithCancel(context.Background())
	defer pollerCancel()
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		poller := outbox.NewPoller(orderRepo, strings.Split(brokers, ",")...)
		wg.Add(1)
		go func() {
			defer wg.Done()
			poller.Run(pollerCtx)
		}()
		slog.Info("outbox poller started", "brokers", brokers)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", otelhttp.NewHandler(srv.Routes(), "storefront"))

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("http server listening", "addr", httpAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "error", err)
	}

	pollerCancel()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		slog.Warn("outbox poller did not stop in time")
	}
	slog.Info("storefront stopped")
}
