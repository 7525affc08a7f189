package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-payment/internal/adyen"
	"ms-payment/internal/auth"
	"ms-payment/internal/config"
	"ms-payment/internal/database/migrations"
	"ms-payment/internal/kafka"
	"ms-payment/internal/logger"
	"ms-payment/internal/metrics"
	handlers "ms-payment/internal/payment/handler"
	lockwrap "ms-payment/internal/payment/redis"
	"ms-payment/internal/payment/services"
	"ms-payment/internal/payment/storage"
	"ms-payment/internal/payment/worker"
	"ms-payment/internal/sse"
)

func connectPostgres(cfg config.DatabaseConfig, log *logger.Logger) *sql.DB {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.DSN())
		if err == nil {
			if err = sqldb.Ping(); err == nil {
				break
			}
			sqldb.Close()
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)
	log.Info("DATABASE", "✅ PostgreSQL connection successful")
	return sqldb
}

// runMigrations uses a connection of its own; the migrator closes it.
func runMigrations(cfg *config.Config, log *logger.Logger) {
	migrationDB, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("MIGRATION", fmt.Sprintf("Failed to open migration connection: %v", err))
	}
	runner := migrations.NewRunner(migrationDB, cfg.MigrationsDir, log)
	defer runner.Close()

	if err := runner.Up(); err != nil {
		log.Fatal("MIGRATION", fmt.Sprintf("Failed to run migrations: %v", err))
	}
}

func connectRedis(ctx context.Context, addr string, log *logger.Logger) *redis.Client {
	redisClient := redis.NewClient(&redis.Options{Addr: addr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("REDIS", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("REDIS", fmt.Sprintf("✅ Redis connection successful to %s", addr))
	return redisClient
}

func healthHandler(store *storage.BunStore, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{"database": "ok", "redis": "ok"}
		status := http.StatusOK
		if err := store.HealthCheck(ctx); err != nil {
			checks["database"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			checks["redis"] = err.Error()
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(checks)
	}
}

func main() {
	log := logger.NewLogger("payment-service")
	defer log.Close()

	log.Info("APP", "Starting Payment Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("CONFIG", fmt.Sprintf("Invalid configuration: %v", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bunDB := bun.NewDB(connectPostgres(cfg.Database, log), pgdialect.New())
	runMigrations(cfg, log)

	store := storage.NewBunStore(bunDB, log)
	defer store.Close()

	if cfg.Adyen.SeedOnStartup {
		method := cfg.Adyen.Method
		if err := store.SavePaymentMethod(ctx, &method); err != nil {
			log.Fatal("CONFIG", fmt.Sprintf("Failed to store payment method %s: %v", method.ID, err))
		}
		log.Info("CONFIG", fmt.Sprintf("Payment method %s ready for merchant account %s", method.ID, method.MerchantAccount))
	}

	redisClient := connectRedis(ctx, cfg.Redis.Addr, log)
	defer redisClient.Close()

	m := metrics.New()
	emitter := sse.NewPaymentEventEmitter()
	notifier := &services.OrderNotifier{Broadcaster: emitter}

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		topics := []string{cfg.Kafka.Topics.PaymentEvents, cfg.Kafka.Topics.PaymentCommands}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, topics, log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.PaymentEvents, log)
		defer producer.Close()
		notifier.Publisher = producer
		log.Info("KAFKA", "Kafka producer initialized successfully")
	}

	urls, err := services.NewBaseURLResolver(cfg.PublicBaseURL)
	if err != nil {
		log.Fatal("CONFIG", err.Error())
	}

	service, err := services.NewAdyenService(services.Dependencies{
		Payments:    store,
		Credentials: store,
		Clients:     adyen.NewClientFactory(cfg.Adyen.Timeout, log),
		URLs:        urls,
		Locker:      lockwrap.NewReferenceLock(redisClient, cfg.Redis.LockTTL, log),
		Orders:      notifier,
		Metrics:     m,
		Logger:      log,
	})
	if err != nil {
		log.Fatal("APP", fmt.Sprintf("Failed to create payment service: %v", err))
	}

	if cfg.Kafka.Enabled {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.PaymentCommands, cfg.Kafka.GroupID, log)
		defer consumer.Close()
		commandWorker := worker.NewCommandWorker(service, m, log)
		go func() {
			if err := commandWorker.Run(ctx, consumer); err != nil {
				log.Error("KAFKA", fmt.Sprintf("Command worker stopped: %v", err))
			}
		}()
	}

	verifier, err := auth.NewVerifier(ctx, cfg.Auth.OIDCIssuer, cfg.Auth.OIDCClientID, cfg.Auth.JWTSecret)
	if err != nil {
		log.Fatal("AUTH", fmt.Sprintf("Failed to set up token verification: %v", err))
	}

	gin.SetMode(gin.ReleaseMode)
	admin := gin.New()
	admin.Use(gin.Recovery())
	handlers.NewAdminHandler(service, store, log).
		RegisterRoutes(admin.Group("/api/admin", auth.GinMiddleware(verifier, log)))

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler(store, redisClient))
	r.Handle("/metrics", m.Handler())

	handlers.NewWebhookHandler(service, cfg.Server.MaxWebhookBytes, log).RegisterRoutes(r)
	(&handlers.PaymentHandler{
		Payments:        service,
		Methods:         store,
		Reader:          store,
		Events:          emitter,
		DefaultMethodID: cfg.Adyen.Method.ID,
		Logger:          log,
	}).RegisterRoutes(r)
	r.Mount("/api/admin", admin)
	log.Info("ROUTER", "Routes registered: /webhooks/adyen, /api/payments, /api/admin")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Payment Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Payment Service shutdown complete")
	}
}
