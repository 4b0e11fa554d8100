// cmd/api/main.go
// Main entry point for the application
// This file bootstraps all components and starts the server

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tablemates/tablemates-backend/internal/auth"
	"github.com/tablemates/tablemates-backend/internal/common/database"
	"github.com/tablemates/tablemates-backend/internal/config"
	"github.com/tablemates/tablemates-backend/internal/dining"
	"github.com/tablemates/tablemates-backend/internal/event"
	"github.com/tablemates/tablemates-backend/internal/kyc"
	"github.com/tablemates/tablemates-backend/internal/notification"
	"github.com/tablemates/tablemates-backend/internal/payment"
	"github.com/tablemates/tablemates-backend/internal/profile"
	"github.com/tablemates/tablemates-backend/internal/restaurant"
)

func main() {
	// 1. Load environment variables
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	// 2. Load configuration
	cfg := config.Load()

	// 3. Set up structured logging
	logger := newLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("starting tablemates API", "environment", cfg.Environment)

	// 4. Validate configuration
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", "error", err)
		os.Exit(1)
	}

	// 5. Connect to PostgreSQL
	db, err := database.NewPostgresDBFromURL(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL")

	// 6. Connect to Redis (optional, map listing falls back to uncached)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClientFromURL(cfg.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, continuing without cache", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			logger.Info("connected to Redis")
		}
	}

	// 7. Run database migrations
	if err := runMigrations(db); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database migrations completed")

	// 8. Initialize auth
	authRepo := auth.NewPostgresRepository(db)
	authService := auth.NewService(authRepo, cfg)
	authHandler := auth.NewHandler(authService)
	authMiddleware := auth.NewMiddleware(authService)

	// 9. Initialize profiles
	profileRepo := profile.NewPostgresRepository(db)
	profileService := profile.NewService(profileRepo, authService, logger)
	profileHandler := profile.NewHandler(profileService)

	// 10. Initialize restaurants
	restaurantRepo := restaurant.NewPostgresRepository(db)
	restaurantService := restaurant.NewService(restaurantRepo, redisClient, cfg, logger)
	restaurantHandler := restaurant.NewHandler(restaurantService, profileService)

	// 11. Initialize events and the matching engine
	eventRepo := event.NewPostgresRepository(db)
	matchingEngine := event.NewMatchingEngine(cfg.Weights, cfg.NearbyRadiusKm)
	eventMetrics := event.NewMetrics()
	eventService := event.NewService(eventRepo, profileService, matchingEngine, eventMetrics, logger)
	eventHandler := event.NewHandler(eventService)

	// 12. Initialize notifications and start the websocket hub
	notificationHub := notification.NewHub(logger)
	go notificationHub.Run()

	notificationRepo := notification.NewPostgresRepository(db)
	notificationService := notification.NewService(notificationRepo, profileService, notificationHub, logger)
	notificationHandler := notification.NewHandler(notificationService, profileService, notificationHub)

	// 13. Initialize personal dining
	diningRepo := dining.NewPostgresRepository(db)
	diningMetrics := dining.NewMetrics()
	diningService := dining.NewService(
		diningRepo,
		profileService,
		restaurantService,
		notificationService,
		redisClient,
		cfg,
		diningMetrics,
		logger,
	)
	diningHandler := dining.NewHandler(diningService)

	// Hourly sweep backs up the lazy expiry on reads
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	dining.NewScheduler(diningService, cfg.ExpirySweepEvery, logger).Start(sweepCtx)

	// 14. Initialize payments
	paystackClient := payment.NewPaystackClient(cfg.PaystackBaseURL, cfg.PaystackSecretKey, cfg.PaymentCallbackURL)
	paymentRepo := payment.NewPostgresRepository(db)
	paymentMetrics := payment.NewMetrics()
	paymentService := payment.NewService(paymentRepo, authService, paystackClient, paymentMetrics, logger)
	paymentHandler := payment.NewHandler(paymentService)

	// 15. Initialize KYC
	smileIDClient := kyc.NewSmileIDClient(cfg.SmileIDBaseURL, cfg.SmileIDPartnerID, cfg.SmileIDAuthToken)
	kycService := kyc.NewService(smileIDClient, authService, profileService, logger)
	kycHandler := kyc.NewHandler(kycService)

	// 16. Register routes
	router := mux.NewRouter()

	auth.RegisterRoutes(router, authHandler, authMiddleware)
	profile.RegisterRoutes(router, profileHandler, authMiddleware)
	restaurant.RegisterRoutes(router, restaurantHandler, authMiddleware)
	event.RegisterRoutes(router, eventHandler, authMiddleware)
	dining.RegisterRoutes(router, diningHandler, authMiddleware)
	notification.RegisterRoutes(router, notificationHandler, authMiddleware)
	payment.RegisterRoutes(router, paymentHandler, authMiddleware)
	kyc.RegisterRoutes(router, kycHandler, authMiddleware)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	// 17. Start the HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// 18. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	stopSweep()
	notificationHub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}

	logger.Info("server stopped")
}

// newLogger returns a colorized console logger in development and a JSON
// logger in production.
func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.Kitchen,
	}))
}

// runMigrations creates the schema if it does not exist yet
func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			profile_id BIGINT,
			is_verified BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_login_at TIMESTAMPTZ
		)`,

		`CREATE TABLE IF NOT EXISTS profiles (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id),
			full_name VARCHAR(255) NOT NULL,
			phone VARCHAR(50),
			date_of_birth DATE,
			bio TEXT,
			profession VARCHAR(255),
			industry VARCHAR(255),
			gender VARCHAR(20),
			interests TEXT[] NOT NULL DEFAULT '{}',
			goals TEXT[] NOT NULL DEFAULT '{}',
			profile_pictures TEXT[] NOT NULL DEFAULT '{}',
			address TEXT,
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			available_from TIMESTAMPTZ,
			available_to TIMESTAMPTZ,
			is_approved BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE(user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS restaurants (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			address TEXT NOT NULL,
			city VARCHAR(255),
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			cuisines TEXT[] NOT NULL DEFAULT '{}',
			pictures TEXT[] NOT NULL DEFAULT '{}',
			opening_hours JSONB,
			platform_discount DOUBLE PRECISION NOT NULL DEFAULT 10,
			commission_percent DOUBLE PRECISION NOT NULL DEFAULT 5,
			diner_discount DOUBLE PRECISION NOT NULL DEFAULT 5,
			average_rating DOUBLE PRECISION NOT NULL DEFAULT 0,
			review_count INTEGER NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS restaurant_reviews (
			id BIGSERIAL PRIMARY KEY,
			restaurant_id BIGINT NOT NULL REFERENCES restaurants(id),
			profile_id BIGINT NOT NULL REFERENCES profiles(id),
			rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
			comment TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS events (
			id BIGSERIAL PRIMARY KEY,
			host_id BIGINT NOT NULL REFERENCES profiles(id),
			restaurant_id BIGINT REFERENCES restaurants(id),
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			pictures TEXT[] NOT NULL DEFAULT '{}',
			start_date TIMESTAMPTZ NOT NULL,
			end_date TIMESTAMPTZ NOT NULL,
			capacity INTEGER NOT NULL,
			slots INTEGER NOT NULL,
			ticket_price DOUBLE PRECISION NOT NULL DEFAULT 0,
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			address TEXT,
			visibility VARCHAR(20) NOT NULL DEFAULT 'public',
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS event_participations (
			id BIGSERIAL PRIMARY KEY,
			event_id BIGINT NOT NULL REFERENCES events(id),
			profile_id BIGINT NOT NULL REFERENCES profiles(id),
			joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE(event_id, profile_id)
		)`,

		`CREATE TABLE IF NOT EXISTS event_reviews (
			id BIGSERIAL PRIMARY KEY,
			event_id BIGINT NOT NULL REFERENCES events(id),
			profile_id BIGINT NOT NULL REFERENCES profiles(id),
			rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
			comment TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE(event_id, profile_id)
		)`,

		`CREATE TABLE IF NOT EXISTS personal_dining (
			id BIGSERIAL PRIMARY KEY,
			host_id BIGINT NOT NULL REFERENCES profiles(id),
			guest_id BIGINT REFERENCES profiles(id),
			restaurant_id BIGINT NOT NULL REFERENCES restaurants(id),
			date DATE NOT NULL,
			time VARCHAR(5) NOT NULL,
			estimated_duration INTEGER NOT NULL,
			type VARCHAR(10) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			bill DOUBLE PRECISION,
			commission DOUBLE PRECISION,
			discount DOUBLE PRECISION,
			cancel_reason TEXT,
			cancelled_at TIMESTAMPTZ,
			expires_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS dining_join_requests (
			id BIGSERIAL PRIMARY KEY,
			dining_id BIGINT NOT NULL REFERENCES personal_dining(id),
			requester_id BIGINT NOT NULL REFERENCES profiles(id),
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// One live request per requester per table
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_dining_join_requests_pending
			ON dining_join_requests (dining_id, requester_id)
			WHERE status = 'pending'`,

		`CREATE TABLE IF NOT EXISTS dining_reviews (
			id BIGSERIAL PRIMARY KEY,
			dining_id BIGINT NOT NULL REFERENCES personal_dining(id),
			profile_id BIGINT NOT NULL REFERENCES profiles(id),
			rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
			comment TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE(dining_id, profile_id)
		)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id BIGSERIAL PRIMARY KEY,
			profile_id BIGINT NOT NULL REFERENCES profiles(id),
			kind VARCHAR(50) NOT NULL,
			payload JSONB,
			read_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS payments (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id),
			email VARCHAR(255) NOT NULL,
			amount BIGINT NOT NULL,
			reference VARCHAR(100) UNIQUE NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_personal_dining_map
			ON personal_dining (type, status, date) WHERE guest_id IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_events_status_start ON events (status, start_date)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_profile ON notifications (profile_id, created_at DESC)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
