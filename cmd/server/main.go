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

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"github.com/AnshRaj112/shipments-backend/internal/carriers"
	"github.com/AnshRaj112/shipments-backend/internal/config"
	"github.com/AnshRaj112/shipments-backend/internal/database"
	"github.com/AnshRaj112/shipments-backend/internal/handlers"
	"github.com/AnshRaj112/shipments-backend/internal/middleware"
	"github.com/AnshRaj112/shipments-backend/internal/routes"
	"github.com/AnshRaj112/shipments-backend/internal/services"
	"github.com/AnshRaj112/shipments-backend/pkg/utils"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	// Carrier secrets are sealed at rest only when a key is configured
	box, err := utils.NewSecretBox(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("ENCRYPTION_KEY is invalid: %v", err)
	}
	if box == nil {
		log.Println("⚠️  WARNING: ENCRYPTION_KEY not set. Carrier client secrets will be stored in plaintext.")
		log.Println("   To generate a key, run: openssl rand -base64 32")
	} else {
		log.Println("✅ Encryption key configured")
	}
	if cfg.IsProduction() && cfg.JWTSecret == "your-secret-key-change-in-production" {
		log.Fatal("JWT_SECRET must be set in production")
	}

	ctx := context.Background()

	log.Printf("Connecting to database...")
	db, err := database.Connect(ctx, cfg.DatabaseURL, cfg.Debug)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := database.InitTables(ctx, db); err != nil {
		log.Fatal("Failed to create tables:", err)
	}
	log.Println("✅ Database tables ensured")

	log.Printf("Connecting to Redis...")
	rdb, err := database.ConnectRedis(ctx, cfg.RedisURI)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	svc := buildServices(cfg, db, rdb, box)
	api := handlers.New(svc)

	// Setup router
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Production: SecurityHeaders → HostCheck → GlobalRateLimit → LoginRateLimit
	// Non-production: Redis-based rate limit only
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(cfg.AllowedHost) {
			r.Use(mw)
		}
		log.Println("✅ Production security enabled (security headers, host check, per-IP + login rate limiting)")
	} else {
		r.Use(middleware.NewRateLimiter(rdb, cfg.RateLimitPerMin, "/health").Handler)
	}

	routes.SetupRoutes(r, api, middleware.RequireAuth(svc.Auth))

	log.Println("📋 Registered routes:")
	chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		log.Printf("  %-6s %s", method, route)
		return nil
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		// Batch token tests may wait on three carrier calls.
		WriteTimeout: cfg.CarrierTimeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("🚀 Shipments backend running on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️  WARNING: graceful shutdown failed: %v", err)
	}
}

func buildServices(cfg *config.Config, db *bun.DB, rdb *redis.Client, box *utils.SecretBox) handlers.Services {
	users := services.NewUserService(db)
	sessions := services.NewSessionStore(rdb, cfg.AccessTokenTTL)
	locations := services.NewLocationManager(db)
	credentials := services.NewCredentialStore(db, box).WithCache(services.NewCache(rdb, services.DefaultCacheTTL))
	gateway := carriers.NewGateway(cfg.CarrierEndpoints, cfg.CarrierTimeout)

	return handlers.Services{
		Users:       users,
		Auth:        services.NewAuthService(users, sessions, cfg.JWTSecret),
		Credentials: credentials,
		Locations:   locations,
		Shipments:   services.NewShipmentService(db, locations, credentials),
		Gateway:     gateway,
		Tokens:      carriers.NewOrchestrator(gateway),
		Checks: map[string]func(context.Context) error{
			"database": func(ctx context.Context) error { return database.Ping(ctx, db) },
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
	}
}
