package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/AnshRaj112/shipments-backend/internal/carriers"
)

// Version is reported by the health endpoint.
const Version = "2.0.0"

type Config struct {
	DatabaseURL      string
	RedisURI         string
	JWTSecret        string
	AccessTokenTTL   time.Duration // ACCESS_TOKEN_EXPIRE_MINUTES
	EncryptionKey    string
	Port             string
	FrontendURL      string
	AllowedOrigins   []string // CORS: from ALLOWED_ORIGINS, CORS_ORIGINS or FRONTEND_URL(s); "*" allows any origin
	Host             string   // Raw HOST env (e.g. https://api.example.com)
	AllowedHost      string   // Hostname only for strict host check (production only)
	Environment      string   // ENV: production, development, etc.
	Debug            bool
	RateLimitPerMin  int
	CarrierEndpoints carriers.Endpoints
	CarrierTimeout   time.Duration
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))
	host := getEnv("HOST", "http://localhost:8080")

	// AllowedHost is only set in production; host check is skipped in development
	var allowedHost string
	if env == "production" {
		allowedHost = bareHost(host)
	}

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", getEnv("CORS_ORIGINS", "")))
	if len(allowedOrigins) == 0 {
		for _, u := range []string{getEnv("FRONTEND_URL", "http://localhost:3000"), getEnv("FRONTEND_URL_2", "")} {
			u = strings.TrimSpace(u)
			if u != "" && !containsOrigin(allowedOrigins, u) {
				allowedOrigins = append(allowedOrigins, u)
			}
		}
	}

	defaults := carriers.DefaultEndpoints()
	return &Config{
		DatabaseURL:     getEnv("DATABASE_URL", "sqlite:///./shipments.db"),
		RedisURI:        getEnv("REDIS_URI", getEnv("REDIS_URL", "redis://localhost:6379/0")),
		JWTSecret:       getEnv("JWT_SECRET", getEnv("SECRET_KEY", "your-secret-key-change-in-production")),
		AccessTokenTTL:  time.Duration(getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
		EncryptionKey:   getEnv("ENCRYPTION_KEY", ""),
		Host:            host,
		AllowedHost:     allowedHost,
		Environment:     env,
		Port:            getEnv("PORT", "8080"),
		FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:3000"),
		AllowedOrigins:  allowedOrigins,
		Debug:           getEnvBool("DEBUG", false),
		RateLimitPerMin: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		CarrierEndpoints: carriers.Endpoints{
			FedEx: getEnv("FEDEX_TOKEN_URL", defaults.FedEx),
			UPS:   getEnv("UPS_TOKEN_URL", defaults.UPS),
			USPS:  getEnv("USPS_TOKEN_URL", defaults.USPS),
		},
		CarrierTimeout: time.Duration(getEnvInt("CARRIER_TIMEOUT_SECONDS", 30)) * time.Second,
	}
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

// bareHost strips scheme, path and port from a URL-ish host value.
func bareHost(host string) string {
	for _, prefix := range []string{"https://", "http://"} {
		host = strings.TrimPrefix(host, prefix)
	}
	if idx := strings.Index(host, "/"); idx != -1 {
		host = host[:idx]
	}
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return strings.TrimSpace(host)
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.TrimSpace(strings.ToLower(o))
	for _, v := range list {
		if strings.TrimSpace(strings.ToLower(v)) == o {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		log.Printf("⚠️  WARNING: %s=%q is not a positive integer, using %d", key, raw, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return defaultValue
	}
	return b
}
