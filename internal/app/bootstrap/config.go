// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/dalemusser/pulsehub/internal/app/system/auth"
)

// devTokenSecret signs tokens when JWT_SECRET is not set. Anyone can
// forge tokens against it, so ValidateConfig warns loudly when it is
// in use.
const devTokenSecret = "dev-only-change-me-please-0123456789ABCDEF"

// defaultAllowedOrigins is the browser origin allow-list served when
// CORS_ALLOWED_ORIGINS is not set: the usual local frontend dev hosts.
var defaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://localhost:8080",
}

// configKey describes one environment-driven setting.
type configKey struct {
	Name    string
	Default string
	Desc    string
}

// configKeys defines the configuration surface for PulseHub.
// Values come from the process environment; a .env file in the working
// directory fills in anything the environment leaves unset.
var configKeys = []configKey{
	{Name: "MONGODB_URI", Default: "", Desc: "MongoDB connection URI (required)"},
	{Name: "MONGODB_DATABASE", Default: "pulsehub", Desc: "MongoDB database name"},
	{Name: "PORT", Default: "4000", Desc: "HTTP listen port"},
	{Name: "JWT_SECRET", Default: devTokenSecret, Desc: "HMAC-SHA256 signing secret for bearer tokens"},
	{Name: "TOKEN_TTL", Default: "168h", Desc: "Bearer token lifetime (e.g. 24h, 168h)"},
	{Name: "CORS_ALLOWED_ORIGINS", Default: strings.Join(defaultAllowedOrigins, ","), Desc: "Comma-separated browser origin allow-list"},
	{Name: "STRICT_STARTUP", Default: "false", Desc: "Exit on post-database startup errors instead of serving degraded"},
	{Name: "LOG_LEVEL", Default: "info", Desc: "Log level: debug, info, warn, or error"},
}

// Config holds the resolved application configuration.
type Config struct {
	MongoURI       string
	MongoDatabase  string
	Port           int
	TokenSecret    string
	TokenTTL       time.Duration
	AllowedOrigins []string
	StrictStartup  bool
	LogLevel       string
}

// envValue returns the environment value for a declared key, falling
// back to the key's default.
func envValue(name string) string {
	for _, k := range configKeys {
		if k.Name != name {
			continue
		}
		if v := os.Getenv(name); v != "" {
			return v
		}
		return k.Default
	}
	return os.Getenv(name)
}

// LoadConfig resolves the configuration from the environment. A .env
// file in the working directory is loaded first; real environment
// variables always win over file entries.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		MongoURI:      envValue("MONGODB_URI"),
		MongoDatabase: envValue("MONGODB_DATABASE"),
		TokenSecret:   envValue("JWT_SECRET"),
		LogLevel:      envValue("LOG_LEVEL"),
	}

	if cfg.MongoURI == "" {
		return Config{}, errors.New("MONGODB_URI is not set")
	}

	port, err := strconv.Atoi(envValue("PORT"))
	if err != nil {
		return Config{}, fmt.Errorf("PORT must be a number: %w", err)
	}
	cfg.Port = port

	ttl, err := time.ParseDuration(envValue("TOKEN_TTL"))
	if err != nil {
		return Config{}, fmt.Errorf("TOKEN_TTL is not a valid duration: %w", err)
	}
	if ttl <= 0 {
		ttl = auth.DefaultTokenTTL
	}
	cfg.TokenTTL = ttl

	for _, origin := range strings.Split(envValue("CORS_ALLOWED_ORIGINS"), ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	strict, err := strconv.ParseBool(envValue("STRICT_STARTUP"))
	if err != nil {
		return Config{}, fmt.Errorf("STRICT_STARTUP must be a boolean: %w", err)
	}
	cfg.StrictStartup = strict

	return cfg, nil
}

// ValidateConfig enforces invariants that involve more than one field
// or that deserve a log line, before any connection is attempted.
func ValidateConfig(cfg Config, logger *zap.Logger) error {
	if !strings.HasPrefix(cfg.MongoURI, "mongodb://") && !strings.HasPrefix(cfg.MongoURI, "mongodb+srv://") {
		return fmt.Errorf("MONGODB_URI must start with mongodb:// or mongodb+srv://, got %q", cfg.MongoURI)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", cfg.Port)
	}
	if len(cfg.AllowedOrigins) == 0 {
		return errors.New("CORS_ALLOWED_ORIGINS resolved to an empty list")
	}
	if cfg.TokenSecret == devTokenSecret {
		logger.Warn("JWT_SECRET is not set; tokens are signed with the development fallback secret")
	}
	return nil
}
