package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Token        TokenConfig
	RemoteConfig RemoteConfigConfig
	Cleanup      CleanupConfig
	Protocol     ProtocolConfig
	Link         LinkConfig
	CORS         CORSConfig
	Logging      LoggingConfig
}

type ServerConfig struct {
	Port string
	Host string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// TokenConfig drives the token codec. An empty Secret is not fatal at load
// time; issuance and confirmation fail with a configuration error instead,
// so the status endpoint keeps working during a secret rotation.
type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

type RemoteConfigConfig struct {
	URL      string
	CacheTTL time.Duration
}

// CleanupConfig controls the expired-record sweep. AdminKeyHash is a bcrypt
// hash of the key required by the HTTP trigger; when empty the trigger is
// disabled and only the interval ticker runs.
type CleanupConfig struct {
	Interval     time.Duration
	AdminKeyHash string
}

// ProtocolConfig selects between the observed protocol variants. The variants
// are incompatible, so they are explicit flags rather than merged semantics.
type ProtocolConfig struct {
	RequireNonce    bool
	SingleUseTokens bool
	ExpiredNotice   bool
}

type LinkConfig struct {
	PublicBaseURL string
	VerifyPageURL string
}

type CORSConfig struct {
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	godotenv.Load()

	tokenTTL, err := time.ParseDuration(getEnv("TOKEN_TTL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}

	configTTL, err := time.ParseDuration(getEnv("REMOTE_CONFIG_CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid REMOTE_CONFIG_CACHE_TTL: %w", err)
	}

	cleanupInterval, err := time.ParseDuration(getEnv("CLEANUP_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLEANUP_INTERVAL: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "0.0.0.0"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5984"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "password"),
			Name:     getEnv("DB_NAME", "adgate"),
		},
		Token: TokenConfig{
			Secret: getEnv("TOKEN_SECRET", ""),
			TTL:    tokenTTL,
		},
		RemoteConfig: RemoteConfigConfig{
			URL:      getEnv("REMOTE_CONFIG_URL", ""),
			CacheTTL: configTTL,
		},
		Cleanup: CleanupConfig{
			Interval:     cleanupInterval,
			AdminKeyHash: getEnv("CLEANUP_ADMIN_KEY_HASH", ""),
		},
		Protocol: ProtocolConfig{
			RequireNonce:    getEnvAsBool("PROTOCOL_REQUIRE_NONCE", true),
			SingleUseTokens: getEnvAsBool("PROTOCOL_SINGLE_USE_TOKENS", false),
			ExpiredNotice:   getEnvAsBool("PROTOCOL_EXPIRED_NOTICE", false),
		},
		Link: LinkConfig{
			PublicBaseURL: getEnv("LINK_PUBLIC_BASE_URL", "http://localhost:8080"),
			VerifyPageURL: getEnv("LINK_VERIFY_PAGE_URL", "http://localhost:8080/verify"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "POST,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type,X-Admin-Key"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
