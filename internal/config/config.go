// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/allisson/go-env"
	validation "github.com/jellydator/validation"
	"github.com/joho/godotenv"

	cryptoDomain "github.com/allisson/kmi/internal/crypto/domain"
	customValidation "github.com/allisson/kmi/internal/validation"
)

// Facility modes.
const (
	// FacilityModeMaster owns the wrapped key store.
	FacilityModeMaster = "master"
	// FacilityModeRelay serves the protocol by asking a master.
	FacilityModeRelay = "relay"
)

// Store drivers.
const (
	StoreDriverFileSystem = "filesystem"
	StoreDriverLevelDB    = "leveldb"
	StoreDriverRedis      = "redis"
	StoreDriverPostgres   = "postgres"
	StoreDriverMySQL      = "mysql"
	StoreDriverSQLite     = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	// ServerHost is the host address the server will bind to.
	ServerHost string
	// ServerPort is the port number the server will listen on.
	ServerPort int
	// ServerShutdownTimeout bounds graceful shutdown.
	ServerShutdownTimeout time.Duration

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// FacilityMode is "master" or "relay".
	FacilityMode string

	// StoreDriver selects the wrapped key backend.
	StoreDriver string
	// StorePath is the directory (filesystem, leveldb) or database file (sqlite).
	StorePath string
	// StoreCacheSize is the entry count of the read-through store cache. Zero disables it.
	StoreCacheSize int

	// DBConnectionString is the connection string for postgres or mysql.
	DBConnectionString string
	// DBMaxOpenConnections is the maximum number of open connections to the database.
	DBMaxOpenConnections int
	// DBMaxIdleConnections is the maximum number of idle connections in the database pool.
	DBMaxIdleConnections int
	// DBConnMaxLifetime is the maximum amount of time a connection may be reused.
	DBConnMaxLifetime time.Duration
	// DBPingAttempts is how many times startup pings the database before giving up.
	DBPingAttempts int

	// RedisURL is the redis:// URL of the Redis store.
	RedisURL string
	// RedisKeyPrefix namespaces wrapped keys inside Redis.
	RedisKeyPrefix string

	// RSAKeySize is the modulus length of generated KEKs.
	RSAKeySize int
	// RSAPublicExponent is the public exponent of generated KEKs.
	RSAPublicExponent int

	// KEKPassphrase seals serialized KEKs.
	KEKPassphrase string
	// KEKPassphraseEncrypted is a base64 KMS ciphertext of the passphrase. It wins over KEKPassphrase.
	KEKPassphraseEncrypted string
	// KMSKeyURI opens the keeper that decrypts KEKPassphraseEncrypted.
	KMSKeyURI string
	// KEKSealingAlgorithm is the AEAD that seals new KEKs. Existing KEKs name their own.
	KEKSealingAlgorithm string

	// CipherMode is "random-iv" or "legacy".
	CipherMode string

	// CacheTTL bounds how long a DEK is served from memory.
	CacheTTL time.Duration
	// CacheSize caps the number of cached DEKs.
	CacheSize int

	// MasterURL is the base URL of the master facility (relay mode and CLI client).
	MasterURL string
	// MasterTimeout bounds each request to the master.
	MasterTimeout time.Duration

	// RateLimitEnabled indicates whether per-IP rate limiting of the protocol routes is enabled.
	RateLimitEnabled bool
	// RateLimitRequestsPerSec is the number of requests allowed per second per IP.
	RateLimitRequestsPerSec float64
	// RateLimitBurst is the burst size per IP.
	RateLimitBurst int

	// CORSEnabled indicates whether CORS is enabled.
	CORSEnabled bool
	// CORSAllowOrigins is a comma-separated list of allowed origins for CORS.
	CORSAllowOrigins string

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the application metrics.
	MetricsNamespace string
	// MetricsPort is the port number for the metrics server.
	MetricsPort int

	// AdminAPIEnabled registers the /v1/keys routes on a master.
	AdminAPIEnabled bool
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	loadDotEnv()

	return &Config{
		// Server configuration
		ServerHost:            env.GetString("SERVER_HOST", "0.0.0.0"),
		ServerPort:            env.GetInt("SERVER_PORT", 8080),
		ServerShutdownTimeout: env.GetDuration("SERVER_SHUTDOWN_TIMEOUT", 10, time.Second),

		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Facility
		FacilityMode: env.GetString("FACILITY_MODE", FacilityModeMaster),

		// Wrapped key store
		StoreDriver:    env.GetString("STORE_DRIVER", StoreDriverFileSystem),
		StorePath:      env.GetString("STORE_PATH", "./data/keys"),
		StoreCacheSize: env.GetInt("STORE_CACHE_SIZE", 0),

		// Database configuration
		DBConnectionString:   env.GetString("DB_CONNECTION_STRING", ""),
		DBMaxOpenConnections: env.GetInt("DB_MAX_OPEN_CONNECTIONS", 25),
		DBMaxIdleConnections: env.GetInt("DB_MAX_IDLE_CONNECTIONS", 5),
		DBConnMaxLifetime:    env.GetDuration("DB_CONN_MAX_LIFETIME", 5, time.Minute),
		DBPingAttempts:       env.GetInt("DB_PING_ATTEMPTS", 1),

		// Redis
		RedisURL:       env.GetString("REDIS_URL", ""),
		RedisKeyPrefix: env.GetString("REDIS_KEY_PREFIX", "kmi:wk:"),

		// Key generation
		RSAKeySize:        env.GetInt("RSA_KEY_SIZE", cryptoDomain.DefaultRSAKeySize),
		RSAPublicExponent: env.GetInt("RSA_PUBLIC_EXPONENT", cryptoDomain.RSAPublicExponent),

		// Passphrase
		KEKPassphrase:          env.GetString("KEK_PASSPHRASE", "key management facility"),
		KEKPassphraseEncrypted: env.GetString("KEK_PASSPHRASE_ENCRYPTED", ""),
		KMSKeyURI:              env.GetString("KMS_KEY_URI", ""),
		KEKSealingAlgorithm:    env.GetString("KEK_SEALING_ALGORITHM", string(cryptoDomain.AESGCM)),

		// Cipher
		CipherMode: env.GetString("CIPHER_MODE", string(cryptoDomain.CipherModeRandomIV)),

		// DEK cache
		CacheTTL:  env.GetDuration("CACHE_TTL", 3600, time.Second),
		CacheSize: env.GetInt("CACHE_SIZE", 10000),

		// Master
		MasterURL:     env.GetString("MASTER_URL", ""),
		MasterTimeout: env.GetDuration("MASTER_TIMEOUT", 30, time.Second),

		// Rate Limiting (protocol routes, per IP)
		RateLimitEnabled:        env.GetBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequestsPerSec: env.GetFloat64("RATE_LIMIT_REQUESTS_PER_SEC", 50.0),
		RateLimitBurst:          env.GetInt("RATE_LIMIT_BURST", 100),

		// CORS
		CORSEnabled:      env.GetBool("CORS_ENABLED", false),
		CORSAllowOrigins: env.GetString("CORS_ALLOW_ORIGINS", ""),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "kmi"),
		MetricsPort:      env.GetInt("METRICS_PORT", 8081),

		// Admin
		AdminAPIEnabled: env.GetBool("ADMIN_API_ENABLED", false),
	}
}

// Validate checks the configuration is usable for the selected mode and store.
// Failures wrap ErrInvalidConfiguration.
func (c *Config) Validate() error {
	isMaster := c.FacilityMode == FacilityModeMaster
	isRelay := c.FacilityMode == FacilityModeRelay
	needsPath := isMaster && (c.StoreDriver == StoreDriverFileSystem ||
		c.StoreDriver == StoreDriverLevelDB ||
		c.StoreDriver == StoreDriverSQLite)
	needsDSN := isMaster && (c.StoreDriver == StoreDriverPostgres || c.StoreDriver == StoreDriverMySQL)

	err := validation.ValidateStruct(c,
		validation.Field(&c.ServerPort, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.ServerShutdownTimeout, customValidation.PositiveDuration),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.FacilityMode,
			validation.Required,
			validation.In(FacilityModeMaster, FacilityModeRelay),
		),
		validation.Field(&c.StoreDriver, validation.When(isMaster,
			validation.Required,
			validation.In(
				StoreDriverFileSystem,
				StoreDriverLevelDB,
				StoreDriverRedis,
				StoreDriverPostgres,
				StoreDriverMySQL,
				StoreDriverSQLite,
			),
		)),
		validation.Field(&c.StorePath, validation.When(needsPath, validation.Required, customValidation.NotBlank)),
		validation.Field(&c.StoreCacheSize, validation.Min(0)),
		validation.Field(&c.DBConnectionString, validation.When(needsDSN, validation.Required)),
		validation.Field(&c.DBPingAttempts, validation.Min(0)),
		validation.Field(&c.RedisURL,
			validation.When(isMaster && c.StoreDriver == StoreDriverRedis, validation.Required),
		),
		validation.Field(&c.RSAKeySize,
			validation.When(isMaster, validation.Required, validation.Min(cryptoDomain.MinRSAKeySize)),
		),
		validation.Field(&c.RSAPublicExponent,
			validation.When(isMaster, validation.Required, validation.In(cryptoDomain.RSAPublicExponent)),
		),
		validation.Field(&c.KMSKeyURI, validation.When(c.KEKPassphraseEncrypted != "", validation.Required)),
		validation.Field(&c.KEKSealingAlgorithm,
			validation.When(isMaster,
				validation.Required,
				validation.In(string(cryptoDomain.AESGCM), string(cryptoDomain.ChaCha20)),
			),
		),
		validation.Field(&c.CipherMode,
			validation.Required,
			validation.In(string(cryptoDomain.CipherModeRandomIV), string(cryptoDomain.CipherModeLegacy)),
		),
		validation.Field(&c.CacheTTL, customValidation.PositiveDuration),
		validation.Field(&c.CacheSize, validation.Required, validation.Min(1)),
		validation.Field(&c.MasterURL, validation.When(isRelay, validation.Required, customValidation.HTTPURL)),
		validation.Field(&c.MasterTimeout, customValidation.PositiveDuration),
		validation.Field(&c.RateLimitRequestsPerSec,
			validation.When(c.RateLimitEnabled, validation.Required, validation.Min(0.0)),
		),
		validation.Field(&c.RateLimitBurst, validation.When(c.RateLimitEnabled, validation.Required, validation.Min(1))),
		validation.Field(&c.MetricsPort,
			validation.When(c.MetricsEnabled, validation.Required, validation.Min(1), validation.Max(65535)),
		),
	)
	return customValidation.WrapConfigurationError(err)
}

// DBDriver returns the database/sql driver name for SQL-backed stores, or "" otherwise.
func (c *Config) DBDriver() string {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		return "postgres"
	case StoreDriverMySQL:
		return "mysql"
	case StoreDriverSQLite:
		return "sqlite3"
	default:
		return ""
	}
}

// GetGinMode returns the appropriate Gin mode based on log level.
func (c *Config) GetGinMode() string {
	if c.LogLevel == "debug" {
		return "debug"
	}
	return "release"
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
}
