package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/kmi/internal/errors"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name:    "load default configuration",
			envVars: map[string]string{},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "0.0.0.0", cfg.ServerHost)
				assert.Equal(t, 8080, cfg.ServerPort)
				assert.Equal(t, 10*time.Second, cfg.ServerShutdownTimeout)
				assert.Equal(t, FacilityModeMaster, cfg.FacilityMode)
				assert.Equal(t, StoreDriverFileSystem, cfg.StoreDriver)
				assert.Equal(t, "./data/keys", cfg.StorePath)
				assert.Equal(t, 2048, cfg.RSAKeySize)
				assert.Equal(t, 65537, cfg.RSAPublicExponent)
				assert.Equal(t, "key management facility", cfg.KEKPassphrase)
				assert.Equal(t, "random-iv", cfg.CipherMode)
				assert.Equal(t, "aes-gcm", cfg.KEKSealingAlgorithm)
				assert.Equal(t, time.Hour, cfg.CacheTTL)
				assert.Equal(t, 10000, cfg.CacheSize)
				assert.Equal(t, 30*time.Second, cfg.MasterTimeout)
				assert.Equal(t, "info", cfg.LogLevel)
				assert.False(t, cfg.AdminAPIEnabled)
				assert.Equal(t, 1, cfg.DBPingAttempts)
				assert.NoError(t, cfg.Validate())
			},
		},
		{
			name: "load custom server configuration",
			envVars: map[string]string{
				"SERVER_HOST": "localhost",
				"SERVER_PORT": "9090",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "localhost", cfg.ServerHost)
				assert.Equal(t, 9090, cfg.ServerPort)
			},
		},
		{
			name: "load custom database configuration",
			envVars: map[string]string{
				"STORE_DRIVER":            "mysql",
				"DB_CONNECTION_STRING":    "user:password@tcp(localhost:3306)/testdb",
				"DB_MAX_OPEN_CONNECTIONS": "50",
				"DB_MAX_IDLE_CONNECTIONS": "10",
				"DB_CONN_MAX_LIFETIME":    "10",
				"DB_PING_ATTEMPTS":        "5",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "mysql", cfg.DBDriver())
				assert.Equal(t, "user:password@tcp(localhost:3306)/testdb", cfg.DBConnectionString)
				assert.Equal(t, 50, cfg.DBMaxOpenConnections)
				assert.Equal(t, 10, cfg.DBMaxIdleConnections)
				assert.Equal(t, 10*time.Minute, cfg.DBConnMaxLifetime)
				assert.Equal(t, 5, cfg.DBPingAttempts)
				assert.NoError(t, cfg.Validate())
			},
		},
		{
			name: "load relay configuration",
			envVars: map[string]string{
				"FACILITY_MODE":  "relay",
				"MASTER_URL":     "http://master:8080",
				"MASTER_TIMEOUT": "5",
				"CACHE_TTL":      "60",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, FacilityModeRelay, cfg.FacilityMode)
				assert.Equal(t, "http://master:8080", cfg.MasterURL)
				assert.Equal(t, 5*time.Second, cfg.MasterTimeout)
				assert.Equal(t, time.Minute, cfg.CacheTTL)
				assert.NoError(t, cfg.Validate())
			},
		},
		{
			name: "load custom log level",
			envVars: map[string]string{
				"LOG_LEVEL": "debug",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.LogLevel)
				assert.Equal(t, "debug", cfg.GetGinMode())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()

			for key, value := range tt.envVars {
				err := os.Setenv(key, value)
				require.NoError(t, err)
			}

			cfg := Load()

			tt.validate(t, cfg)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		os.Clearenv()
		return Load()
	}

	tests := []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{name: "unknown mode", mutate: func(cfg *Config) { cfg.FacilityMode = "replica" }},
		{name: "unknown store driver", mutate: func(cfg *Config) { cfg.StoreDriver = "s3" }},
		{name: "blank store path", mutate: func(cfg *Config) { cfg.StorePath = "  " }},
		{name: "postgres without dsn", mutate: func(cfg *Config) { cfg.StoreDriver = StoreDriverPostgres }},
		{name: "redis without url", mutate: func(cfg *Config) { cfg.StoreDriver = StoreDriverRedis }},
		{name: "small rsa key", mutate: func(cfg *Config) { cfg.RSAKeySize = 512 }},
		{name: "unsupported exponent", mutate: func(cfg *Config) { cfg.RSAPublicExponent = 161 }},
		{name: "unknown cipher mode", mutate: func(cfg *Config) { cfg.CipherMode = "ecb" }},
		{name: "unknown sealing algorithm", mutate: func(cfg *Config) { cfg.KEKSealingAlgorithm = "des" }},
		{name: "zero cache ttl", mutate: func(cfg *Config) { cfg.CacheTTL = 0 }},
		{name: "zero cache size", mutate: func(cfg *Config) { cfg.CacheSize = 0 }},
		{name: "relay without master url", mutate: func(cfg *Config) { cfg.FacilityMode = FacilityModeRelay }},
		{
			name: "relay with relative master url",
			mutate: func(cfg *Config) {
				cfg.FacilityMode = FacilityModeRelay
				cfg.MasterURL = "master:8080"
			},
		},
		{
			name:   "encrypted passphrase without kms uri",
			mutate: func(cfg *Config) { cfg.KEKPassphraseEncrypted = "c2VjcmV0" },
		},
		{name: "zero burst", mutate: func(cfg *Config) { cfg.RateLimitBurst = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			assert.ErrorIs(t, err, apperrors.ErrInvalidConfiguration)
		})
	}

	t.Run("relay ignores store settings", func(t *testing.T) {
		cfg := valid()
		cfg.FacilityMode = FacilityModeRelay
		cfg.MasterURL = "https://master.internal"
		cfg.StoreDriver = "unused"
		cfg.RSAKeySize = 0

		assert.NoError(t, cfg.Validate())
	})
}
