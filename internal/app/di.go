// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"

	"github.com/allisson/kmi/internal/config"
	cryptoService "github.com/allisson/kmi/internal/crypto/service"
	"github.com/allisson/kmi/internal/database"
	"github.com/allisson/kmi/internal/facility/client"
	"github.com/allisson/kmi/internal/facility/repository"
	facilityUseCase "github.com/allisson/kmi/internal/facility/usecase"
	"github.com/allisson/kmi/internal/http"
	"github.com/allisson/kmi/internal/metrics"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	redisClient     *redis.Client
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics
	cacheGauge      metric.Registration

	// Crypto
	aeadManager    cryptoService.AEADManager
	kmsService     cryptoService.KMSService
	cipher         cryptoService.Cipher
	keyPairService cryptoService.KeyPairService
	passphrase     []byte

	// Facility
	store          facilityUseCase.WrappedKeyStore
	levelDBStore   *repository.LevelDBStore
	cachedStore    *repository.CachedStore
	protocolClient *client.HTTPClient
	facility       facilityUseCase.Facility
	masterFacility facilityUseCase.MasterFacility
	cacheSizer     facilityUseCase.CacheSizer

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	redisClientInit     sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	aeadManagerInit     sync.Once
	kmsServiceInit      sync.Once
	cipherInit          sync.Once
	keyPairServiceInit  sync.Once
	passphraseInit      sync.Once
	storeInit           sync.Once
	protocolClientInit  sync.Once
	facilityInit        sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection used by the SQL-backed stores.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// RedisClient returns the client used by the redis store.
func (c *Container) RedisClient() (*redis.Client, error) {
	var err error
	c.redisClientInit.Do(func() {
		c.redisClient, err = c.initRedisClient()
		if err != nil {
			c.initErrors["redisClient"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["redisClient"]; exists {
		return nil, storedErr
	}
	return c.redisClient, nil
}

// MetricsProvider returns the Prometheus-backed meter provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		c.metricsProvider, err = c.initMetricsProvider()
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// HTTPServer returns the HTTP server instance.
func (c *Container) HTTPServer(ctx context.Context) (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer(ctx)
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.cacheGauge != nil {
		if err := c.cacheGauge.Unregister(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("cache gauge unregister: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.protocolClient != nil {
		c.protocolClient.Close()
	}

	if c.levelDBStore != nil {
		if err := c.levelDBStore.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("leveldb close: %w", err))
		}
	}

	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("redis close: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	return errors.Join(shutdownErrors...)
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB connects to the database selected by the store driver.
// The sqlite store keeps its database file at StorePath.
func (c *Container) initDB() (*sql.DB, error) {
	driver := c.config.DBDriver()
	if driver == "" {
		return nil, fmt.Errorf("store driver %q is not backed by a database", c.config.StoreDriver)
	}

	dsn := c.config.DBConnectionString
	if driver == database.SQLiteDriver {
		if err := ensureParentDir(c.config.StorePath); err != nil {
			return nil, err
		}
		dsn = c.config.StorePath
	}

	db, err := database.Connect(database.Config{
		Driver:             driver,
		ConnectionString:   dsn,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
		PingAttempts:       c.config.DBPingAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initRedisClient parses RedisURL and creates the client. No connection is made until first use.
func (c *Container) initRedisClient() (*redis.Client, error) {
	opts, err := redis.ParseURL(c.config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// initMetricsProvider creates the metrics provider when metrics are enabled.
func (c *Container) initMetricsProvider() (*metrics.Provider, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}

	provider, err := metrics.NewProvider(c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics provider: %w", err)
	}
	return provider, nil
}

// initBusinessMetrics creates the business metrics recorder, a no-op when metrics are disabled.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}
	if provider == nil {
		return metrics.NewNoOpBusinessMetrics(), nil
	}

	businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	return businessMetrics, nil
}

// initHTTPServer creates the HTTP server and registers its routes.
func (c *Container) initHTTPServer(ctx context.Context) (*http.Server, error) {
	logger := c.Logger()

	facility, err := c.Facility(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get facility for http server: %w", err)
	}

	protocolHandler, err := c.ProtocolHandler(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get protocol handler for http server: %w", err)
	}

	adminHandler, err := c.AdminHandler(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get admin handler for http server: %w", err)
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	var meterProvider metric.MeterProvider
	if provider != nil {
		meterProvider = provider.MeterProvider()
		if err := c.registerCacheGauge(meterProvider); err != nil {
			return nil, err
		}
	}

	server := http.NewServer(facility, c.config.ServerHost, c.config.ServerPort, logger)
	server.SetupRouter(ctx, http.RouterConfig{
		CORSEnabled:             c.config.CORSEnabled,
		CORSAllowOrigins:        c.config.CORSAllowOrigins,
		RateLimitEnabled:        c.config.RateLimitEnabled,
		RateLimitRequestsPerSec: c.config.RateLimitRequestsPerSec,
		RateLimitBurst:          c.config.RateLimitBurst,
		MetricsEnabled:          c.config.MetricsEnabled,
		MetricsNamespace:        c.config.MetricsNamespace,
	}, protocolHandler, adminHandler, meterProvider)

	return server, nil
}

// initMetricsServer creates the metrics server when metrics are enabled.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}
	if provider == nil {
		return nil, nil
	}

	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
}

// registerCacheGauge publishes the sizes of the in-memory key caches.
func (c *Container) registerCacheGauge(meterProvider metric.MeterProvider) error {
	sizes := map[string]metrics.SizeFunc{}
	if c.cacheSizer != nil {
		sizes["dek"] = c.cacheSizer.CacheLen
	}
	if c.cachedStore != nil {
		sizes["wrapped_key"] = c.cachedStore.Len
	}
	if len(sizes) == 0 {
		return nil
	}

	registration, err := metrics.RegisterCacheSize(meterProvider, c.config.MetricsNamespace, sizes)
	if err != nil {
		return fmt.Errorf("failed to register cache gauge: %w", err)
	}
	c.cacheGauge = registration
	return nil
}
