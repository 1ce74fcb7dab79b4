package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/allisson/kmi/internal/config"
	cryptoService "github.com/allisson/kmi/internal/crypto/service"
	apperrors "github.com/allisson/kmi/internal/errors"
	"github.com/allisson/kmi/internal/facility/client"
	facilityHTTP "github.com/allisson/kmi/internal/facility/http"
	"github.com/allisson/kmi/internal/facility/repository"
	facilityUseCase "github.com/allisson/kmi/internal/facility/usecase"
)

// Store returns the wrapped key store selected by StoreDriver.
func (c *Container) Store(ctx context.Context) (facilityUseCase.WrappedKeyStore, error) {
	var err error
	c.storeInit.Do(func() {
		c.store, err = c.initStore(ctx)
		if err != nil {
			c.initErrors["store"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["store"]; exists {
		return nil, storedErr
	}
	return c.store, nil
}

// ProtocolClient returns the client a relay uses to reach its master.
func (c *Container) ProtocolClient() (facilityUseCase.ProtocolClient, error) {
	var err error
	c.protocolClientInit.Do(func() {
		c.protocolClient, err = c.initProtocolClient()
		if err != nil {
			c.initErrors["protocolClient"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["protocolClient"]; exists {
		return nil, storedErr
	}
	return c.protocolClient, nil
}

// Facility returns the facility for the configured mode: a master over the local
// store, or a relay that asks MasterURL.
func (c *Container) Facility(ctx context.Context) (facilityUseCase.Facility, error) {
	var err error
	c.facilityInit.Do(func() {
		err = c.initFacility(ctx)
		if err != nil {
			c.initErrors["facility"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["facility"]; exists {
		return nil, storedErr
	}
	return c.facility, nil
}

// MasterFacility returns the master facility. It fails in relay mode, where no store is owned.
func (c *Container) MasterFacility(ctx context.Context) (facilityUseCase.MasterFacility, error) {
	if _, err := c.Facility(ctx); err != nil {
		return nil, err
	}
	if c.masterFacility == nil {
		return nil, apperrors.Wrapf(
			apperrors.ErrInvalidConfiguration,
			"facility mode %q does not own a key store",
			c.config.FacilityMode,
		)
	}
	return c.masterFacility, nil
}

// ProtocolHandler returns the handler serving /new and /key.
func (c *Container) ProtocolHandler(ctx context.Context) (*facilityHTTP.ProtocolHandler, error) {
	facility, err := c.Facility(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get facility for protocol handler: %w", err)
	}
	return facilityHTTP.NewProtocolHandler(facility, c.Logger()), nil
}

// AdminHandler returns the admin handler, or nil when the admin API is disabled or
// the process runs as a relay.
func (c *Container) AdminHandler(ctx context.Context) (*facilityHTTP.AdminHandler, error) {
	if !c.config.AdminAPIEnabled || c.config.FacilityMode != config.FacilityModeMaster {
		return nil, nil
	}

	master, err := c.MasterFacility(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get master facility for admin handler: %w", err)
	}
	return facilityHTTP.NewAdminHandler(master, c.Logger()), nil
}

// initStore opens the backend for StoreDriver and fronts it with an LRU when StoreCacheSize is set.
func (c *Container) initStore(ctx context.Context) (facilityUseCase.WrappedKeyStore, error) {
	backend, err := c.openBackend(ctx)
	if err != nil {
		return nil, err
	}

	if c.config.StoreCacheSize <= 0 {
		return backend, nil
	}

	cached, err := repository.NewCachedStore(backend, c.config.StoreCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create cached store: %w", err)
	}
	c.cachedStore = cached
	return cached, nil
}

func (c *Container) openBackend(ctx context.Context) (repository.Store, error) {
	logger := c.Logger()
	logger.Info("opening wrapped key store", slog.String("driver", c.config.StoreDriver))

	switch c.config.StoreDriver {
	case config.StoreDriverFileSystem:
		return repository.NewFileSystemStore(c.config.StorePath)
	case config.StoreDriverLevelDB:
		store, err := repository.NewLevelDBStore(c.config.StorePath)
		if err != nil {
			return nil, err
		}
		c.levelDBStore = store
		return store, nil
	case config.StoreDriverRedis:
		redisClient, err := c.RedisClient()
		if err != nil {
			return nil, fmt.Errorf("failed to get redis client for store: %w", err)
		}
		return repository.NewRedisStore(redisClient, c.config.RedisKeyPrefix), nil
	case config.StoreDriverPostgres:
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for store: %w", err)
		}
		return repository.NewPostgreSQLStore(db), nil
	case config.StoreDriverMySQL:
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for store: %w", err)
		}
		return repository.NewMySQLStore(db), nil
	case config.StoreDriverSQLite:
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for store: %w", err)
		}
		return repository.NewSQLiteStore(ctx, db)
	default:
		return nil, apperrors.Wrapf(
			apperrors.ErrInvalidConfiguration,
			"unsupported store driver: %s",
			c.config.StoreDriver,
		)
	}
}

func (c *Container) initProtocolClient() (*client.HTTPClient, error) {
	httpClient, err := client.NewHTTPClient(c.config.MasterURL, c.config.MasterTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create protocol client: %w", err)
	}
	return httpClient, nil
}

// initFacility assembles the facility for FacilityMode and wraps it with metrics if enabled.
func (c *Container) initFacility(ctx context.Context) error {
	cipher, err := c.Cipher()
	if err != nil {
		return fmt.Errorf("failed to get cipher for facility: %w", err)
	}

	switch c.config.FacilityMode {
	case config.FacilityModeMaster:
		master, err := c.initMasterFacility(ctx, cipher)
		if err != nil {
			return err
		}
		c.masterFacility = master
		c.facility = master
	case config.FacilityModeRelay:
		local, err := c.initLocalFacility(cipher)
		if err != nil {
			return err
		}
		c.facility = local
	default:
		return apperrors.Wrapf(
			apperrors.ErrInvalidConfiguration,
			"unsupported facility mode: %s",
			c.config.FacilityMode,
		)
	}

	c.Logger().Info("facility ready",
		slog.String("mode", c.config.FacilityMode),
		slog.Duration("cache_ttl", c.config.CacheTTL),
		slog.Int("cache_size", c.config.CacheSize),
	)
	return nil
}

func (c *Container) initMasterFacility(
	ctx context.Context,
	cipher cryptoService.Cipher,
) (facilityUseCase.MasterFacility, error) {
	store, err := c.Store(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get store for master facility: %w", err)
	}

	passphrase, err := c.Passphrase(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase for master facility: %w", err)
	}

	master, err := facilityUseCase.NewMasterFacility(store, cipher, c.KeyPairService(), facilityUseCase.MasterConfig{
		KeySize:        c.config.RSAKeySize,
		PublicExponent: c.config.RSAPublicExponent,
		Passphrase:     passphrase,
		CacheTTL:       c.config.CacheTTL,
		CacheSize:      c.config.CacheSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create master facility: %w", err)
	}
	c.cacheSizer, _ = master.(facilityUseCase.CacheSizer)

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for master facility: %w", err)
		}
		return facilityUseCase.NewMasterFacilityWithMetrics(master, businessMetrics), nil
	}
	return master, nil
}

func (c *Container) initLocalFacility(cipher cryptoService.Cipher) (facilityUseCase.Facility, error) {
	protocolClient, err := c.ProtocolClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get protocol client for local facility: %w", err)
	}

	local, err := facilityUseCase.NewLocalFacility(protocolClient, cipher, facilityUseCase.LocalConfig{
		CacheTTL:      c.config.CacheTTL,
		CacheSize:     c.config.CacheSize,
		LookupTimeout: c.config.MasterTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create local facility: %w", err)
	}
	c.cacheSizer, _ = local.(facilityUseCase.CacheSizer)

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for local facility: %w", err)
		}
		return facilityUseCase.NewFacilityWithMetrics(local, businessMetrics), nil
	}
	return local, nil
}

// ensureParentDir creates the directory holding path.
func ensureParentDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidConfiguration, err)
	}
	return nil
}
