package usecase

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/allisson/kmi/internal/cache"
	cryptoDomain "github.com/allisson/kmi/internal/crypto/domain"
	cryptoService "github.com/allisson/kmi/internal/crypto/service"
	facilityDomain "github.com/allisson/kmi/internal/facility/domain"
)

// LocalConfig holds the settings of a local facility.
type LocalConfig struct {
	// CacheTTL bounds how long a fetched DEK is served from memory.
	CacheTTL time.Duration
	// CacheSize caps the number of cached DEKs.
	CacheSize int
	// Clock drives cache expiry. Nil means time.Now.
	Clock cache.Clock
	// LookupTimeout bounds a fetch shared by concurrent misses. Zero means 30s.
	LookupTimeout time.Duration
}

// localFacility resolves KEKs by asking a master facility over the protocol.
type localFacility struct {
	payloadCipher

	client        ProtocolClient
	cache         *cache.TTLCache
	group         singleflight.Group
	lookupTimeout time.Duration
}

// NewLocalFacility creates a facility that delegates key operations to client.
func NewLocalFacility(
	client ProtocolClient,
	cipher cryptoService.Cipher,
	cfg LocalConfig,
) (Facility, error) {
	dekCache, err := cache.New(cfg.CacheSize, cfg.CacheTTL, cfg.Clock)
	if err != nil {
		return nil, err
	}

	l := &localFacility{
		client:        client,
		cache:         dekCache,
		lookupTimeout: lookupTimeout(cfg.LookupTimeout),
	}
	l.payloadCipher = payloadCipher{cipher: cipher, resolve: l.GetEncryptionKey}
	return l, nil
}

// Generate asks the master for a new KEK.
func (l *localFacility) Generate(ctx context.Context) ([]byte, error) {
	return l.client.Create(ctx)
}

// GetEncryptionKey returns a copy of the DEK protected by kek.
//
// The cache is keyed by the exact KEK bytes. On a miss the KEK is sent to the
// master; ErrKeyNotFound, ErrRemoteFailure and ErrTransport pass through. An empty
// KEK was never generated, so it is ErrKeyNotFound without a round trip.
func (l *localFacility) GetEncryptionKey(ctx context.Context, kek []byte) ([]byte, error) {
	if len(kek) == 0 {
		return nil, facilityDomain.ErrKeyNotFound
	}

	key := string(kek)
	if dek, ok := l.cache.Get(key); ok {
		return dek, nil
	}

	return sharedLookup(ctx, &l.group, key, l.lookupTimeout, func(ctx context.Context) ([]byte, error) {
		dek, err := l.client.Fetch(ctx, kek)
		if err != nil {
			return nil, err
		}
		if len(dek) != cryptoDomain.KeySize {
			cryptoDomain.Zero(dek)
			return nil, cryptoDomain.ErrDecryptionFailed
		}
		l.cache.Set(key, dek)
		return dek, nil
	})
}

// InvalidateCache drops the cached DEK for kek.
func (l *localFacility) InvalidateCache(kek []byte) {
	l.cache.Invalidate(string(kek))
}

// CacheLen returns the number of cached DEKs.
func (l *localFacility) CacheLen() int {
	return l.cache.Len()
}

// Health pings the master.
func (l *localFacility) Health(ctx context.Context) error {
	return l.client.Ping(ctx)
}
