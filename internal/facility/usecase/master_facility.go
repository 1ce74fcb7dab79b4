package usecase

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/allisson/kmi/internal/cache"
	cryptoDomain "github.com/allisson/kmi/internal/crypto/domain"
	cryptoService "github.com/allisson/kmi/internal/crypto/service"
	facilityDomain "github.com/allisson/kmi/internal/facility/domain"
)

// MasterConfig holds the settings of a master facility.
type MasterConfig struct {
	// KeySize is the RSA modulus length of generated KEKs, in bits.
	KeySize int
	// PublicExponent of generated KEKs. Only 65537 is supported.
	PublicExponent int
	// Passphrase seals serialized private keys. It is a property of the KEK format,
	// not a defense against an attacker who holds both a KEK and the store.
	Passphrase []byte
	// CacheTTL bounds how long an unwrapped DEK is served from memory.
	CacheTTL time.Duration
	// CacheSize caps the number of cached DEKs.
	CacheSize int
	// Clock drives cache expiry. Nil means time.Now.
	Clock cache.Clock
	// LookupTimeout bounds a store read and unwrap shared by concurrent misses.
	// Zero means 30s.
	LookupTimeout time.Duration
}

// masterFacility resolves KEKs against a local WrappedKeyStore.
type masterFacility struct {
	payloadCipher

	store         WrappedKeyStore
	keyPairs      cryptoService.KeyPairService
	cache         *cache.TTLCache
	group         singleflight.Group
	keySize       int
	exponent      int
	passphrase    []byte
	lookupTimeout time.Duration
}

// NewMasterFacility creates a master facility over store.
// Returns ErrInvalidConfiguration when the cache settings are unusable.
func NewMasterFacility(
	store WrappedKeyStore,
	cipher cryptoService.Cipher,
	keyPairs cryptoService.KeyPairService,
	cfg MasterConfig,
) (MasterFacility, error) {
	dekCache, err := cache.New(cfg.CacheSize, cfg.CacheTTL, cfg.Clock)
	if err != nil {
		return nil, err
	}

	m := &masterFacility{
		store:         store,
		keyPairs:      keyPairs,
		cache:         dekCache,
		keySize:       cfg.KeySize,
		exponent:      cfg.PublicExponent,
		passphrase:    cfg.Passphrase,
		lookupTimeout: lookupTimeout(cfg.LookupTimeout),
	}
	m.payloadCipher = payloadCipher{cipher: cipher, resolve: m.GetEncryptionKey}
	return m, nil
}

// Generate creates a key pair and a fresh DEK, stores the DEK wrapped under the
// public half, and returns the sealed private half as the KEK.
func (m *masterFacility) Generate(ctx context.Context) ([]byte, error) {
	priv, err := m.keyPairs.Generate(m.keySize, m.exponent)
	if err != nil {
		return nil, err
	}

	kek, err := m.keyPairs.Marshal(priv, m.passphrase)
	if err != nil {
		return nil, err
	}

	dek := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(dek); err != nil {
		return nil, fmt.Errorf("failed to generate data key: %w", err)
	}
	defer cryptoDomain.Zero(dek)

	wrapped, err := m.keyPairs.WrapKey(&priv.PublicKey, dek)
	if err != nil {
		return nil, err
	}

	if err := m.store.Set(ctx, cryptoDomain.LookupKey(kek), wrapped); err != nil {
		return nil, err
	}
	return kek, nil
}

// GetEncryptionKey returns a copy of the DEK protected by kek.
//
// Concurrent misses for the same KEK share a single store read and unwrap.
// ErrKeyNotFound from the store is returned unchanged, as it is for an empty KEK;
// a KEK that cannot be opened or a wrapped key that does not unwrap yields
// ErrDecryptionFailed.
func (m *masterFacility) GetEncryptionKey(ctx context.Context, kek []byte) ([]byte, error) {
	if len(kek) == 0 {
		return nil, facilityDomain.ErrKeyNotFound
	}

	lookupKey := cryptoDomain.LookupKey(kek)
	if dek, ok := m.cache.Get(lookupKey); ok {
		return dek, nil
	}

	return sharedLookup(ctx, &m.group, lookupKey, m.lookupTimeout, func(ctx context.Context) ([]byte, error) {
		return m.unwrap(ctx, lookupKey, kek)
	})
}

func (m *masterFacility) unwrap(ctx context.Context, lookupKey string, kek []byte) ([]byte, error) {
	wrapped, err := m.store.Get(ctx, lookupKey)
	if err != nil {
		return nil, err
	}

	priv, err := m.keyPairs.Parse(kek, m.passphrase)
	if err != nil {
		return nil, err
	}

	dek, err := m.keyPairs.UnwrapKey(priv, wrapped)
	if err != nil {
		return nil, err
	}

	m.cache.Set(lookupKey, dek)
	return dek, nil
}

// InvalidateCache drops the cached DEK for kek.
func (m *masterFacility) InvalidateCache(kek []byte) {
	m.cache.Invalidate(cryptoDomain.LookupKey(kek))
}

// CacheLen returns the number of cached DEKs.
func (m *masterFacility) CacheLen() int {
	return m.cache.Len()
}

// Health probes the store with a lookup that never matches a real key.
func (m *masterFacility) Health(ctx context.Context) error {
	_, err := m.store.Contains(ctx, cryptoDomain.LookupKey(nil))
	return err
}

// Keys lists the lookup keys of every stored wrapped key.
func (m *masterFacility) Keys(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Contains reports whether a wrapped key is stored under lookupKey.
func (m *masterFacility) Contains(ctx context.Context, lookupKey string) (bool, error) {
	return m.store.Contains(ctx, lookupKey)
}

// Delete removes the wrapped key and any DEK cached for it.
func (m *masterFacility) Delete(ctx context.Context, lookupKey string) error {
	if err := m.store.Delete(ctx, lookupKey); err != nil {
		return err
	}
	m.cache.Invalidate(lookupKey)
	return nil
}
