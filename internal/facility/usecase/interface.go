// Package usecase implements the key management facilities.
//
// A facility hands out key-encrypting keys (KEKs) and resolves a KEK back to the
// data-encryption key (DEK) it protects. The master facility owns the wrapped keys
// and unwraps them locally; the local facility asks a master over the network and
// caches what it receives. Both encrypt and decrypt payloads under the resolved DEK.
package usecase

import (
	"context"
	"io"
)

// WrappedKeyStore persists wrapped DEKs addressed by lookup key.
//
// Implementations:
//   - FileSystemStore: one file per key, atomic rename on write
//   - LevelDBStore, RedisStore: key/value backends
//   - PostgreSQLStore, MySQLStore, SQLiteStore: a wrapped_keys table
//   - CachedStore: read-through LRU over any of the above
//
// Get and Delete return ErrKeyNotFound for an absent key. No locking is provided;
// a record is written once per KEK so concurrent writers to one key do not occur.
type WrappedKeyStore interface {
	// Get returns the wrapped key stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores wrapped under key, replacing any previous value.
	Set(ctx context.Context, key string, wrapped []byte) error

	// Delete removes the wrapped key stored under key.
	Delete(ctx context.Context, key string) error

	// List returns every lookup key in lexical order.
	List(ctx context.Context) ([]string, error)

	// Contains reports whether a wrapped key is stored under key.
	Contains(ctx context.Context, key string) (bool, error)
}

// ProtocolClient is the client half of the create/fetch protocol served by a master facility.
type ProtocolClient interface {
	// Create asks the master to generate a new KEK and returns it verbatim.
	Create(ctx context.Context) ([]byte, error)

	// Fetch sends a KEK and returns the DEK it protects.
	// Returns ErrKeyNotFound, ErrRemoteFailure or ErrTransport.
	Fetch(ctx context.Context, kek []byte) ([]byte, error)

	// Ping checks the master is reachable and healthy.
	Ping(ctx context.Context) error
}

// Facility is the capability surface shared by the master and local facilities.
type Facility interface {
	// Generate creates a new KEK whose DEK is stored wrapped. The returned bytes are
	// the only copy of the KEK; losing them loses the DEK.
	Generate(ctx context.Context) ([]byte, error)

	// GetEncryptionKey resolves kek to its DEK, serving from cache while the entry is fresh.
	GetEncryptionKey(ctx context.Context, kek []byte) ([]byte, error)

	// Encrypt encrypts data under the DEK protected by kek.
	Encrypt(ctx context.Context, kek, data []byte) ([]byte, error)

	// Decrypt decrypts data under the DEK protected by kek.
	Decrypt(ctx context.Context, kek, data []byte) ([]byte, error)

	// EncryptStream encrypts src into dst under the DEK protected by kek.
	EncryptStream(ctx context.Context, kek []byte, src io.Reader, dst io.Writer) error

	// DecryptStream decrypts src into dst under the DEK protected by kek.
	DecryptStream(ctx context.Context, kek []byte, src io.Reader, dst io.Writer) error

	// InvalidateCache drops any cached DEK for kek.
	InvalidateCache(kek []byte)

	// Health reports whether the facility can currently serve keys.
	Health(ctx context.Context) error
}

// MasterFacility is a Facility that owns the wrapped key store and exposes it for administration.
type MasterFacility interface {
	Facility

	// Keys lists the lookup keys of every stored wrapped key.
	Keys(ctx context.Context) ([]string, error)

	// Contains reports whether a wrapped key is stored under lookupKey.
	Contains(ctx context.Context, lookupKey string) (bool, error)

	// Delete removes the wrapped key stored under lookupKey. Every KEK that
	// resolved to it becomes permanently useless.
	Delete(ctx context.Context, lookupKey string) error
}

// CacheSizer is implemented by facilities that hold DEKs in memory.
type CacheSizer interface {
	CacheLen() int
}
