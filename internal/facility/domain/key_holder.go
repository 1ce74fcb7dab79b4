package domain

import (
	"fmt"
	"os"

	cryptoDomain "github.com/allisson/kmi/internal/crypto/domain"
)

// KeyHolder keeps a KEK loaded from a file so it can be handed to a facility on every call.
type KeyHolder struct {
	path string
	key  []byte
}

// LoadKeyHolder reads the KEK stored at path.
func LoadKeyHolder(path string) (*KeyHolder, error) {
	key, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("failed to read kek file: %w", err)
	}
	if len(key) == 0 {
		return nil, ErrEmptyKEK
	}
	return &KeyHolder{path: path, key: key}, nil
}

// Key returns the KEK bytes.
func (h *KeyHolder) Key() []byte {
	return h.key
}

// Path returns the file the KEK was read from.
func (h *KeyHolder) Path() string {
	return h.path
}

// LookupKey returns the storage address of the wrapped key protected by this KEK.
func (h *KeyHolder) LookupKey() string {
	return cryptoDomain.LookupKey(h.key)
}

// Zero clears the KEK from memory. The holder must not be used afterwards.
func (h *KeyHolder) Zero() {
	cryptoDomain.Zero(h.key)
	h.key = nil
}

// SaveKEK writes kek to path, readable only by the owner. An existing file is not overwritten.
func SaveKEK(path string, kek []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) //nolint:gosec
	if err != nil {
		return fmt.Errorf("failed to create kek file: %w", err)
	}
	if _, err := f.Write(kek); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write kek file: %w", err)
	}
	return f.Close()
}
