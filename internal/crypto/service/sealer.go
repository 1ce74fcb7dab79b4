package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	cryptoDomain "github.com/allisson/kmi/internal/crypto/domain"
)

// AEADManagerService creates the AEAD used to seal serialized private keys.
type AEADManagerService struct{}

// NewAEADManager creates a new AEADManagerService.
func NewAEADManager() *AEADManagerService {
	return &AEADManagerService{}
}

// CreateCipher returns a sealer for alg keyed with the 32-byte key derived from the passphrase.
// Returns ErrInvalidKeySize or ErrUnsupportedAlgorithm.
func (am *AEADManagerService) CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	var (
		aead cipher.AEAD
		err  error
	)
	switch alg {
	case cryptoDomain.AESGCM:
		aead, err = newAESGCM(key)
	case cryptoDomain.ChaCha20:
		aead, err = chacha20poly1305.New(key)
	default:
		return nil, cryptoDomain.ErrUnsupportedAlgorithm
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s cipher: %w", alg, err)
	}
	return &sealer{algorithm: alg, aead: aead}, nil
}

func newAESGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// sealer implements AEAD on top of a standard cipher.AEAD with random 12-byte nonces.
// It is stateless apart from the key schedule and safe for concurrent use.
type sealer struct {
	algorithm cryptoDomain.Algorithm
	aead      cipher.AEAD
}

// Encrypt seals plaintext and returns the ciphertext (tag appended) and the nonce used.
func (s *sealer) Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error) {
	nonce = make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return s.aead.Seal(nil, nonce, plaintext, aad), nonce, nil
}

// Decrypt opens ciphertext. Any mismatch of key, nonce, aad or tag is ErrDecryptionFailed.
func (s *sealer) Decrypt(ciphertext, nonce, aad []byte) ([]byte, error) {
	if len(nonce) != s.aead.NonceSize() {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return plaintext, nil
}
