// Package service provides the cryptographic primitives behind the key management facility:
// the block cipher used for payload data, the RSA key-pair handling used to wrap data keys,
// and the AEAD ciphers used to seal serialized private keys.
package service

import (
	"context"
	"crypto/rsa"
	"io"

	cryptoDomain "github.com/allisson/kmi/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// Cipher encrypts payload data under key material supplied by the caller.
//
// The raw key material is never used directly: every call derives the AES-256 key
// from it, so any byte string (typically a data-encryption key) is acceptable.
// Implementations are stateless and safe for concurrent use.
type Cipher interface {
	// Encrypt pads and encrypts plaintext. The result is always block aligned
	// and longer than the plaintext.
	Encrypt(rawKey, plaintext []byte) ([]byte, error)

	// Decrypt reverses Encrypt. Returns ErrPaddingInvalid when the padding is malformed.
	Decrypt(rawKey, ciphertext []byte) ([]byte, error)

	// EncryptStream encrypts src into dst chunk by chunk under a fresh random IV.
	EncryptStream(ctx context.Context, rawKey []byte, src io.Reader, dst io.Writer) error

	// DecryptStream reverses EncryptStream.
	DecryptStream(ctx context.Context, rawKey []byte, src io.Reader, dst io.Writer) error
}

// KeyPairService generates, serializes and uses the RSA key pairs that act as KEKs.
type KeyPairService interface {
	// Generate creates a fresh key pair. Moduli below MinRSAKeySize bits and exponents
	// other than RSAPublicExponent fail with ErrUnsupportedKeyParameters.
	Generate(bits, exponent int) (*rsa.PrivateKey, error)

	// Marshal serializes the private key as PEM, sealed under passphrase when it is non-empty.
	Marshal(priv *rsa.PrivateKey, passphrase []byte) ([]byte, error)

	// Parse loads a private key produced by Marshal. Any failure is ErrDecryptionFailed.
	Parse(kek, passphrase []byte) (*rsa.PrivateKey, error)

	// WrapKey encrypts a data key under the public half of a key pair.
	WrapKey(pub *rsa.PublicKey, dek []byte) ([]byte, error)

	// UnwrapKey decrypts a wrapped data key. Any failure is ErrDecryptionFailed.
	UnwrapKey(priv *rsa.PrivateKey, wrapped []byte) ([]byte, error)
}
