package domain

import (
	"github.com/allisson/kmi/internal/errors"
)

// Cryptographic operation error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors
// so the HTTP layer can map them to status codes without knowing about
// ciphers or key formats.
var (
	// ErrUnsupportedAlgorithm indicates the requested sealing algorithm is not supported.
	//
	// HTTP Status: 422 Unprocessable Entity
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates a symmetric key of the wrong length was supplied.
	//
	// HTTP Status: 422 Unprocessable Entity
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrDecryptionFailed indicates a private key could not be loaded or a
	// wrapped key could not be unwrapped with it.
	//
	// This error can occur due to:
	//   - Wrong passphrase configured
	//   - KEK bytes that are not a serialized private key
	//   - A wrapped key that was produced under another key pair
	//   - Corrupted wrapped key bytes
	//
	// The specific cause is not disclosed.
	//
	// HTTP Status: 422 Unprocessable Entity
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")

	// ErrPaddingInvalid indicates a ciphertext did not end in valid block padding.
	// It is the only integrity signal available for unauthenticated CBC payloads.
	//
	// HTTP Status: 422 Unprocessable Entity
	ErrPaddingInvalid = errors.Wrap(errors.ErrInvalidInput, "invalid padding")

	// ErrCiphertextSize indicates a ciphertext that is empty or not block aligned.
	ErrCiphertextSize = errors.Wrap(errors.ErrInvalidInput, "ciphertext is not a multiple of the block size")

	// ErrStreamCorrupted indicates an encrypted stream whose header or body is truncated.
	ErrStreamCorrupted = errors.Wrap(errors.ErrInvalidInput, "encrypted stream is corrupted")

	// ErrStreamLengthUnknown indicates a plaintext source whose length cannot be determined up front.
	ErrStreamLengthUnknown = errors.Wrap(errors.ErrInvalidInput, "stream length cannot be determined")

	// ErrInvalidLookupKey indicates a lookup key that is not a hex SHA-256 digest.
	ErrInvalidLookupKey = errors.Wrap(errors.ErrInvalidInput, "invalid lookup key")

	// ErrUnsupportedKeyParameters indicates an RSA modulus or exponent the facility cannot generate.
	ErrUnsupportedKeyParameters = errors.Wrap(
		errors.ErrInvalidConfiguration,
		"unsupported rsa key parameters",
	)

	// ErrUnsupportedCipherMode indicates an unknown CipherMode.
	ErrUnsupportedCipherMode = errors.Wrap(errors.ErrInvalidConfiguration, "unsupported cipher mode")
)
