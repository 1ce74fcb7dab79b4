package domain

// Algorithm represents the AEAD algorithm used to seal a serialized private key.
//
// Both algorithms provide authenticated encryption, so a KEK sealed under the
// wrong passphrase is rejected instead of decoding into garbage key material.
type Algorithm string

const (
	// AESGCM represents the AES-256-GCM authenticated encryption algorithm.
	//
	// Key features:
	//   - 256-bit key size
	//   - 12-byte nonce (96 bits)
	//   - 16-byte authentication tag
	//   - Hardware acceleration on modern CPUs
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 represents the ChaCha20-Poly1305 authenticated encryption algorithm.
	//
	// Key features:
	//   - 256-bit key size
	//   - 12-byte nonce (96 bits)
	//   - 16-byte authentication tag
	//   - Constant-time software implementation
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// CipherMode selects how the block cipher chooses its initialization vector.
type CipherMode string

const (
	// CipherModeRandomIV prepends a fresh random IV to every ciphertext.
	CipherModeRandomIV CipherMode = "random-iv"

	// CipherModeLegacy uses the constant IV of the historical on-disk format.
	// Identical plaintexts under the same key produce identical ciphertexts.
	CipherModeLegacy CipherMode = "legacy"
)

// Cipher and key sizing.
const (
	// KeySize is the length of a data-encryption key and of the derived AES-256 key.
	KeySize = 32

	// BlockSize is the AES block size.
	BlockSize = 16

	// ChunkSize is the plaintext chunk length used by the streaming cipher.
	ChunkSize = 24 * 1024

	// StreamHeaderSize is the length of the little-endian plaintext length header.
	StreamHeaderSize = 8

	// MinRSAKeySize is the smallest accepted KEK modulus length in bits.
	MinRSAKeySize = 1024

	// DefaultRSAKeySize is the KEK modulus length used when none is configured.
	DefaultRSAKeySize = 2048

	// RSAPublicExponent is the only public exponent crypto/rsa generates.
	RSAPublicExponent = 65537
)

var (
	// KDFSalt is the fixed 8-byte salt mixed into the key derivation.
	KDFSalt = []byte("12345678")

	// LegacyIV is the constant initialization vector of CipherModeLegacy.
	LegacyIV = []byte("0123456789ABCDEF")
)
