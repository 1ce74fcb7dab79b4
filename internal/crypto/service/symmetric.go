package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5" //nolint:gosec
	"crypto/rand"
	"fmt"

	cryptoDomain "github.com/allisson/kmi/internal/crypto/domain"
)

// DeriveKey turns arbitrary key material into an AES-256 key.
//
// Two MD5 rounds are chained over the material and the fixed salt:
// k1 = MD5(raw || salt), k2 = MD5(k1 || raw || salt), key = k1 || k2.
// The construction is kept for compatibility with data encrypted by earlier
// deployments; the input is always a random data key, never a password.
func DeriveKey(raw []byte) []byte {
	var digests [2][md5.Size]byte
	return deriveKey(raw, &digests)
}

// deriveKey computes the key in a fresh buffer, using digests for the two
// intermediate rounds. digests is zeroed before it returns.
func deriveKey(raw []byte, digests *[2][md5.Size]byte) []byte {
	defer func() {
		cryptoDomain.Zero(digests[0][:])
		cryptoDomain.Zero(digests[1][:])
	}()

	h := md5.New() //nolint:gosec
	defer h.Reset()

	h.Write(raw)
	h.Write(cryptoDomain.KDFSalt)
	k1 := h.Sum(digests[0][:0])

	h.Reset()
	h.Write(k1)
	h.Write(raw)
	h.Write(cryptoDomain.KDFSalt)
	k2 := h.Sum(digests[1][:0])

	key := make([]byte, cryptoDomain.KeySize)
	n := copy(key, k1)
	copy(key[n:], k2)
	return key
}

// BlockCipherService implements Cipher with AES-256-CBC.
type BlockCipherService struct {
	mode cryptoDomain.CipherMode
}

// NewBlockCipher creates a cipher for the given IV mode.
// Returns ErrUnsupportedCipherMode for anything other than random-iv or legacy.
func NewBlockCipher(mode cryptoDomain.CipherMode) (*BlockCipherService, error) {
	switch mode {
	case cryptoDomain.CipherModeRandomIV, cryptoDomain.CipherModeLegacy:
		return &BlockCipherService{mode: mode}, nil
	default:
		return nil, cryptoDomain.ErrUnsupportedCipherMode
	}
}

// Mode returns the configured IV mode.
func (s *BlockCipherService) Mode() cryptoDomain.CipherMode {
	return s.mode
}

// Encrypt pads plaintext with PKCS#7 and encrypts it.
//
// In random-iv mode the 16-byte IV is prepended to the returned ciphertext.
// In legacy mode the constant IV is used and the output is the bare CBC ciphertext.
func (s *BlockCipherService) Encrypt(rawKey, plaintext []byte) ([]byte, error) {
	block, err := newBlock(rawKey)
	if err != nil {
		return nil, err
	}

	padded := AddPKCSPadding(plaintext, cryptoDomain.BlockSize)
	defer cryptoDomain.Zero(padded)

	if s.mode == cryptoDomain.CipherModeLegacy {
		out := make([]byte, len(padded))
		cipher.NewCBCEncrypter(block, cryptoDomain.LegacyIV).CryptBlocks(out, padded)
		return out, nil
	}

	out := make([]byte, cryptoDomain.BlockSize+len(padded))
	iv := out[:cryptoDomain.BlockSize]
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("failed to generate iv: %w", err)
	}
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[cryptoDomain.BlockSize:], padded)
	return out, nil
}

// Decrypt reverses Encrypt, validating and stripping the padding.
func (s *BlockCipherService) Decrypt(rawKey, ciphertext []byte) ([]byte, error) {
	iv := cryptoDomain.LegacyIV
	body := ciphertext
	if s.mode != cryptoDomain.CipherModeLegacy {
		if len(ciphertext) < cryptoDomain.BlockSize {
			return nil, cryptoDomain.ErrCiphertextSize
		}
		iv = ciphertext[:cryptoDomain.BlockSize]
		body = ciphertext[cryptoDomain.BlockSize:]
	}
	if len(body) == 0 || len(body)%cryptoDomain.BlockSize != 0 {
		return nil, cryptoDomain.ErrCiphertextSize
	}

	block, err := newBlock(rawKey)
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, body)

	plaintext, err := RemovePKCSPadding(out, cryptoDomain.BlockSize)
	if err != nil {
		cryptoDomain.Zero(out)
		return nil, err
	}
	return plaintext, nil
}

func newBlock(rawKey []byte) (cipher.Block, error) {
	key := DeriveKey(rawKey)
	defer cryptoDomain.Zero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	return block, nil
}
