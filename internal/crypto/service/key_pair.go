package service

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"

	"golang.org/x/crypto/argon2"

	cryptoDomain "github.com/allisson/kmi/internal/crypto/domain"
)

// PEM block types understood by RSAKeyPairService.
const (
	EncryptedPEMType = "ENCRYPTED RSA PRIVATE KEY"
	PKCS1PEMType     = "RSA PRIVATE KEY"
	PKCS8PEMType     = "PRIVATE KEY"
)

// argon2id parameters for deriving the sealing key from the passphrase.
const (
	argonTime    = 1
	argonMemory  = 19 * 1024
	argonThreads = 1
	saltSize     = 16
)

// RSAKeyPairService implements KeyPairService.
//
// Serialized private keys are sealed under a key derived from the passphrase
// with argon2id. The salt, nonce and sealing algorithm travel in the PEM headers,
// so a KEK is self-describing and only the passphrase is needed to open it.
type RSAKeyPairService struct {
	aeadManager AEADManager
	algorithm   cryptoDomain.Algorithm
}

// NewRSAKeyPairService creates a key pair service that seals with the given algorithm.
func NewRSAKeyPairService(aeadManager AEADManager, algorithm cryptoDomain.Algorithm) *RSAKeyPairService {
	return &RSAKeyPairService{
		aeadManager: aeadManager,
		algorithm:   algorithm,
	}
}

// Generate creates a new RSA key pair.
func (s *RSAKeyPairService) Generate(bits, exponent int) (*rsa.PrivateKey, error) {
	if bits < cryptoDomain.MinRSAKeySize {
		return nil, fmt.Errorf("%w: key size %d is below %d bits",
			cryptoDomain.ErrUnsupportedKeyParameters, bits, cryptoDomain.MinRSAKeySize)
	}
	if exponent != cryptoDomain.RSAPublicExponent {
		return nil, fmt.Errorf("%w: public exponent must be %d",
			cryptoDomain.ErrUnsupportedKeyParameters, cryptoDomain.RSAPublicExponent)
	}

	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate rsa key: %w", err)
	}
	return priv, nil
}

// Marshal serializes priv as PEM. With an empty passphrase the PKCS#1 DER is emitted as is.
func (s *RSAKeyPairService) Marshal(priv *rsa.PrivateKey, passphrase []byte) ([]byte, error) {
	der := x509.MarshalPKCS1PrivateKey(priv)
	defer cryptoDomain.Zero(der)

	if len(passphrase) == 0 {
		return pem.EncodeToMemory(&pem.Block{Type: PKCS1PEMType, Bytes: der}), nil
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	aead, err := s.sealingCipher(passphrase, salt, s.algorithm)
	if err != nil {
		return nil, err
	}

	ciphertext, nonce, err := aead.Encrypt(der, []byte(EncryptedPEMType))
	if err != nil {
		return nil, fmt.Errorf("failed to seal private key: %w", err)
	}

	return pem.EncodeToMemory(&pem.Block{
		Type: EncryptedPEMType,
		Headers: map[string]string{
			"Algorithm": string(s.algorithm),
			"Salt":      hex.EncodeToString(salt),
			"Nonce":     hex.EncodeToString(nonce),
		},
		Bytes: ciphertext,
	}), nil
}

// Parse loads a private key from its PEM serialization.
func (s *RSAKeyPairService) Parse(kek, passphrase []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(kek)
	if block == nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	switch block.Type {
	case EncryptedPEMType:
		return s.parseSealed(block, passphrase)
	case PKCS1PEMType:
		priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, cryptoDomain.ErrDecryptionFailed
		}
		return priv, nil
	case PKCS8PEMType:
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, cryptoDomain.ErrDecryptionFailed
		}
		priv, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, cryptoDomain.ErrDecryptionFailed
		}
		return priv, nil
	default:
		return nil, cryptoDomain.ErrDecryptionFailed
	}
}

// WrapKey encrypts dek with RSAES-PKCS1-v1_5 under pub.
func (s *RSAKeyPairService) WrapKey(pub *rsa.PublicKey, dek []byte) ([]byte, error) {
	wrapped, err := rsa.EncryptPKCS1v15(rand.Reader, pub, dek) //nolint:staticcheck
	if err != nil {
		return nil, fmt.Errorf("failed to wrap data key: %w", err)
	}
	return wrapped, nil
}

// UnwrapKey decrypts a wrapped data key and checks it has the data key length.
func (s *RSAKeyPairService) UnwrapKey(priv *rsa.PrivateKey, wrapped []byte) ([]byte, error) {
	dek, err := rsa.DecryptPKCS1v15(nil, priv, wrapped) //nolint:staticcheck
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	if len(dek) != cryptoDomain.KeySize {
		cryptoDomain.Zero(dek)
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return dek, nil
}

func (s *RSAKeyPairService) parseSealed(block *pem.Block, passphrase []byte) (*rsa.PrivateKey, error) {
	salt, err := hex.DecodeString(block.Headers["Salt"])
	if err != nil || len(salt) != saltSize {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	nonce, err := hex.DecodeString(block.Headers["Nonce"])
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	aead, err := s.sealingCipher(passphrase, salt, cryptoDomain.Algorithm(block.Headers["Algorithm"]))
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	der, err := aead.Decrypt(block.Bytes, nonce, []byte(EncryptedPEMType))
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	defer cryptoDomain.Zero(der)

	priv, err := x509.ParsePKCS1PrivateKey(der)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return priv, nil
}

func (s *RSAKeyPairService) sealingCipher(
	passphrase, salt []byte,
	alg cryptoDomain.Algorithm,
) (AEAD, error) {
	key := argon2.IDKey(passphrase, salt, argonTime, argonMemory, argonThreads, cryptoDomain.KeySize)
	defer cryptoDomain.Zero(key)

	return s.aeadManager.CreateCipher(key, alg)
}
