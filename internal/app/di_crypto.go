package app

import (
	"context"
	"fmt"
	"log/slog"

	cryptoDomain "github.com/allisson/kmi/internal/crypto/domain"
	cryptoService "github.com/allisson/kmi/internal/crypto/service"
)

// AEADManager returns the AEAD manager service.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = cryptoService.NewAEADManager()
	})
	return c.aeadManager
}

// KMSService returns the KMS service.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// KeyPairService returns the RSA key pair service sealing new KEKs with the configured algorithm.
func (c *Container) KeyPairService() cryptoService.KeyPairService {
	c.keyPairServiceInit.Do(func() {
		c.keyPairService = cryptoService.NewRSAKeyPairService(
			c.AEADManager(),
			cryptoDomain.Algorithm(c.config.KEKSealingAlgorithm),
		)
	})
	return c.keyPairService
}

// Cipher returns the payload cipher in the configured mode.
func (c *Container) Cipher() (cryptoService.Cipher, error) {
	var err error
	c.cipherInit.Do(func() {
		c.cipher, err = c.initCipher()
		if err != nil {
			c.initErrors["cipher"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["cipher"]; exists {
		return nil, storedErr
	}
	return c.cipher, nil
}

// Passphrase returns the KEK passphrase, decrypting it through the KMS when it is configured encrypted.
func (c *Container) Passphrase(ctx context.Context) ([]byte, error) {
	var err error
	c.passphraseInit.Do(func() {
		c.passphrase, err = c.initPassphrase(ctx)
		if err != nil {
			c.initErrors["passphrase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["passphrase"]; exists {
		return nil, storedErr
	}
	return c.passphrase, nil
}

// initCipher creates the block cipher. Legacy mode is accepted for reading old data but logged.
func (c *Container) initCipher() (cryptoService.Cipher, error) {
	mode := cryptoDomain.CipherMode(c.config.CipherMode)

	blockCipher, err := cryptoService.NewBlockCipher(mode)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	if mode == cryptoDomain.CipherModeLegacy {
		c.Logger().Warn("legacy cipher mode uses a constant IV; identical payloads encrypt identically",
			slog.String("cipher_mode", string(mode)),
		)
	}
	return blockCipher, nil
}

// initPassphrase resolves the KEK passphrase.
func (c *Container) initPassphrase(ctx context.Context) ([]byte, error) {
	if c.config.KEKPassphraseEncrypted == "" {
		return []byte(c.config.KEKPassphrase), nil
	}

	passphrase, err := cryptoService.DecryptSecret(
		ctx,
		c.KMSService(),
		c.config.KMSKeyURI,
		c.config.KEKPassphraseEncrypted,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt kek passphrase: %w", err)
	}

	c.Logger().Info("kek passphrase decrypted via kms")
	return passphrase, nil
}
