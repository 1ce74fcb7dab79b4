package service

import (
	"context"
	"encoding/base64"
	"fmt"

	"gocloud.dev/secrets"

	cryptoDomain "github.com/allisson/kmi/internal/crypto/domain"

	// Providers accepted in KMS_KEY_URI.
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// KMSService opens keepers that protect configuration secrets such as the KEK passphrase.
type KMSService interface {
	// OpenKeeper resolves keyURI (gcpkms://, awskms://, azurekeyvault://, hashivault://
	// or base64key://) to a keeper. The caller closes it.
	OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error)
}

type kmsService struct{}

// NewKMSService returns a KMSService backed by gocloud.dev/secrets.
func NewKMSService() KMSService {
	return &kmsService{}
}

func (k *kmsService) OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return keeper, nil
}

// withKeeper opens the keeper at keyURI for the duration of fn. A close failure is
// reported only when fn succeeded.
func withKeeper(
	ctx context.Context,
	kms KMSService,
	keyURI string,
	fn func(keeper cryptoDomain.KMSKeeper) error,
) (err error) {
	keeper, err := kms.OpenKeeper(ctx, keyURI)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := keeper.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close KMS keeper: %w", closeErr)
		}
	}()
	return fn(keeper)
}

// EncryptSecret encrypts plaintext with the keeper at keyURI and returns the
// ciphertext base64 encoded, ready for an environment variable.
func EncryptSecret(ctx context.Context, kms KMSService, keyURI string, plaintext []byte) (string, error) {
	var encoded string
	err := withKeeper(ctx, kms, keyURI, func(keeper cryptoDomain.KMSKeeper) error {
		ciphertext, err := keeper.Encrypt(ctx, plaintext)
		if err != nil {
			return fmt.Errorf("failed to encrypt secret: %w", err)
		}
		encoded = base64.StdEncoding.EncodeToString(ciphertext)
		return nil
	})
	if err != nil {
		return "", err
	}
	return encoded, nil
}

// DecryptSecret reverses EncryptSecret.
func DecryptSecret(ctx context.Context, kms KMSService, keyURI, encoded string) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encrypted secret: %w", err)
	}

	var plaintext []byte
	err = withKeeper(ctx, kms, keyURI, func(keeper cryptoDomain.KMSKeeper) error {
		plaintext, err = keeper.Decrypt(ctx, ciphertext)
		if err != nil {
			return fmt.Errorf("failed to decrypt secret: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}
