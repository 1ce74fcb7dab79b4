package usecase

import (
	"context"
	"io"

	cryptoDomain "github.com/allisson/kmi/internal/crypto/domain"
	cryptoService "github.com/allisson/kmi/internal/crypto/service"
)

// keyResolver maps a KEK to its DEK.
type keyResolver func(ctx context.Context, kek []byte) ([]byte, error)

// payloadCipher implements the data operations both facilities share: resolve the DEK,
// run the cipher, and clear the DEK copy afterwards.
type payloadCipher struct {
	cipher  cryptoService.Cipher
	resolve keyResolver
}

// Encrypt encrypts data under the DEK protected by kek.
func (p *payloadCipher) Encrypt(ctx context.Context, kek, data []byte) ([]byte, error) {
	dek, err := p.resolve(ctx, kek)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(dek)

	return p.cipher.Encrypt(dek, data)
}

// Decrypt decrypts data under the DEK protected by kek.
func (p *payloadCipher) Decrypt(ctx context.Context, kek, data []byte) ([]byte, error) {
	dek, err := p.resolve(ctx, kek)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(dek)

	return p.cipher.Decrypt(dek, data)
}

// EncryptStream encrypts src into dst under the DEK protected by kek.
func (p *payloadCipher) EncryptStream(ctx context.Context, kek []byte, src io.Reader, dst io.Writer) error {
	dek, err := p.resolve(ctx, kek)
	if err != nil {
		return err
	}
	defer cryptoDomain.Zero(dek)

	return p.cipher.EncryptStream(ctx, dek, src, dst)
}

// DecryptStream decrypts src into dst under the DEK protected by kek.
func (p *payloadCipher) DecryptStream(ctx context.Context, kek []byte, src io.Reader, dst io.Writer) error {
	dek, err := p.resolve(ctx, kek)
	if err != nil {
		return err
	}
	defer cryptoDomain.Zero(dek)

	return p.cipher.DecryptStream(ctx, dek, src, dst)
}
