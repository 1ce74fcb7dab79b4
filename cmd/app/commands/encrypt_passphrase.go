package commands

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	cryptoDomain "github.com/allisson/kmi/internal/crypto/domain"
	cryptoService "github.com/allisson/kmi/internal/crypto/service"
)

// RunEncryptPassphrase reads a KEK passphrase from the first line of the tuple's reader,
// encrypts it with the KMS key at kmsKeyURI and prints the environment variables that
// make the server decrypt it at startup.
//
// Output format:
//   - KMS_KEY_URI="<uri>"
//   - KEK_PASSPHRASE_ENCRYPTED="<base64-encoded-kms-ciphertext>"
//
// For local development use kmsKeyURI="base64key://<32-byte-base64-key>".
func RunEncryptPassphrase(
	ctx context.Context,
	kmsService cryptoService.KMSService,
	logger *slog.Logger,
	stdio IOTuple,
	kmsKeyURI string,
) error {
	if kmsKeyURI == "" {
		return fmt.Errorf(
			"--kms-key-uri is required\n\nFor local development, use:\n  --kms-key-uri=\"base64key://<32-byte-base64-key>\"\n\nFor production, use a vault transit key:\n  --kms-key-uri=\"hashivault://<key-name>\"",
		)
	}

	passphrase, err := readPassphrase(stdio.Reader)
	if err != nil {
		return err
	}
	defer cryptoDomain.Zero(passphrase)

	encoded, err := cryptoService.EncryptSecret(ctx, kmsService, kmsKeyURI, passphrase)
	if err != nil {
		return err
	}
	logger.Debug("passphrase encrypted", slog.String("kms_key_uri", kmsKeyURI))

	w := stdio.Writer
	_, _ = fmt.Fprintln(w, "# KEK passphrase configuration (KMS mode)")
	_, _ = fmt.Fprintln(w, "# Copy these environment variables to your .env file or secrets manager")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "KMS_KEY_URI=\"%s\"\n", kmsKeyURI)
	_, err = fmt.Fprintf(w, "KEK_PASSPHRASE_ENCRYPTED=\"%s\"\n", encoded)
	return err
}

// readPassphrase returns the first line of r without its line ending.
func readPassphrase(r io.Reader) ([]byte, error) {
	line, err := bufio.NewReader(r).ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	line = bytes.TrimRight(line, "\r\n")
	if len(line) == 0 {
		return nil, fmt.Errorf("passphrase must not be empty")
	}
	return line, nil
}
