package commands

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"

	cryptoDomain "github.com/allisson/kmi/internal/crypto/domain"
	facilityDomain "github.com/allisson/kmi/internal/facility/domain"
	facilityUseCase "github.com/allisson/kmi/internal/facility/usecase"
)

// RunGetKey resolves the KEK stored at kekPath and prints its data key as hex.
func RunGetKey(
	ctx context.Context,
	facility facilityUseCase.Facility,
	logger *slog.Logger,
	out io.Writer,
	kekPath string,
) error {
	holder, err := facilityDomain.LoadKeyHolder(kekPath)
	if err != nil {
		return err
	}
	defer holder.Zero()

	dek, err := facility.GetEncryptionKey(ctx, holder.Key())
	if err != nil {
		logger.Error("failed to resolve kek",
			slog.String("lookup_key", holder.LookupKey()),
			slog.Any("error", err),
		)
		return fmt.Errorf("failed to get encryption key: %w", err)
	}
	defer cryptoDomain.Zero(dek)

	_, err = fmt.Fprintln(out, hex.EncodeToString(dek))
	return err
}
