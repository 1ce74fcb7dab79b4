package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	cryptoDomain "github.com/allisson/kmi/internal/crypto/domain"
	facilityDomain "github.com/allisson/kmi/internal/facility/domain"
	facilityUseCase "github.com/allisson/kmi/internal/facility/usecase"
)

// RunNewKey generates a KEK and writes it to outputPath, or to out when outputPath is empty.
//
// The KEK is the only handle on its data key. It is written once to a file that must not
// already exist, readable only by the owner.
func RunNewKey(
	ctx context.Context,
	facility facilityUseCase.Facility,
	logger *slog.Logger,
	out io.Writer,
	outputPath string,
) error {
	kek, err := facility.Generate(ctx)
	if err != nil {
		return fmt.Errorf("failed to generate kek: %w", err)
	}
	defer cryptoDomain.Zero(kek)

	lookupKey := cryptoDomain.LookupKey(kek)

	if outputPath == "" || outputPath == "-" {
		if _, err := out.Write(kek); err != nil {
			return fmt.Errorf("failed to write kek: %w", err)
		}
	} else if err := facilityDomain.SaveKEK(outputPath, kek); err != nil {
		return err
	}

	logger.Info("kek generated",
		slog.String("lookup_key", lookupKey),
		slog.String("output", outputPath),
	)
	return nil
}
