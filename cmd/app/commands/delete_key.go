package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	validation "github.com/jellydator/validation"

	facilityUseCase "github.com/allisson/kmi/internal/facility/usecase"
	customValidation "github.com/allisson/kmi/internal/validation"
)

// RunDeleteKey removes the wrapped key stored under lookupKey. Every KEK that
// resolved to it becomes permanently useless, and data encrypted under it is lost.
func RunDeleteKey(
	ctx context.Context,
	master facilityUseCase.MasterFacility,
	logger *slog.Logger,
	out io.Writer,
	lookupKey string,
) error {
	if err := validation.Validate(lookupKey, validation.Required, customValidation.LookupKey); err != nil {
		return fmt.Errorf("invalid lookup key: %w", err)
	}

	if err := master.Delete(ctx, lookupKey); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}

	logger.Warn("wrapped key deleted", slog.String("lookup_key", lookupKey))
	_, err := fmt.Fprintf(out, "Deleted wrapped key %s\n", lookupKey)
	return err
}
