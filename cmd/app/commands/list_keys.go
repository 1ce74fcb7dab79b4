package commands

import (
	"context"
	"fmt"
	"io"

	facilityUseCase "github.com/allisson/kmi/internal/facility/usecase"
)

// RunListKeys prints the lookup key of every wrapped key held by the master's store.
// Supports both text and JSON output formats.
func RunListKeys(
	ctx context.Context,
	master facilityUseCase.MasterFacility,
	out io.Writer,
	format string,
) error {
	keys, err := master.Keys(ctx)
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}

	if format == "json" {
		return writeJSON(out, map[string]any{
			"lookup_keys": keys,
			"total":       len(keys),
		})
	}

	for _, key := range keys {
		if _, err := fmt.Fprintln(out, key); err != nil {
			return err
		}
	}
	return nil
}
