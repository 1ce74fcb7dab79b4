package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	facilityUseCase "github.com/allisson/kmi/internal/facility/usecase"
)

// RunPing checks that the master facility behind client is reachable and healthy.
func RunPing(
	ctx context.Context,
	client facilityUseCase.ProtocolClient,
	logger *slog.Logger,
	out io.Writer,
	masterURL string,
) error {
	if err := client.Ping(ctx); err != nil {
		logger.Error("master is not healthy", slog.String("url", masterURL), slog.Any("error", err))
		return fmt.Errorf("failed to ping master: %w", err)
	}

	_, err := fmt.Fprintf(out, "%s is healthy\n", masterURL)
	return err
}
