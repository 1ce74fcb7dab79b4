package commands

import (
	"context"
	"fmt"
	"log/slog"

	facilityDomain "github.com/allisson/kmi/internal/facility/domain"
	facilityUseCase "github.com/allisson/kmi/internal/facility/usecase"
)

// streamFunc is EncryptStream or DecryptStream bound to a facility.
type streamFunc func(ctx context.Context, facility facilityUseCase.Facility, kek []byte, stdio IOTuple) error

// RunEncrypt encrypts inputPath (or the tuple's reader) into outputPath (or the tuple's
// writer) under the data key protected by the KEK stored at kekPath.
func RunEncrypt(
	ctx context.Context,
	facility facilityUseCase.Facility,
	logger *slog.Logger,
	stdio IOTuple,
	kekPath, inputPath, outputPath string,
) error {
	return runStream(ctx, facility, logger, stdio, kekPath, inputPath, outputPath, "encrypt",
		func(ctx context.Context, f facilityUseCase.Facility, kek []byte, stdio IOTuple) error {
			src, err := sizedReader(stdio.Reader)
			if err != nil {
				return err
			}
			return f.EncryptStream(ctx, kek, src, stdio.Writer)
		},
	)
}

// RunDecrypt reverses RunEncrypt.
func RunDecrypt(
	ctx context.Context,
	facility facilityUseCase.Facility,
	logger *slog.Logger,
	stdio IOTuple,
	kekPath, inputPath, outputPath string,
) error {
	return runStream(ctx, facility, logger, stdio, kekPath, inputPath, outputPath, "decrypt",
		func(ctx context.Context, f facilityUseCase.Facility, kek []byte, stdio IOTuple) error {
			return f.DecryptStream(ctx, kek, stdio.Reader, stdio.Writer)
		},
	)
}

func runStream(
	ctx context.Context,
	facility facilityUseCase.Facility,
	logger *slog.Logger,
	stdio IOTuple,
	kekPath, inputPath, outputPath, operation string,
	stream streamFunc,
) (err error) {
	holder, err := facilityDomain.LoadKeyHolder(kekPath)
	if err != nil {
		return err
	}
	defer holder.Zero()

	src, closeSrc, err := openInput(inputPath, stdio.Reader)
	if err != nil {
		return err
	}
	defer func() { _ = closeSrc() }()

	dst, err := createOutput(outputPath, stdio.Writer)
	if err != nil {
		return err
	}
	defer func() {
		if finishErr := dst.finish(err != nil); finishErr != nil && err == nil {
			err = finishErr
		}
	}()

	if err := stream(ctx, facility, holder.Key(), IOTuple{Reader: src, Writer: dst}); err != nil {
		logger.Error("stream failed",
			slog.String("operation", operation),
			slog.String("lookup_key", holder.LookupKey()),
			slog.Any("error", err),
		)
		return fmt.Errorf("failed to %s: %w", operation, err)
	}

	logger.Debug("stream completed",
		slog.String("operation", operation),
		slog.String("lookup_key", holder.LookupKey()),
	)
	return nil
}
