// Package commands contains CLI command implementations for the application.
package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"

	"github.com/allisson/kmi/internal/app"
	cryptoDomain "github.com/allisson/kmi/internal/crypto/domain"
	cryptoService "github.com/allisson/kmi/internal/crypto/service"
)

// IOTuple holds reader and writer for commands, allowing for testing.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO returns an IOTuple with os.Stdin and os.Stdout.
func DefaultIO() IOTuple {
	return IOTuple{
		Reader: os.Stdin,
		Writer: os.Stdout,
	}
}

// closeContainer closes all resources in the container and logs any errors.
func closeContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}

// closeMigrate closes the migration instance and logs any errors.
func closeMigrate(migrate *migrate.Migrate, logger *slog.Logger) {
	sourceError, databaseError := migrate.Close()
	if sourceError != nil || databaseError != nil {
		logger.Error(
			"failed to close the migrate",
			slog.Any("source_error", sourceError),
			slog.Any("database_error", databaseError),
		)
	}
}

// openInput returns the file at path, or fallback when path is empty or "-".
// The returned reader keeps fallback's concrete type so its length stays discoverable.
func openInput(path string, fallback io.Reader) (io.Reader, func() error, error) {
	if path == "" || path == "-" {
		return fallback, func() error { return nil }, nil
	}
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input file: %w", err)
	}
	return f, f.Close, nil
}

// sizedReader returns src unchanged when its length can be determined, and an in-memory
// copy otherwise. The stream format records the plaintext length up front, so pipes are buffered.
func sizedReader(src io.Reader) (io.Reader, error) {
	_, err := cryptoService.StreamLength(src)
	if err == nil {
		return src, nil
	}
	if !errors.Is(err, cryptoDomain.ErrStreamLengthUnknown) {
		return nil, err
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return bytes.NewReader(data), nil
}

// outputFile is a destination written through a temporary file in the target
// directory and renamed into place only when the command succeeds, so an input
// and output naming the same file never truncate the input before it is read.
type outputFile struct {
	io.Writer
	tmp  *os.File
	path string
}

// createOutput starts a temporary file next to path, readable only by the owner,
// or wraps fallback when path is empty or "-".
func createOutput(path string, fallback io.Writer) (*outputFile, error) {
	if path == "" || path == "-" {
		return &outputFile{Writer: fallback}, nil
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return &outputFile{Writer: tmp, tmp: tmp, path: path}, nil
}

// finish discards the temporary file when failed is set, and otherwise syncs it
// and renames it over the destination.
func (o *outputFile) finish(failed bool) error {
	if o.tmp == nil {
		return nil
	}
	tmpName := o.tmp.Name()
	if failed {
		_ = o.tmp.Close()
		_ = os.Remove(tmpName)
		return nil
	}

	if err := o.tmp.Sync(); err != nil {
		_ = o.tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to sync output file: %w", err)
	}
	if err := o.tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if err := os.Rename(tmpName, o.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to move output file into place: %w", err)
	}
	return nil
}

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(jsonBytes))
	return err
}
