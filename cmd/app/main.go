// Package main is the kmi command line: the facility server plus the key and admin commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func newApp() *cli.Command {
	return &cli.Command{
		Name:     "kmi",
		Usage:    "Key management facility: envelope-encrypted data keys behind RSA key-encrypting keys",
		Version:  version,
		Commands: getCommands(version),
	}
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		logger.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}
