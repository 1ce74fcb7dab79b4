package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/kmi/cmd/app/commands"
	"github.com/allisson/kmi/internal/app"
	"github.com/allisson/kmi/internal/config"
	cryptoService "github.com/allisson/kmi/internal/crypto/service"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Serve the key protocol, the admin API and the health probes",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Create or upgrade the wrapped_keys table of the postgres and mysql stores",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				return withContainer(ctx, cfg, func(container *app.Container) error {
					return commands.RunMigrations(container.Logger(), cfg.DBDriver(), cfg.DBConnectionString)
				})
			},
		},
		{
			Name:  "migrate-status",
			Usage: "Print the applied schema version of the postgres and mysql stores",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				return withContainer(ctx, cfg, func(container *app.Container) error {
					return commands.RunMigrationStatus(
						container.Logger(),
						commands.DefaultIO(),
						cfg.DBDriver(),
						cfg.DBConnectionString,
					)
				})
			},
		},
		{
			Name:  "encrypt-passphrase",
			Usage: "Encrypt a KEK passphrase read from stdin with a KMS key",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "kms-key-uri",
					Required: true,
					Usage:    "KMS key URI (base64key://, hashivault://, awskms://, azurekeyvault://, gcpkms://)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, config.Load(), func(container *app.Container) error {
					return commands.RunEncryptPassphrase(
						ctx,
						cryptoService.NewKMSService(),
						container.Logger(),
						commands.DefaultIO(),
						cmd.String("kms-key-uri"),
					)
				})
			},
		},
	}
}
