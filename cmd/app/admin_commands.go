package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/kmi/cmd/app/commands"
	"github.com/allisson/kmi/internal/app"
)

func getAdminCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "list-keys",
			Usage: "List the lookup keys of the wrapped keys in the configured store",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, err := loadConfig("")
				if err != nil {
					return err
				}
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				master, err := container.MasterFacility(ctx)
				if err != nil {
					return err
				}

				return commands.RunListKeys(ctx, master, commands.DefaultIO().Writer, cmd.String("format"))
			},
		},
		{
			Name:  "delete-key",
			Usage: "Delete a wrapped key; every KEK that resolved to it becomes useless",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "lookup-key",
					Aliases:  []string{"l"},
					Required: true,
					Usage:    "Lookup key (hex SHA-256 of the KEK)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, err := loadConfig("")
				if err != nil {
					return err
				}
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				master, err := container.MasterFacility(ctx)
				if err != nil {
					return err
				}

				return commands.RunDeleteKey(
					ctx,
					master,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("lookup-key"),
				)
			},
		},
	}
}
