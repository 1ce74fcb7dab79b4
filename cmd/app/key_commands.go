package main

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/allisson/kmi/cmd/app/commands"
	"github.com/allisson/kmi/internal/app"
	facilityUseCase "github.com/allisson/kmi/internal/facility/usecase"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "new",
			Usage: "Generate a new KEK",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "File to write the KEK to (must not exist); stdout when empty",
				},
				urlFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, err := loadConfig(cmd.String("url"))
				if err != nil {
					return err
				}
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				facility, err := container.Facility(ctx)
				if err != nil {
					return err
				}

				return commands.RunNewKey(
					ctx,
					facility,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("output"),
				)
			},
		},
		{
			Name:  "get-key",
			Usage: "Print the data key protected by a KEK as hex",
			Flags: []cli.Flag{kekFlag(), urlFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, err := loadConfig(cmd.String("url"))
				if err != nil {
					return err
				}
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				facility, err := container.Facility(ctx)
				if err != nil {
					return err
				}

				return commands.RunGetKey(
					ctx,
					facility,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("kek"),
				)
			},
		},
		streamCommand("encrypt", "Encrypt a file or stdin under the data key of a KEK", commands.RunEncrypt),
		streamCommand("decrypt", "Decrypt a file or stdin under the data key of a KEK", commands.RunDecrypt),
		{
			Name:  "ping",
			Usage: "Check that a master facility is reachable",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "url",
					Aliases:  []string{"u"},
					Required: true,
					Usage:    "Master facility URL",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, err := loadConfig(cmd.String("url"))
				if err != nil {
					return err
				}
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				client, err := container.ProtocolClient()
				if err != nil {
					return err
				}

				return commands.RunPing(
					ctx,
					client,
					container.Logger(),
					commands.DefaultIO().Writer,
					cfg.MasterURL,
				)
			},
		},
	}
}

// streamFunc matches commands.RunEncrypt and commands.RunDecrypt.
type streamFunc = func(
	ctx context.Context,
	facility facilityUseCase.Facility,
	logger *slog.Logger,
	stdio commands.IOTuple,
	kekPath, inputPath, outputPath string,
) error

func streamCommand(name, usage string, run streamFunc) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: []cli.Flag{
			kekFlag(),
			urlFlag(),
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Input file; stdin when empty",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file; stdout when empty",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd.String("url"))
			if err != nil {
				return err
			}
			container := app.NewContainer(cfg)
			defer func() { _ = container.Shutdown(ctx) }()

			facility, err := container.Facility(ctx)
			if err != nil {
				return err
			}

			return run(
				ctx,
				facility,
				container.Logger(),
				commands.DefaultIO(),
				cmd.String("kek"),
				cmd.String("input"),
				cmd.String("output"),
			)
		},
	}
}
