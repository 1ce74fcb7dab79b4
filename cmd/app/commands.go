package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/kmi/internal/app"
	"github.com/allisson/kmi/internal/config"
)

func getCommands(version string) []*cli.Command {
	cmds := []*cli.Command{}
	cmds = append(cmds, getSystemCommands(version)...)
	cmds = append(cmds, getKeyCommands()...)
	cmds = append(cmds, getAdminCommands()...)
	return cmds
}

// loadConfig loads and validates the configuration. A non-empty masterURL turns the
// process into a relay of that master regardless of FACILITY_MODE.
func loadConfig(masterURL string) (*config.Config, error) {
	cfg := config.Load()
	if masterURL != "" {
		cfg.FacilityMode = config.FacilityModeRelay
		cfg.MasterURL = masterURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func urlFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "url",
		Aliases: []string{"u"},
		Usage:   "Master facility URL; when empty the configured facility is used",
	}
}

func kekFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "kek",
		Aliases:  []string{"k"},
		Required: true,
		Usage:    "Path of the file holding the KEK",
	}
}

// withContainer runs fn against a container built from cfg and shuts the container
// down afterwards.
func withContainer(ctx context.Context, cfg *config.Config, fn func(container *app.Container) error) error {
	container := app.NewContainer(cfg)
	defer func() { _ = container.Shutdown(ctx) }()
	return fn(container)
}
