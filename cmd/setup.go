package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shikhar109/Downloder/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup initializes the configuration file and the history database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config: %w", err)
		}
		r.writePlain("%s %s\n", okStyle.Render("created"), configPath)
	} else {
		r.writePlain("%s %s\n", dimStyle.Render("config exists:"), configPath)
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if cmd.Bool("rollback") {
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		r.writePlain("%s\n", okStyle.Render("rolled back latest migration"))
		return nil
	}

	started := time.Now()
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	r.writePlain("%s %s (%s)\n", okStyle.Render("migrated"), r.config.Database.Path, time.Since(started).Round(time.Millisecond))
	return nil
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize config file and history database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "rollback",
				Usage: "Roll back the most recent migration instead",
			},
		},
		Action: r.Setup,
	}
}
