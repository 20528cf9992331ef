package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/yigit/examprogress/internal/app/models"
	"github.com/yigit/examprogress/internal/app/services"
	"github.com/yigit/examprogress/internal/bootstrap"
	"github.com/yigit/examprogress/internal/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "examprogress-admin",
		Usage: "Headless backup, restore, validation and sync for the exam progress service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   bootstrap.DefaultConfigPath,
				Usage:   "path to the YAML configuration file",
				EnvVars: []string{"CONFIG_PATH"},
			},
		},
		Commands: []*cli.Command{
			backupCommand(),
			restoreCommand(),
			validateCommand(),
			syncCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// withDependencies connects to the database, builds the services and closes the
// pool once fn returns.
func withDependencies(c *cli.Context, fn func(deps *bootstrap.Dependencies) error) error {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(c.String("config"))
	if err != nil {
		return err
	}
	pool, err := bootstrap.SetupDatabase(cfg, lgr)
	if err != nil {
		return err
	}
	defer pool.Close()

	deps, err := bootstrap.BuildDependencies(cfg, pool, lgr)
	if err != nil {
		return err
	}
	return fn(deps)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func backupCommand() *cli.Command {
	return &cli.Command{
		Name:  "backup",
		Usage: "Write a snapshot of every student to a file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Usage: "target file or directory (defaults to the current directory)"},
		},
		Action: func(c *cli.Context) error {
			return withDependencies(c, func(deps *bootstrap.Dependencies) error {
				name, content, err := deps.BackupService.Export(c.Context)
				if err != nil {
					return err
				}

				target := c.String("out")
				if target == "" {
					target = name
				} else if info, err := os.Stat(target); err == nil && info.IsDir() {
					target = filepath.Join(target, name)
				}

				if err := os.WriteFile(target, content, 0o644); err != nil {
					return fmt.Errorf("failed to write backup: %w", err)
				}
				fmt.Printf("backup written to %s\n", target)
				return nil
			})
		},
	}
}

func restoreCommand() *cli.Command {
	return &cli.Command{
		Name:  "restore",
		Usage: "Replace every student with the records of a snapshot file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Required: true, Usage: "snapshot file to restore"},
			&cli.BoolFlag{Name: "yes", Usage: "confirm that existing students are deleted"},
		},
		Action: func(c *cli.Context) error {
			content, err := os.ReadFile(c.String("file"))
			if err != nil {
				return fmt.Errorf("failed to read snapshot: %w", err)
			}

			return withDependencies(c, func(deps *bootstrap.Dependencies) error {
				result := deps.BackupService.Restore(c.Context, content, c.Bool("yes"))
				if err := printJSON(result); err != nil {
					return err
				}
				if !result.Success {
					return cli.Exit(result.Message, 2)
				}
				return nil
			})
		},
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Run the data integrity checks",
		Action: func(c *cli.Context) error {
			return withDependencies(c, func(deps *bootstrap.Dependencies) error {
				report := deps.MaintenanceService.Validate(c.Context)
				if err := printJSON(report); err != nil {
					return err
				}
				if !report.Valid {
					return cli.Exit(fmt.Sprintf("%d issue(s) found", len(report.Issues)), 2)
				}
				return nil
			})
		},
	}
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Exchange student data with an external academic system",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Required: true, Usage: "base URL of the external API"},
			&cli.StringFlag{Name: "key", Required: true, Usage: "API key sent as a bearer token"},
			&cli.StringFlag{Name: "direction", Value: string(models.SyncBidirectional), Usage: "import, export or bidirectional"},
			&cli.StringFlag{Name: "system", Usage: "SIAKAD, FEEDER or Custom API"},
		},
		Action: func(c *cli.Context) error {
			direction := models.SyncDirection(c.String("direction"))
			if !direction.Valid() {
				return cli.Exit("invalid direction: use import, export or bidirectional", 1)
			}

			return withDependencies(c, func(deps *bootstrap.Dependencies) error {
				result := deps.SyncService.Sync(c.Context, services.SyncRequest{
					APIURL:     c.String("url"),
					APIKey:     c.String("key"),
					Direction:  direction,
					SystemType: c.String("system"),
				})
				if err := printJSON(result); err != nil {
					return err
				}
				if !result.Success {
					return cli.Exit(result.Message, 2)
				}
				return nil
			})
		},
	}
}
