package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"github.com/damacus/iron-browse/internal/app"
	"github.com/damacus/iron-browse/internal/config"
	"github.com/damacus/iron-browse/internal/logger"
	"github.com/damacus/iron-browse/internal/services"
	"github.com/damacus/iron-browse/internal/transfer"
	"github.com/damacus/iron-browse/internal/tui"
)

// flagKeys maps command line flags to the config keys they override
var flagKeys = map[string]string{
	"endpoint":         config.KeyEndpoint,
	"access-key":       config.KeyAccessKey,
	"secret-key":       config.KeySecretKey,
	"session-token":    config.KeySessionToken,
	"region":           config.KeyRegion,
	"use-ssl":          config.KeyUseSSL,
	"download-dir":     config.KeyDownloadDir,
	"workers":          config.KeyDownloadWorkers,
	"list-timeout":     config.KeyListTimeout,
	"metadata-timeout": config.KeyMetadataTimeout,
	"log-file":         config.KeyLogFile,
	"log-level":        config.KeyLogLevel,
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "ironbrowse:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "ironbrowse",
		Usage: "Browse and download from MinIO / S3 compatible object storage",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Usage: "Load settings from this .env file", Value: ".env"},
			&cli.StringFlag{Name: "endpoint", Usage: "Storage endpoint host:port"},
			&cli.StringFlag{Name: "access-key", Usage: "Access key"},
			&cli.StringFlag{Name: "secret-key", Usage: "Secret key"},
			&cli.StringFlag{Name: "session-token", Usage: "Session token for temporary credentials"},
			&cli.StringFlag{Name: "region", Usage: "Storage region"},
			&cli.StringFlag{Name: "use-ssl", Usage: "true, false or auto"},
			&cli.StringFlag{Name: "download-dir", Usage: "Default download destination"},
			&cli.IntFlag{Name: "workers", Usage: "Parallel transfers per batch (1-32)"},
			&cli.StringFlag{Name: "list-timeout", Usage: "Timeout for listings, e.g. 30s"},
			&cli.StringFlag{Name: "metadata-timeout", Usage: "Timeout for metadata calls, e.g. 15s"},
			&cli.StringFlag{Name: "log-file", Usage: "Write logs to this file"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		},
		Action: run,
	}
}

// overrides collects the flags given explicitly on the command line
func overrides(c *cli.Context) map[string]any {
	out := make(map[string]any)
	for flag, key := range flagKeys {
		if !c.IsSet(flag) {
			continue
		}
		if flag == "workers" {
			out[key] = c.Int(flag)
		} else {
			out[key] = c.String(flag)
		}
	}
	return out
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("env-file"), overrides(c))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	closer, err := logger.Setup(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	logger.Log.Info().
		Str("endpoint", cfg.Storage.Endpoint).
		Int("workers", cfg.Download.Workers).
		Msg("starting")

	store, err := services.Connect(&services.RealMinioFactory{}, cfg.Storage.Credentials())
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	runner := tui.NewRunner(store, transfer.New(cfg.Download.Workers, logger.Log), tui.RunnerOptions{
		ListTimeout:     cfg.Timeouts.List,
		MetadataTimeout: cfg.Timeouts.Metadata,
		Logger:          logger.Log,
	})
	state := app.New(app.Options{DownloadDir: cfg.Download.Dir})

	program := tea.NewProgram(tui.New(state, runner), tea.WithAltScreen(), tea.WithContext(c.Context))
	if _, err := program.Run(); err != nil {
		logger.Log.Error().Err(err).Msg("program exited")
		return err
	}
	logger.Log.Info().Msg("bye")
	return nil
}
