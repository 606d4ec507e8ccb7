// Package cli implements the exemplar command line.
package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/exemplar/internal/adapters/loader"
	"github.com/0xcro3dile/exemplar/internal/config"
	"github.com/0xcro3dile/exemplar/internal/domain/ports"
	"github.com/0xcro3dile/exemplar/internal/domain/usecases"
)

// skipWire marks commands that run without the dataset and generator stack.
const skipWire = "skip-wire"

// App holds the configuration and the wired components used by commands.
// Fields are filled by Wire; tests may pre-set Config and LogWriter.
type App struct {
	ConfigPath string
	Config     *config.Config
	LogWriter  io.Writer // nil means stderr, set as the slog default

	Logger    *slog.Logger
	Loader    *loader.JSONLLoader
	Files     *loader.FileStore
	Source    ports.DatasetSource
	Generator ports.Generator
	Chat      *usecases.ChatUseCase
	Datasets  *usecases.DatasetUseCase

	// IsInteractive reports whether stdin is a terminal.
	IsInteractive func() bool
}

// NewRootCmd creates the top-level "exemplar" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "exemplar",
		Short:         "Example-driven replies from JSONL datasets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipWire] == "true" {
				return nil
			}
			if app.Config == nil {
				cfg, err := config.Load(app.ConfigPath)
				if err != nil {
					return err
				}
				app.Config = cfg
			}
			return app.Wire()
		},
	}

	root.PersistentFlags().StringVar(&app.ConfigPath, "config", "",
		"path to config file (default $"+config.PathEnv+" or ./config.yaml)")

	root.AddCommand(
		newServeCmd(app),
		newAskCmd(app),
		newDatasetsCmd(app),
		newCombineCmd(app),
		newChatCmd(app),
		newConfigCmd(app),
	)

	return root
}
