package cli

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/exemplar/internal/adapters/filewatcher"
	"github.com/0xcro3dile/exemplar/internal/domain/ports"
	"github.com/0xcro3dile/exemplar/internal/domain/usecases"
	httpserver "github.com/0xcro3dile/exemplar/internal/infrastructure/http"
)

func newServeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := app.Config

			if cfg.Dataset.CreateDir {
				if err := app.Files.EnsureDir(); err != nil {
					return err
				}
			}
			app.Logger.Info("dataset folder", slog.String("dir", cfg.Dataset.Dir))

			if snap, ok := app.Source.(*usecases.SnapshotSource); ok && cfg.Dataset.Watch {
				fw, err := filewatcher.NewFSNotifyWatcher([]string{app.Loader.Extension()}, app.Logger)
				if err != nil {
					return err
				}
				var watcher ports.FileWatcher = fw
				defer watcher.Stop()

				events, err := watcher.Watch(ctx, cfg.Dataset.Dir)
				if err != nil {
					if !errors.Is(err, fs.ErrNotExist) {
						return err
					}
					app.Logger.Warn("dataset folder missing, not watching", slog.String("dir", cfg.Dataset.Dir))
				} else {
					snap.Refresh()
					go snap.Follow(ctx, events)
				}
			}

			srv := httpserver.NewServer(app.Chat, app.Datasets, app.Generator, app.Logger, httpserver.Options{
				Addr:            cfg.Server.Addr(),
				ReadTimeout:     cfg.Server.ReadTimeout,
				WriteTimeout:    cfg.Server.WriteTimeout,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
				MaxUploadBytes:  cfg.Server.MaxUploadBytes,
			})
			return srv.Start(ctx)
		},
	}
}
