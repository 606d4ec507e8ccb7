package cli

import (
	"fmt"

	"github.com/0xcro3dile/exemplar/internal/adapters/llm"
	"github.com/0xcro3dile/exemplar/internal/adapters/loader"
	"github.com/0xcro3dile/exemplar/internal/domain/usecases"
	"github.com/0xcro3dile/exemplar/internal/infrastructure/logging"
)

// Wire builds the components described by app.Config.
func (a *App) Wire() error {
	cfg := a.Config
	if cfg == nil {
		return fmt.Errorf("wire: no configuration loaded")
	}

	if a.LogWriter != nil {
		a.Logger = logging.NewWithWriter(a.LogWriter, cfg.Log)
	} else {
		a.Logger = logging.New(cfg.Log)
	}

	a.Loader = loader.NewJSONLLoader(cfg.Dataset.Extension, a.Logger)
	a.Files = loader.NewFileStore(cfg.Dataset.Dir, a.Loader, cfg.Server.MaxUploadBytes)

	if cfg.Dataset.Snapshot() {
		a.Source = usecases.NewSnapshotSource(a.Loader, cfg.Dataset.Dir, a.Logger)
	} else {
		a.Source = usecases.NewFreshSource(a.Loader, cfg.Dataset.Dir)
	}

	var observer llm.Observer = llm.NoopObserver{}
	if cfg.Generator.LogCalls {
		observer = llm.NewSlogObserver(a.Logger)
	}
	gen, err := llm.NewGenerator(cfg.Generator.LLM(), observer)
	if err != nil {
		return fmt.Errorf("wire generator: %w", err)
	}
	a.Generator = gen

	a.Chat = usecases.NewChatUseCase(a.Source, a.Generator, cfg.Chat.DefaultReply, a.Logger)
	a.Datasets = usecases.NewDatasetUseCase(a.Files, a.Source, a.Logger)
	return nil
}
