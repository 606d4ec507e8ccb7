package cli

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/0xcro3dile/exemplar/internal/tui"
)

// ErrNotInteractive is returned by chat when stdin is not a terminal.
var ErrNotInteractive = errors.New("chat needs an interactive terminal; use 'exemplar ask' instead")

func newChatCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat interactively in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.IsInteractive == nil || !app.IsInteractive() {
				return ErrNotInteractive
			}

			ctx := cmd.Context()
			ds := app.Source.Current(ctx)
			summary := fmt.Sprintf("%d examples from %d files · policy %s · generator %s",
				ds.Len(), ds.Report.Files, app.Chat.Policy(), app.Chat.GeneratorName())

			m := tui.New(ctx, app.Chat, summary)
			_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		},
	}
}
