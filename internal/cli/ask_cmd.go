package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/exemplar/internal/domain/entities"
	"github.com/0xcro3dile/exemplar/internal/domain/usecases"
)

func newAskCmd(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   `ask "<message>"`,
		Short: "Answer one message and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg := strings.Join(args, " ")
			resp, err := app.Chat.Reply(cmd.Context(), &entities.ChatRequest{Message: msg})
			if err != nil {
				if errors.Is(err, usecases.ErrEmptyMessage) {
					return fmt.Errorf("nothing to ask: %w", err)
				}
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(askOutput{
					Response:       resp.Response,
					Source:         string(resp.Source),
					Match:          resp.Match,
					Score:          resp.Score,
					GeneratorError: resp.GeneratorError,
				})
			}

			fmt.Fprintln(out, resp.Response)
			fmt.Fprintf(out, "\n(source: %s", resp.Source)
			if resp.Match != nil {
				fmt.Fprintf(out, ", score %d, matched %q", resp.Score, resp.Match.Input)
			}
			fmt.Fprintln(out, ")")
			if resp.GeneratorError != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "generator failed: %s\n", resp.GeneratorError)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the reply as JSON")
	return cmd
}

type askOutput struct {
	Response       string            `json:"response"`
	Source         string            `json:"source"`
	Match          *entities.Example `json:"match,omitempty"`
	Score          int               `json:"score,omitempty"`
	GeneratorError string            `json:"generator_error,omitempty"`
}
