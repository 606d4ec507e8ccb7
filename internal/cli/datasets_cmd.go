package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newDatasetsCmd(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "List dataset files and what loading them yields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := app.Datasets.List(cmd.Context())
			if err != nil {
				return err
			}
			report := app.Source.Current(cmd.Context()).Report
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"files":          inv.Files,
					"total_lines":    inv.TotalLines,
					"total_examples": inv.TotalExamples,
					"report":         report,
				})
			}

			if len(inv.Files) == 0 {
				fmt.Fprintf(out, "No %s files in %s\n", app.Datasets.Extension(), app.Config.Dataset.Dir)
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FILE\tLINES\tEXAMPLES\tSIZE")
			for _, f := range inv.Files {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", f.Name, f.Lines, f.Examples, f.Size)
			}
			fmt.Fprintf(tw, "TOTAL\t%d\t%d\t\n", inv.TotalLines, inv.TotalExamples)
			if err := tw.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(out, "\nloaded %d examples from %d files (blank %d, malformed %d, unrecognized %d, unreadable files %d)\n",
				report.Accepted, report.Files, report.Blank, report.Malformed, report.Unrecognized, report.FileErrors)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the inventory as JSON")
	return cmd
}
