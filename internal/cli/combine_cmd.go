package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/exemplar/internal/adapters/loader"
)

func newCombineCmd(app *App) *cobra.Command {
	var output string
	var normalize bool

	cmd := &cobra.Command{
		Use:   "combine [files...]",
		Short: "Concatenate dataset files into one",
		Long: "Concatenate dataset files into one JSONL file. Without arguments every\n" +
			"dataset file in the dataset folder is used, except the output itself.\n" +
			"The output goes to ./dataset.jsonl unless -o says otherwise.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = "dataset" + app.Loader.Extension()
			}

			inputs := args
			if len(inputs) == 0 {
				files, err := app.Loader.Files(app.Config.Dataset.Dir)
				if err != nil {
					return err
				}
				inputs = files
			}
			inputs, err := excludePath(inputs, output)
			if err != nil {
				return err
			}
			if len(inputs) == 0 {
				return fmt.Errorf("no input files to combine")
			}

			if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
				return err
			}
			tmp, err := os.CreateTemp(filepath.Dir(output), "."+filepath.Base(output)+".*.part")
			if err != nil {
				return err
			}
			defer os.Remove(tmp.Name())

			stats, err := loader.Combine(tmp, inputs, normalize)
			if err != nil {
				tmp.Close()
				return err
			}
			if err := tmp.Close(); err != nil {
				return err
			}
			if err := os.Rename(tmp.Name(), output); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Combined %d files (%d lines", stats.Files, stats.Lines)
			if normalize || stats.Skipped > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), ", %d skipped", stats.Skipped)
			}
			fmt.Fprintf(cmd.OutOrStdout(), ") into %s\n", output)

			inside, err := insideDatasetDir(app, output)
			if err != nil {
				return err
			}
			if inside {
				fmt.Fprintf(cmd.ErrOrStderr(),
					"Warning: %s is in the dataset folder, so its examples will be loaded twice alongside the originals.\n",
					output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default ./dataset.jsonl)")
	cmd.Flags().BoolVar(&normalize, "normalize", false, "Keep only usable lines, rewritten as input/response")
	return cmd
}

// excludePath drops entries that refer to the same file as target.
func excludePath(paths []string, target string) ([]string, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		pa, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		if pa != abs {
			out = append(out, p)
		}
	}
	return out, nil
}

// insideDatasetDir reports whether path is a file the loader would read.
func insideDatasetDir(app *App, path string) (bool, error) {
	dir, err := filepath.Abs(app.Config.Dataset.Dir)
	if err != nil {
		return false, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	return filepath.Dir(abs) == dir && strings.EqualFold(filepath.Ext(abs), app.Loader.Extension()), nil
}
