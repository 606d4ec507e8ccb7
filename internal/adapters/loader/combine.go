package loader

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// CombineStats reports what Combine wrote.
type CombineStats struct {
	Files   int
	Lines   int
	Skipped int
}

// Combine concatenates dataset files into w in the given order.
// In raw mode every line is copied as-is and each file's last line is
// newline-terminated; oversized lines are skipped in both modes. With normalize set, only usable lines are written,
// re-encoded as {"input", "response"} objects.
func Combine(w io.Writer, paths []string, normalize bool) (CombineStats, error) {
	var stats CombineStats
	bw := bufio.NewWriter(w)

	for _, path := range paths {
		if err := combineFile(bw, path, normalize, &stats); err != nil {
			return stats, err
		}
		stats.Files++
	}

	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("flushing output: %w", err)
	}
	return stats, nil
}

type normalizedLine struct {
	Input    string `json:"input"`
	Response string `json:"response"`
}

func combineFile(w *bufio.Writer, path string, normalize bool, stats *CombineStats) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var writeErr error
	err = scanLines(f, func(_ int, line []byte, tooLong bool) {
		if writeErr != nil {
			return
		}
		if tooLong {
			stats.Skipped++
			return
		}
		if normalize {
			res := parseLine(line)
			if res.kind != lineAccepted {
				if res.kind != lineBlank {
					stats.Skipped++
				}
				return
			}
			line, writeErr = json.Marshal(normalizedLine{Input: res.input, Response: res.response})
			if writeErr != nil {
				return
			}
		}
		if _, writeErr = w.Write(line); writeErr != nil {
			return
		}
		if writeErr = w.WriteByte('\n'); writeErr != nil {
			return
		}
		stats.Lines++
	})
	if writeErr != nil {
		return fmt.Errorf("writing lines from %s: %w", path, writeErr)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}
