// Package cli provides output utilities for exporting frame summaries.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/agbru/fractalcalc/pkg/models"
)

// WriteJSON encodes v as indented JSON.
//
// Parameters:
//   - out: The destination writer.
//   - v: The value to encode.
//
// Returns:
//   - error: An error if encoding or writing fails.
func WriteJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatQuietSummary formats a frame for quiet mode output: frame index,
// recorded paths, histogram total and best-chunks value on one line.
//
// Parameters:
//   - s: The frame summary.
//
// Returns:
//   - string: The formatted line.
func FormatQuietSummary(s models.FrameSummary) string {
	return fmt.Sprintf("%d %d %d %d", s.Frame, s.Paths, s.PixelsTotal, s.PixelsBest)
}

// DisplayQuietSummaries outputs one line per frame for scripting.
func DisplayQuietSummaries(out io.Writer, summaries []models.FrameSummary) {
	for _, s := range summaries {
		fmt.Fprintln(out, FormatQuietSummary(s))
	}
}

// WriteSummariesToFile writes the frame summaries of a run as JSON to path,
// creating the parent directory when needed.
//
// Parameters:
//   - path: The output file path.
//   - summaries: The frame summaries.
//
// Returns:
//   - error: An error if the file cannot be written.
func WriteSummariesToFile(path string, summaries []models.FrameSummary) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := WriteJSON(file, summaries); err != nil {
		file.Close()
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return file.Close()
}
