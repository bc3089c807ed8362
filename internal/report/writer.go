package report

import (
	"io"

	"github.com/nao1215/wavebot/internal/model"
)

// Writer defines the interface for report output.
// Implementations write a report at a given tier in some format.
type Writer interface {
	// Write outputs the report for url at the given tier.
	// Returns the number of bytes written and any error encountered.
	Write(tier model.Tier, url string, report *model.AccessibilityReport) (int, error)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// TextWriter writes the Formatter output unchanged.
type TextWriter struct {
	baseWriter
	formatter *Formatter
}

// NewTextWriter creates a TextWriter. Options are passed to the Formatter.
func NewTextWriter(output io.Writer, opts ...FormatterOption) *TextWriter {
	return &TextWriter{
		baseWriter: newBaseWriter(output),
		formatter:  NewFormatter(opts...),
	}
}

// Write formats the report and writes it.
func (w *TextWriter) Write(tier model.Tier, url string, report *model.AccessibilityReport) (int, error) {
	text, err := w.formatter.Format(tier, url, report)
	if err != nil {
		return 0, err
	}
	return io.WriteString(w.output, text)
}

// reportableCategories returns the categories of report that are not
// excluded, as a new map. The report itself is not modified.
func reportableCategories(report *model.AccessibilityReport) *model.Categories {
	filtered := model.NewCategories()
	if report == nil || report.Categories == nil {
		return filtered
	}
	for pair := report.Categories.Oldest(); pair != nil; pair = pair.Next() {
		if IsExcludedCategory(pair.Key) {
			continue
		}
		filtered.Set(pair.Key, pair.Value)
	}
	return filtered
}
