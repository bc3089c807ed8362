package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nao1215/wavebot/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
// Excluded categories are dropped; everything else is written as decoded,
// in the key order of the API response.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// jsonDocument is the exported shape.
type jsonDocument struct {
	ReportType model.Tier        `json:"report_type"`
	URL        string            `json:"url"`
	Statistics *model.Statistics `json:"statistics,omitempty"`
	Categories *model.Categories `json:"categories"`
}

// Write outputs the report in JSON format.
func (w *JSONWriter) Write(tier model.Tier, url string, report *model.AccessibilityReport) (int, error) {
	if err := validate(tier, report); err != nil {
		return 0, err
	}

	doc := jsonDocument{
		ReportType: tier,
		URL:        url,
		Statistics: report.Statistics,
		Categories: reportableCategories(report),
	}

	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to encode report: %w", err)
	}
	data = append(data, '\n')

	return w.output.Write(data)
}
