package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/wavebot/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MarkdownWriter outputs reports in GitHub Flavored Markdown.
// This format is meant for sharing a report outside Slack, for example in
// an issue tracker. The tier controls the amount of detail the same way it
// does for the Formatter.
type MarkdownWriter struct {
	baseWriter

	// printer formats counts with thousands separators.
	printer *message.Printer

	// title turns category keys into headings when a description is missing.
	title cases.Caser
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		printer:    message.NewPrinter(language.English),
		title:      cases.Title(language.English),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(tier model.Tier, url string, report *model.AccessibilityReport) (int, error) {
	if err := validate(tier, report); err != nil {
		return 0, err
	}

	md := markdown.NewMarkdown(w.output)
	categories := reportableCategories(report)

	w.writeHeader(md, tier, url, report)
	w.writeSummary(md, categories)

	if tier.IncludesItems() {
		for pair := categories.Oldest(); pair != nil; pair = pair.Next() {
			w.writeCategory(md, pair.Key, pair.Value, tier.IncludesDetail())
		}
	}

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the title and the page statistics table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, tier model.Tier, url string, report *model.AccessibilityReport) {
	md.H1("Accessibility Report")
	md.PlainText("")

	rows := [][]string{
		{"URL", url},
		{"Report Type", tier.String()},
	}
	if stats := report.Statistics; stats != nil {
		rows = append(rows,
			[]string{"Page Title", stats.PageTitle},
			[]string{"Total Elements", w.count(stats.TotalElements)},
			[]string{"Total Issues", w.count(stats.AllItemCount)},
		)
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeSummary writes the per-category issue counts.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, categories *model.Categories) {
	md.H2("Summary")
	md.PlainText("")

	if categories.Len() == 0 {
		md.Tip("No accessibility issues reported.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, categories.Len())
	for pair := categories.Oldest(); pair != nil; pair = pair.Next() {
		rows = append(rows, []string{w.heading(pair.Key, pair.Value), w.count(pair.Value.Count)})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Category", "Issues"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeCategory writes the items of one category, with XPaths and
// contrast samples when detail is requested.
func (w *MarkdownWriter) writeCategory(md *markdown.Markdown, key string, category model.Category, detail bool) {
	md.H2(w.heading(key, category))
	md.PlainText("")

	if category.Items == nil || category.Items.Len() == 0 {
		md.PlainText("No items.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, category.Items.Len())
	for pair := category.Items.Oldest(); pair != nil; pair = pair.Next() {
		rows = append(rows, []string{pair.Value.Description, w.count(pair.Value.Count)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Item", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if !detail {
		return
	}

	for pair := category.Items.Oldest(); pair != nil; pair = pair.Next() {
		item := pair.Value
		if len(item.XPaths) == 0 && len(item.ContrastData) == 0 {
			continue
		}

		md.H3(item.Description)
		md.PlainText("")

		if len(item.XPaths) > 0 {
			xpaths := make([]string, len(item.XPaths))
			for i, xpath := range item.XPaths {
				xpaths[i] = "`" + xpath + "`"
			}
			md.OrderedList(xpaths...)
			md.PlainText("")
		}

		if len(item.ContrastData) > 0 {
			contrastRows := make([][]string, len(item.ContrastData))
			for i, c := range item.ContrastData {
				contrastRows[i] = []string{
					c.Ratio.String(),
					"`" + c.Foreground + "`",
					"`" + c.Background + "`",
					strconv.FormatBool(c.Pass),
				}
			}
			md.Table(markdown.TableSet{
				Header: []string{"Ratio", "Foreground", "Background", "Pass"},
				Rows:   contrastRows,
			})
			md.PlainText("")
		}
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by wavebot from the WebAIM WAVE API*")
}

// heading returns the category description, or the title-cased key when
// the description is empty.
func (w *MarkdownWriter) heading(key string, category model.Category) string {
	if category.Description != "" {
		return category.Description
	}
	return w.title.String(key)
}

// count formats n with thousands separators.
func (w *MarkdownWriter) count(n int) string {
	return w.printer.Sprintf("%d", n)
}
