package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nao1215/wavebot/internal/model"
)

var (
	// ErrMalformedReport is returned when a report lacks a field the
	// requested tier needs. The formatter never substitutes empty data.
	ErrMalformedReport = errors.New("malformed report")

	// ErrReportNotSuccessful is returned when the formatter is handed an
	// error-shaped report. Reporting scan errors is the caller's job.
	ErrReportNotSuccessful = errors.New("report is not a successful scan")
)

// excludedCategories are informational WAVE categories that are not
// accessibility failures.
var excludedCategories = map[string]struct{}{
	"feature":   {},
	"structure": {},
	"aria":      {},
}

// IsExcludedCategory reports whether a category key is left out of
// formatted output.
func IsExcludedCategory(key string) bool {
	_, ok := excludedCategories[key]
	return ok
}

// Indentation used below category lines.
const (
	itemIndent   = "    "
	detailIndent = "        "
)

// Formatter renders accessibility reports as Slack mrkdwn text.
type Formatter struct {
	// descriptiveLabels makes tier 1 label categories with their
	// description instead of their raw key.
	descriptiveLabels bool
}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithDescriptiveLabels makes tier 1 use category descriptions ("Errors")
// instead of category keys ("error"). Tiers 2-4 always use descriptions.
// Off by default so tier 1 output stays the same as earlier releases.
func WithDescriptiveLabels(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.descriptiveLabels = enabled
	}
}

// NewFormatter creates a Formatter.
func NewFormatter(opts ...FormatterOption) *Formatter {
	f := &Formatter{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format renders report at the given tier using a default Formatter.
func Format(tier model.Tier, url string, report *model.AccessibilityReport) (string, error) {
	return NewFormatter().Format(tier, url, report)
}

// Format renders report for url at the given tier.
//
// The url is only placed in the header line. Categories and items are
// written in the order they appear in report. Tier 1 needs categories;
// the other tiers also need statistics. A tier outside the enumeration is
// rejected with model.ErrUnsupportedTier instead of being coerced, so a
// caller that forgot to default it is noticed.
func (f *Formatter) Format(tier model.Tier, url string, report *model.AccessibilityReport) (string, error) {
	if err := validate(tier, report); err != nil {
		return "", err
	}

	var sb strings.Builder
	if tier == model.Tier1 {
		f.writeSummary(&sb, tier, url, report)
	} else {
		f.writeDetailed(&sb, tier, url, report)
	}

	return sb.String(), nil
}

// validate checks that report can be rendered at tier.
func validate(tier model.Tier, report *model.AccessibilityReport) error {
	if !tier.Valid() {
		return fmt.Errorf("%w: got %q", model.ErrUnsupportedTier, tier)
	}
	if report == nil {
		return fmt.Errorf("%w: report is nil", ErrMalformedReport)
	}
	if !report.OK() {
		return fmt.Errorf("%w: %s", ErrReportNotSuccessful, report.Message)
	}
	if report.Categories == nil {
		return fmt.Errorf("%w: categories missing", ErrMalformedReport)
	}
	if tier.IncludesItems() && report.Statistics == nil {
		return fmt.Errorf("%w: statistics missing for report type %s", ErrMalformedReport, tier)
	}
	return nil
}

// writeSummary writes the tier 1 header and one count line per category.
func (f *Formatter) writeSummary(sb *strings.Builder, tier model.Tier, url string, report *model.AccessibilityReport) {
	fmt.Fprintf(sb, "*Accessibility summary (type %s) for <%s>:*\n", tier, url)

	for pair := report.Categories.Oldest(); pair != nil; pair = pair.Next() {
		if IsExcludedCategory(pair.Key) {
			continue
		}
		label := pair.Key
		if f.descriptiveLabels && pair.Value.Description != "" {
			label = pair.Value.Description
		}
		fmt.Fprintf(sb, "*%s:* %d issues\n", label, pair.Value.Count)
	}
}

// writeDetailed writes the tier 2-4 layout. XPaths and contrast samples
// are only written for tier 3.
func (f *Formatter) writeDetailed(sb *strings.Builder, tier model.Tier, url string, report *model.AccessibilityReport) {
	stats := report.Statistics

	fmt.Fprintf(sb, "*Detailed Accessibility Report (type %s) for <%s>:*\n", tier, url)
	fmt.Fprintf(sb, "Page Title: %s\n", stats.PageTitle)
	fmt.Fprintf(sb, "Total Elements: %d\n", stats.TotalElements)
	fmt.Fprintf(sb, "Total Issues: %d\n\n", stats.AllItemCount)

	for pair := report.Categories.Oldest(); pair != nil; pair = pair.Next() {
		if IsExcludedCategory(pair.Key) {
			continue
		}
		category := pair.Value
		fmt.Fprintf(sb, "*%s:* %d issues\n", category.Description, category.Count)

		if category.Items == nil {
			continue
		}
		for item := category.Items.Oldest(); item != nil; item = item.Next() {
			fmt.Fprintf(sb, "%s- %s: %d\n", itemIndent, item.Value.Description, item.Value.Count)
			if tier.IncludesDetail() {
				writeItemDetail(sb, item.Value)
			}
		}
	}
}

// writeItemDetail writes the numbered XPaths and contrast samples of an item.
// A block header is written whenever the field is present, even if empty.
func writeItemDetail(sb *strings.Builder, item model.Item) {
	if item.XPaths != nil {
		sb.WriteString(detailIndent + "XPaths:\n")
		for i, xpath := range item.XPaths {
			fmt.Fprintf(sb, "%s%d. `%s`\n", detailIndent, i+1, xpath)
		}
	}

	if item.ContrastData != nil {
		sb.WriteString(detailIndent + "Contrast Data:\n")
		for _, c := range item.ContrastData {
			fmt.Fprintf(sb, "%s- Ratio: %s, Foreground: %s, Background: %s, Pass: %t\n",
				detailIndent, c.Ratio, c.Foreground, c.Background, c.Pass)
		}
	}
}
