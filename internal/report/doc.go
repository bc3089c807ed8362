// Package report turns WAVE accessibility reports into text.
//
// The central piece is Formatter, which renders a report as Slack mrkdwn at
// one of four verbosity tiers:
//   - Tier 1: one line per category with its issue count
//   - Tier 2 and 4: categories plus the items found in each
//   - Tier 3: everything in tier 2 plus item XPaths and contrast samples
//
// The categories "feature", "structure" and "aria" describe page structure
// rather than accessibility failures and are left out of every tier and
// every writer.
//
// The package also contains writers for exporting a report to a file or a
// terminal:
//   - TextWriter: the Formatter output
//   - MarkdownWriter: GitHub Flavored Markdown with tables
//   - JSONWriter: the report as JSON, without the excluded categories
//
// Formatting is pure. A Formatter holds no mutable state and can be shared
// between goroutines.
package report
