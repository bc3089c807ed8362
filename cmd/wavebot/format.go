package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nao1215/wavebot/internal/model"
	"github.com/nao1215/wavebot/internal/report"
	"github.com/spf13/cobra"
)

// maxReportFileSize limits how much of a saved report is read.
const maxReportFileSize = 10 << 20

// errBothFormats is returned when --json and --markdown are combined.
var errBothFormats = errors.New("--json and --markdown are mutually exclusive")

// formatOptions holds the parsed flags of the format command.
type formatOptions struct {
	tier              model.Tier
	url               string
	json              bool
	markdown          bool
	output            string
	descriptiveLabels bool
}

// NewFormatCmd creates the format command.
func NewFormatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "format [report.json]",
		Short: "Format a saved WAVE API response",
		Long: `Format renders a WAVE API JSON response the way wavebot posts it to Slack.

The response is read from the given file, or from stdin when no file is
given or the file is "-". Use --markdown or --json to export the report
instead of printing Slack mrkdwn.

Examples:
  # Summary, as posted for "/wave example.com"
  wavebot format report.json

  # Detailed report with XPaths and contrast data
  wavebot format report.json --tier 3 --url https://example.com

  # Fetch and format in one go
  curl -s "https://wave.webaim.org/api/request?key=$KEY&url=example.com&reporttype=2" \
    | wavebot format --tier 2 --markdown -o reports/example.md`,
		Args: cobra.MaximumNArgs(1),
		RunE: runFormatCmd,
	}

	cmd.Flags().StringP("tier", "t", string(model.DefaultTier),
		"Report type 1-4")
	cmd.Flags().StringP("url", "u", "",
		"Page URL shown in the report (default: the page URL in the response)")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write the report to the given file path (creates directories if needed)")
	cmd.Flags().Bool("descriptive-labels", false,
		"Use category descriptions instead of keys in summaries")

	return cmd
}

// runFormatCmd executes the format command.
func runFormatCmd(cmd *cobra.Command, args []string) error {
	opts, err := parseFormatFlags(cmd)
	if err != nil {
		return err
	}

	source := "-"
	if len(args) == 1 {
		source = args[0]
	}

	data, err := readReport(source, cmd.InOrStdin())
	if err != nil {
		return err
	}

	rep, err := model.DecodeReport(data)
	if err != nil {
		return fmt.Errorf("failed to parse report: %w", err)
	}
	if !rep.OK() {
		return fmt.Errorf("report is an error response: %s", rep.Message)
	}

	if opts.url == "" && rep.Statistics != nil {
		opts.url = rep.Statistics.PageURL
	}

	out := cmd.OutOrStdout()
	if opts.output != "" {
		f, err := createOutputFile(opts.output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	return writeReport(out, opts, rep)
}

// parseFormatFlags reads and validates the format flags.
func parseFormatFlags(cmd *cobra.Command) (formatOptions, error) {
	var opts formatOptions
	flags := cmd.Flags()

	rawTier, err := flags.GetString("tier")
	if err != nil {
		return opts, err
	}
	if opts.tier, err = model.ParseTier(rawTier); err != nil {
		return opts, err
	}
	if opts.url, err = flags.GetString("url"); err != nil {
		return opts, err
	}
	if opts.json, err = flags.GetBool("json"); err != nil {
		return opts, err
	}
	if opts.markdown, err = flags.GetBool("markdown"); err != nil {
		return opts, err
	}
	if opts.json && opts.markdown {
		return opts, errBothFormats
	}
	if opts.output, err = flags.GetString("output"); err != nil {
		return opts, err
	}
	if opts.descriptiveLabels, err = flags.GetBool("descriptive-labels"); err != nil {
		return opts, err
	}

	return opts, nil
}

// readReport reads a report from path, or from stdin when path is "-".
func readReport(path string, stdin io.Reader) ([]byte, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path) //nolint:gosec // User-provided report path is intentional
		if err != nil {
			return nil, fmt.Errorf("failed to open report: %w", err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(io.LimitReader(r, maxReportFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	if len(data) > maxReportFileSize {
		return nil, fmt.Errorf("report exceeds %d bytes", maxReportFileSize)
	}
	return data, nil
}

// createOutputFile creates path and its parent directories.
func createOutputFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// writeReport writes rep to out in the format selected by opts.
func writeReport(out io.Writer, opts formatOptions, rep *model.AccessibilityReport) error {
	var w report.Writer
	switch {
	case opts.json:
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	case opts.markdown:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewTextWriter(out, report.WithDescriptiveLabels(opts.descriptiveLabels))
	}

	if _, err := w.Write(opts.tier, opts.url, rep); err != nil {
		return fmt.Errorf("failed to format report: %w", err)
	}
	return nil
}
