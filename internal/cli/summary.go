package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"

	"github.com/stackvity/log-analyzer/pkg/analyzer"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// PrintSummary writes the console summary for stats in the given format.
// SummaryFormatNone (or an empty format) prints nothing.
func PrintSummary(w io.Writer, format analyzer.SummaryFormat, stats *analyzer.RunStatistics) error {
	switch format {
	case analyzer.SummaryFormatNone, "":
		return nil
	case analyzer.SummaryFormatJSON:
		return printJSONSummary(w, stats)
	case analyzer.SummaryFormatText:
		return printTextSummary(w, stats)
	default:
		return fmt.Errorf("unsupported summary format %q", format)
	}
}

func printJSONSummary(w io.Writer, stats *analyzer.RunStatistics) error {
	data, err := json.MarshalIndent(analyzer.NewSummary(stats), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printTextSummary(w io.Writer, stats *analyzer.RunStatistics) error {
	summary := analyzer.NewSummary(stats)

	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("Log Analysis Summary"))
	fmt.Fprintf(w, "Files processed: %d, entries: %d, warnings: %d\n", summary.FilesProcessed, summary.TotalEntries, summary.WarningCount)

	if len(summary.LevelCounts) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No valid log entries found"))
	} else {
		rows := make([][]string, 0, len(summary.LevelCounts))
		for _, lc := range summary.LevelCounts {
			rows = append(rows, []string{lc.Level, strconv.Itoa(lc.Count), fmt.Sprintf("%.1f%%", lc.Percent)})
		}
		if err := renderTable(w, []string{"level", "count", "share"}, rows); err != nil {
			return err
		}
	}

	var failureRows [][]string
	for _, kind := range analyzer.FailureKinds {
		if n := summary.FailureCounts[string(kind)]; n > 0 {
			failureRows = append(failureRows, []string{string(kind), strconv.Itoa(n)})
		}
	}
	if len(failureRows) > 0 {
		if err := renderTable(w, []string{"failure", "count"}, failureRows); err != nil {
			return err
		}
	}

	if summary.MostCommonError != nil {
		_, err := fmt.Fprintf(w, "Most common error: %s (%d occurrences)\n", summary.MostCommonError.Message, summary.MostCommonError.Count)
		return err
	}
	return nil
}

func renderTable(w io.Writer, header []string, rows [][]string) error {
	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = h
	}
	tw := tablewriter.NewWriter(w)
	tw.Header(cells...)
	for _, row := range rows {
		if err := tw.Append(row); err != nil {
			return fmt.Errorf("failed to append summary row: %w", err)
		}
	}
	if err := tw.Render(); err != nil {
		return fmt.Errorf("failed to render summary table: %w", err)
	}
	return nil
}
