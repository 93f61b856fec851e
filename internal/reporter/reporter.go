// Package reporter renders remittance matching reports.
//
// Reports are generated from a completed matching run and written to any
// io.Writer in one of three formats:
//   - Console: human-readable summary for terminal display
//   - JSON: structured output for programmatic consumption
//   - CSV: per-line records for spreadsheet applications
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"remittance-matching-service/internal/models"
	"remittance-matching-service/internal/remit"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// Detail level options
	IncludeMatchedLines   bool `json:"include_matched_lines"`
	IncludeUnmatchedLines bool `json:"include_unmatched_lines"`
	IncludeSummary        bool `json:"include_summary"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:                FormatConsole,
		IncludeMatchedLines:   true,
		IncludeUnmatchedLines: true,
		IncludeSummary:        true,
		CSVDelimiter:          ',',
		CSVHeaders:            true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	if c.CSVDelimiter == 0 {
		return fmt.Errorf("csv delimiter cannot be zero")
	}
	return nil
}

// ReportGenerator generates matching reports in various formats
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{config: config}, nil
}

// GenerateReport renders the report to the provided writer using the
// configured format.
func (rg *ReportGenerator) GenerateReport(report *remit.MatchReport, writer io.Writer) error {
	if report == nil {
		return fmt.Errorf("match report cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(report, writer)
	case FormatJSON:
		return rg.generateJSONReport(report, writer)
	case FormatCSV:
		return rg.generateCSVReport(report, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// generateConsoleReport generates a human-readable console report
func (rg *ReportGenerator) generateConsoleReport(report *remit.MatchReport, writer io.Writer) error {
	fmt.Fprintf(writer, "REMITTANCE MATCHING REPORT\n")
	if report.OrganizationID != "" {
		fmt.Fprintf(writer, "Organization: %s\n", report.OrganizationID)
	}
	fmt.Fprintf(writer, "Generated: %s\n\n", report.ProcessedAt.Format(time.RFC3339))

	if rg.config.IncludeSummary && report.Summary != nil {
		fmt.Fprintf(writer, "=== SUMMARY ===\n")
		rg.printSummaryTable(report.Summary, writer)
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeMatchedLines {
		matched := filterResults(report.Results, true)
		if len(matched) > 0 {
			fmt.Fprintf(writer, "=== MATCHED LINES ===\n")
			rg.printResultTable(matched, writer)
			fmt.Fprintf(writer, "\n")
		}
	}

	if rg.config.IncludeUnmatchedLines {
		unmatched := filterResults(report.Results, false)
		if len(unmatched) > 0 {
			fmt.Fprintf(writer, "=== UNMATCHED LINES ===\n")
			for _, r := range unmatched {
				fmt.Fprintf(writer, "  line %d: %q\n", r.LineNumber, r.PaymentRawText)
			}
			fmt.Fprintf(writer, "\n")
		}
	}

	return nil
}

func (rg *ReportGenerator) printSummaryTable(summary *models.MatchSummary, writer io.Writer) {
	fmt.Fprintf(writer, "%-25s %d\n", "Total Lines:", summary.TotalLines)
	fmt.Fprintf(writer, "%-25s %d\n", "Matched:", summary.MatchedCount)
	fmt.Fprintf(writer, "%-25s %d\n", "Unmatched:", summary.UnmatchedCount)
	fmt.Fprintf(writer, "%-25s %.1f%%\n", "Match Rate:", summary.MatchPercentage)
	fmt.Fprintf(writer, "%-25s %d\n", "Exact Matches:", summary.ExactMatches)
	fmt.Fprintf(writer, "%-25s %d\n", "Relaxed Matches:", summary.RelaxedMatches)
	fmt.Fprintf(writer, "%-25s %d\n", "Numeric Matches:", summary.NumericMatches)
	fmt.Fprintf(writer, "%-25s %v\n", "Processing Time:", summary.ProcessingTime)
}

func (rg *ReportGenerator) printResultTable(results []*models.MatchResult, writer io.Writer) {
	fmt.Fprintf(writer, "%-6s %-30s %-30s %-8s %-10s\n", "Line", "Payment Text", "Matched Invoice", "Pass", "Confidence")
	fmt.Fprintf(writer, "%-6s %-30s %-30s %-8s %-10s\n", "----", "------------", "---------------", "----", "----------")
	for _, r := range results {
		fmt.Fprintf(writer, "%-6d %-30s %-30s %-8s %-10s\n",
			r.LineNumber,
			truncate(r.PaymentRawText, 30),
			truncate(r.MatchedInvoice, 30),
			r.Pass.String(),
			formatConfidence(r))
	}
}

// generateJSONReport generates a structured JSON report
func (rg *ReportGenerator) generateJSONReport(report *remit.MatchReport, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

// generateCSVReport generates a CSV report with one record per payment line
func (rg *ReportGenerator) generateCSVReport(report *remit.MatchReport, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	defer csvWriter.Flush()

	if rg.config.CSVHeaders {
		headers := []string{"Line", "Payment_Text", "Matched_Invoice", "Pass", "Confidence"}
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, r := range report.Results {
		if r.Matched() && !rg.config.IncludeMatchedLines {
			continue
		}
		if !r.Matched() && !rg.config.IncludeUnmatchedLines {
			continue
		}

		record := []string{
			strconv.Itoa(r.LineNumber),
			r.PaymentRawText,
			r.MatchedInvoice,
			r.Pass.String(),
			formatConfidence(r),
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write result record: %w", err)
		}
	}

	return csvWriter.Error()
}

// formatConfidence renders confidence for matched lines and leaves it empty
// for unmatched ones.
func formatConfidence(r *models.MatchResult) string {
	if !r.Matched() {
		return ""
	}
	return fmt.Sprintf("%.2f", r.Confidence)
}

func filterResults(results []*models.MatchResult, matched bool) []*models.MatchResult {
	var out []*models.MatchResult
	for _, r := range results {
		if r.Matched() == matched {
			out = append(out, r)
		}
	}
	return out
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
