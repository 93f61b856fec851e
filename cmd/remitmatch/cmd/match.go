package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"remittance-matching-service/cmd/remitmatch/config"
	"remittance-matching-service/internal/ledger"
	"remittance-matching-service/internal/matcher"
	"remittance-matching-service/internal/parsers"
	"remittance-matching-service/internal/remit"
	"remittance-matching-service/internal/reporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the match command
var (
	invoicesFile     string
	remittanceFile   string
	organizationID   string
	outputFormat     string
	outputFile       string
	maxConcurrency   int
	numericMinDigits int
	amountTolerance  float64
	invoiceStatuses  []string
	matchedOnly      bool
	unmatchedOnly    bool
)

// matchCmd represents the match command
var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match remittance lines against outstanding invoices",
	Long: `Match compares extracted remittance advice lines with a snapshot of
outstanding ledger invoices and links each line to the invoice it most
likely pays.

Each line is tried against three normalization passes in priority order:
exact (trimmed, uppercased), relaxed (alphanumeric characters only), and
numeric (digits only). The first pass that produces a hit wins, and the
match is scored with a confidence value that accounts for text similarity
and paid-amount agreement.

This command requires:
- An invoice snapshot file (CSV format)
- A remittance line file (CSV format)

Examples:
  # Basic matching
  remitmatch match --invoices-file invoices.csv --remittance-file remit.csv

  # JSON report written to a file
  remitmatch match -i invoices.csv -r remit.csv \
    --output-format json --output-file report.json

  # Custom concurrency and amount tolerance
  remitmatch match -i invoices.csv -r remit.csv \
    --max-concurrency 16 --amount-tolerance 0.05

  # Only report lines that need investigation
  remitmatch match -i invoices.csv -r remit.csv --unmatched-only`,

	PreRunE: validateMatchFlags,
	RunE:    runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	// Required flags
	matchCmd.Flags().StringVarP(&invoicesFile, "invoices-file", "i", "", "path to invoice snapshot CSV file (required)")
	matchCmd.Flags().StringVarP(&remittanceFile, "remittance-file", "r", "", "path to remittance line CSV file (required)")

	// Scope flags
	matchCmd.Flags().StringVar(&organizationID, "organization", "default", "organization identifier for the invoice snapshot")
	matchCmd.Flags().StringSliceVar(&invoiceStatuses, "statuses", []string{}, "invoice statuses to include (default: AUTHORISED)")

	// Output flags
	matchCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	matchCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")
	matchCmd.Flags().BoolVar(&matchedOnly, "matched-only", false, "report only matched lines")
	matchCmd.Flags().BoolVar(&unmatchedOnly, "unmatched-only", false, "report only unmatched lines")

	// Matching configuration flags
	matchCmd.Flags().IntVar(&maxConcurrency, "max-concurrency", 0, "maximum payment lines resolved concurrently (0 = default)")
	matchCmd.Flags().IntVar(&numericMinDigits, "numeric-min-digits", 0, "minimum digits for a numeric-pass key (0 = default)")
	matchCmd.Flags().Float64VarP(&amountTolerance, "amount-tolerance", "a", -1, "absolute paid-amount tolerance (negative = default)")

	// Mark required flags
	matchCmd.MarkFlagRequired("invoices-file")
	matchCmd.MarkFlagRequired("remittance-file")

	// Bind flags to viper
	viper.BindPFlag("invoices-file", matchCmd.Flags().Lookup("invoices-file"))
	viper.BindPFlag("remittance-file", matchCmd.Flags().Lookup("remittance-file"))
	viper.BindPFlag("organization", matchCmd.Flags().Lookup("organization"))
	viper.BindPFlag("statuses", matchCmd.Flags().Lookup("statuses"))
	viper.BindPFlag("output-format", matchCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", matchCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("matched-only", matchCmd.Flags().Lookup("matched-only"))
	viper.BindPFlag("unmatched-only", matchCmd.Flags().Lookup("unmatched-only"))
	viper.BindPFlag("max-concurrency", matchCmd.Flags().Lookup("max-concurrency"))
	viper.BindPFlag("numeric-min-digits", matchCmd.Flags().Lookup("numeric-min-digits"))
	viper.BindPFlag("amount-tolerance", matchCmd.Flags().Lookup("amount-tolerance"))
}

func validateMatchFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	invoicesFile = viper.GetString("invoices-file")
	remittanceFile = viper.GetString("remittance-file")
	organizationID = viper.GetString("organization")
	invoiceStatuses = viper.GetStringSlice("statuses")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	matchedOnly = viper.GetBool("matched-only")
	unmatchedOnly = viper.GetBool("unmatched-only")
	maxConcurrency = viper.GetInt("max-concurrency")
	numericMinDigits = viper.GetInt("numeric-min-digits")
	amountTolerance = viper.GetFloat64("amount-tolerance")

	// Validate required flags
	if invoicesFile == "" {
		return fmt.Errorf("invoices-file is required")
	}
	if remittanceFile == "" {
		return fmt.Errorf("remittance-file is required")
	}

	// Validate file existence
	if err := validateFileExists(invoicesFile, "invoice snapshot file"); err != nil {
		return err
	}
	if err := validateFileExists(remittanceFile, "remittance line file"); err != nil {
		return err
	}

	// Validate output format
	if !reporter.OutputFormat(outputFormat).IsValid() {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", outputFormat)
	}

	if matchedOnly && unmatchedOnly {
		return fmt.Errorf("matched-only and unmatched-only are mutually exclusive")
	}

	// Validate matching overrides
	if maxConcurrency < 0 {
		return fmt.Errorf("max-concurrency cannot be negative")
	}
	if numericMinDigits < 0 {
		return fmt.Errorf("numeric-min-digits cannot be negative")
	}

	// Validate output file directory exists if specified
	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func runMatch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting remittance matching...\n")
		fmt.Fprintf(os.Stderr, "Invoice file: %s\n", invoicesFile)
		fmt.Fprintf(os.Stderr, "Remittance file: %s\n", remittanceFile)
		fmt.Fprintf(os.Stderr, "Output format: %s\n", outputFormat)
		if outputFile != "" {
			fmt.Fprintf(os.Stderr, "Output file: %s\n", outputFile)
		}
	}

	// Parse the invoice snapshot
	invoiceParser, err := parsers.NewInvoiceParser(config.CreateInvoiceParserConfig())
	if err != nil {
		return fmt.Errorf("failed to create invoice parser: %w", err)
	}

	invoices, invoiceStats, err := invoiceParser.ParseInvoicesWithContext(ctx, invoicesFile)
	if err != nil {
		return fmt.Errorf("failed to parse invoice file: %w", err)
	}

	// Parse the remittance lines
	remittanceParser, err := parsers.NewRemittanceParser(config.CreateRemittanceParserConfig())
	if err != nil {
		return fmt.Errorf("failed to create remittance parser: %w", err)
	}

	lines, lineStats, err := remittanceParser.ParseLinesWithContext(ctx, remittanceFile)
	if err != nil {
		return fmt.Errorf("failed to parse remittance file: %w", err)
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Parsed %d invoices (%d skipped), %d remittance lines (%d skipped)\n",
			invoiceStats.ParsedRows, invoiceStats.ErrorCount+invoiceStats.SkippedRows,
			lineStats.ParsedRows, lineStats.ErrorCount+lineStats.SkippedRows)
	}

	// Assemble the matching service
	store := ledger.NewMemoryStore()
	store.Load(organizationID, invoices)

	matcherConfig := config.CreateMatcherConfig(maxConcurrency, numericMinDigits, amountTolerance)
	engine := matcher.NewMatchingEngine(matcherConfig)

	serviceConfig, err := config.CreateServiceConfig(invoiceStatuses)
	if err != nil {
		return err
	}

	service, err := remit.NewMatchingService(store, engine, serviceConfig)
	if err != nil {
		return fmt.Errorf("failed to create matching service: %w", err)
	}

	// Run the match
	report, err := service.MatchRemittance(ctx, organizationID, lines)
	if err != nil {
		return fmt.Errorf("matching failed: %w", err)
	}

	// Generate report
	reportConfig := config.CreateReportConfig(outputFormat, !unmatchedOnly, !matchedOnly)
	reportGenerator, err := reporter.NewReportGenerator(reportConfig)
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}

	// Determine output destination
	var output *os.File
	if outputFile != "" {
		output, err = os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	} else {
		output = os.Stdout
	}

	if err := reportGenerator.GenerateReport(report, output); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	// Show completion message
	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nMatching completed successfully.\n")
		fmt.Fprintf(os.Stderr, "Matched %d of %d lines (%.1f%%): %d exact, %d relaxed, %d numeric.\n",
			report.Summary.MatchedCount, report.Summary.TotalLines, report.Summary.MatchPercentage,
			report.Summary.ExactMatches, report.Summary.RelaxedMatches, report.Summary.NumericMatches)
		fmt.Fprintf(os.Stderr, "Processing time: %v\n", report.Summary.ProcessingTime)
	}

	return nil
}
