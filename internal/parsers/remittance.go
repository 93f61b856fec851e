package parsers

import (
	"context"
	"fmt"
	"strings"

	"remittance-matching-service/internal/models"
	"remittance-matching-service/pkg/errors"
	"remittance-matching-service/pkg/logger"

	"github.com/shopspring/decimal"
)

// RemittanceParserConfig configures ingestion of an extracted remittance
// line CSV.
type RemittanceParserConfig struct {
	InvoiceTextColumn string
	PaidAmountColumn  string

	HasHeader     bool
	Delimiter     rune
	ColumnAliases map[string]string
}

// DefaultRemittanceParserConfig returns the standard remittance CSV layout.
func DefaultRemittanceParserConfig() *RemittanceParserConfig {
	return &RemittanceParserConfig{
		InvoiceTextColumn: "invoice_text",
		PaidAmountColumn:  "paid_amount",
		HasHeader:         true,
		Delimiter:         ',',
		ColumnAliases: map[string]string{
			"raw_invoice_text": "invoice_text",
			"invoice":          "invoice_text",
			"reference":        "invoice_text",
			"description":      "invoice_text",
			"amount":           "paid_amount",
			"paid":             "paid_amount",
			"payment_amount":   "paid_amount",
		},
	}
}

// Validate checks the parser configuration.
func (c *RemittanceParserConfig) Validate() error {
	if strings.TrimSpace(c.InvoiceTextColumn) == "" {
		return fmt.Errorf("invoice text column is required")
	}
	if strings.TrimSpace(c.PaidAmountColumn) == "" {
		return fmt.Errorf("paid amount column is required")
	}
	if c.Delimiter == 0 {
		return fmt.Errorf("delimiter cannot be zero")
	}
	return nil
}

// RemittanceParser reads extracted payment lines from CSV files.
type RemittanceParser struct {
	config *RemittanceParserConfig
	log    logger.Logger
}

// NewRemittanceParser creates a remittance parser with the given
// configuration.
func NewRemittanceParser(config *RemittanceParserConfig) (*RemittanceParser, error) {
	if config == nil {
		config = DefaultRemittanceParserConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "remittance_parser", config, err)
	}

	return &RemittanceParser{
		config: config,
		log:    logger.Global().WithComponent("remittance_parser"),
	}, nil
}

// ParseLines reads every payment line from the file, preserving row order.
func (p *RemittanceParser) ParseLines(path string) ([]*models.PaymentLine, *ParseStats, error) {
	return p.ParseLinesWithContext(context.Background(), path)
}

// ParseLinesWithContext reads payment lines, honoring cancellation between
// rows. Rows with an unparseable amount are counted and skipped.
func (p *RemittanceParser) ParseLinesWithContext(ctx context.Context, path string) ([]*models.PaymentLine, *ParseStats, error) {
	file, reader, err := openCSV(path, p.config.Delimiter)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	stats := &ParseStats{}
	var lines []*models.PaymentLine
	var cols columnMap

	if !p.config.HasHeader {
		cols = columnMap{
			p.config.InvoiceTextColumn: 0,
			p.config.PaidAmountColumn:  1,
		}
	}

	onHeader := func(header []string) error {
		wanted := []string{p.config.InvoiceTextColumn, p.config.PaidAmountColumn}
		cols = resolveColumns(header, wanted, p.config.ColumnAliases)
		for _, want := range wanted {
			if _, ok := cols[want]; !ok {
				return errors.ParseError(errors.CodeMissingColumn, path, 1, want, "", nil)
			}
		}
		return nil
	}

	rowErr := forEachRow(ctx, reader, p.config.HasHeader, onHeader, func(line int, record []string) error {
		stats.TotalRows++

		if isBlankRecord(record) {
			stats.SkippedRows++
			return nil
		}

		pl, err := p.parseRecord(record, cols)
		if err != nil {
			p.log.WithError(err).WithField("line", line).Warn("skipping invalid remittance row")
			stats.ErrorCount++
			return nil
		}

		lines = append(lines, pl)
		stats.ParsedRows++
		return nil
	})
	if rowErr != nil {
		return lines, stats, errors.WrapIfNeeded(rowErr, errors.CategoryParse, errors.CodeInvalidFormat,
			fmt.Sprintf("failed to parse remittance file %s", path))
	}

	p.log.WithFields(logger.Fields{
		"file":   path,
		"parsed": stats.ParsedRows,
		"errors": stats.ErrorCount,
	}).Debug("remittance file parsed")

	return lines, stats, nil
}

func (p *RemittanceParser) parseRecord(record []string, cols columnMap) (*models.PaymentLine, error) {
	text := fieldAt(record, cols[p.config.InvoiceTextColumn])

	rawAmount := fieldAt(record, cols[p.config.PaidAmountColumn])
	if rawAmount == "" {
		return nil, fmt.Errorf("empty paid amount")
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(rawAmount, ",", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid paid amount %q: %w", rawAmount, err)
	}

	line := models.NewPaymentLine(text, amount)
	if err := line.Validate(); err != nil {
		return nil, err
	}

	return line, nil
}
