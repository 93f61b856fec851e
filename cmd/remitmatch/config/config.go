// Package config assembles component configurations for the remitmatch CLI,
// translating flag values into the typed configs each package expects.
package config

import (
	"fmt"
	"strings"

	"remittance-matching-service/internal/matcher"
	"remittance-matching-service/internal/models"
	"remittance-matching-service/internal/parsers"
	"remittance-matching-service/internal/remit"
	"remittance-matching-service/internal/reporter"

	"github.com/shopspring/decimal"
)

// CreateInvoiceParserConfig creates the default invoice parser configuration.
func CreateInvoiceParserConfig() *parsers.InvoiceParserConfig {
	return parsers.DefaultInvoiceParserConfig()
}

// CreateRemittanceParserConfig creates the default remittance parser
// configuration.
func CreateRemittanceParserConfig() *parsers.RemittanceParserConfig {
	return parsers.DefaultRemittanceParserConfig()
}

// CreateMatcherConfig creates a matcher configuration with CLI overrides
// applied.
func CreateMatcherConfig(maxConcurrency, numericMinDigits int, amountTolerance float64) *matcher.Config {
	config := matcher.DefaultConfig()

	if maxConcurrency > 0 {
		config.MaxConcurrentLines = maxConcurrency
	}
	if numericMinDigits > 0 {
		config.NumericKeyMinDigits = numericMinDigits
	}
	if amountTolerance >= 0 {
		config.AmountTolerance = decimal.NewFromFloat(amountTolerance)
	}

	return config
}

// CreateServiceConfig creates a matching service configuration from the
// requested invoice statuses.
func CreateServiceConfig(statuses []string) (*remit.Config, error) {
	config := remit.DefaultConfig()

	if len(statuses) > 0 {
		parsed := make([]models.InvoiceStatus, 0, len(statuses))
		for _, s := range statuses {
			status := models.InvoiceStatus(strings.ToUpper(strings.TrimSpace(s)))
			if !status.IsValid() {
				return nil, fmt.Errorf("invalid invoice status %q", s)
			}
			parsed = append(parsed, status)
		}
		config.InvoiceStatuses = parsed
	}

	return config, nil
}

// CreateReportConfig creates a report configuration for the requested output
// format.
func CreateReportConfig(outputFormat string, includeMatched, includeUnmatched bool) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()
	config.Format = reporter.OutputFormat(outputFormat)
	config.IncludeMatchedLines = includeMatched
	config.IncludeUnmatchedLines = includeUnmatched
	return config
}
