// Package models defines the closed data model for remittance matching:
// invoices from the ledger, payment lines extracted from remittance advice
// documents, and the match results and summary produced by one matching run.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the lifecycle state of a ledger invoice.
type InvoiceStatus string

const (
	// InvoiceStatusDraft is an invoice not yet issued.
	InvoiceStatusDraft InvoiceStatus = "DRAFT"
	// InvoiceStatusAuthorised is an issued, outstanding invoice. Matching
	// runs are normally restricted to this status.
	InvoiceStatusAuthorised InvoiceStatus = "AUTHORISED"
	// InvoiceStatusPaid is a fully settled invoice.
	InvoiceStatusPaid InvoiceStatus = "PAID"
	// InvoiceStatusVoided is a cancelled invoice.
	InvoiceStatusVoided InvoiceStatus = "VOIDED"
)

// String returns the string representation of InvoiceStatus.
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsValid checks if the invoice status is a known value.
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusAuthorised, InvoiceStatusPaid, InvoiceStatusVoided:
		return true
	default:
		return false
	}
}

// Invoice represents one ledger invoice record. Total is optional: ledgers
// synced from external accounting systems do not always carry an amount, and
// a missing total is treated as an amount mismatch when scoring confidence.
type Invoice struct {
	InvoiceNumber string              `json:"invoice_number"`
	Total         decimal.NullDecimal `json:"total"`
	Status        InvoiceStatus       `json:"status"`
}

// NewInvoice creates an Invoice with a known total.
func NewInvoice(number string, total decimal.Decimal, status InvoiceStatus) *Invoice {
	return &Invoice{
		InvoiceNumber: number,
		Total:         decimal.NullDecimal{Decimal: total, Valid: true},
		Status:        status,
	}
}

// Validate performs basic validation on the Invoice.
func (i *Invoice) Validate() error {
	if strings.TrimSpace(i.InvoiceNumber) == "" {
		return fmt.Errorf("invoice number cannot be empty")
	}

	if !i.Status.IsValid() {
		return fmt.Errorf("invalid invoice status: %s", i.Status)
	}

	return nil
}

// String returns a string representation of the Invoice.
func (i *Invoice) String() string {
	total := "unknown"
	if i.Total.Valid {
		total = i.Total.Decimal.String()
	}
	return fmt.Sprintf("Invoice{Number: %s, Total: %s, Status: %s}", i.InvoiceNumber, total, i.Status)
}

// PaymentLine represents one line item extracted from a remittance advice
// document: the free-text invoice reference and the amount paid against it.
type PaymentLine struct {
	RawInvoiceText string          `json:"raw_invoice_text"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
}

// NewPaymentLine creates a new PaymentLine instance.
func NewPaymentLine(rawText string, paidAmount decimal.Decimal) *PaymentLine {
	return &PaymentLine{
		RawInvoiceText: rawText,
		PaidAmount:     paidAmount,
	}
}

// Validate performs basic validation on the PaymentLine.
func (p *PaymentLine) Validate() error {
	if strings.TrimSpace(p.RawInvoiceText) == "" {
		return fmt.Errorf("payment line invoice text cannot be empty")
	}

	if p.PaidAmount.IsNegative() {
		return fmt.Errorf("paid amount cannot be negative: %s", p.PaidAmount)
	}

	return nil
}

// String returns a string representation of the PaymentLine.
func (p *PaymentLine) String() string {
	return fmt.Sprintf("PaymentLine{Text: %q, Paid: %s}", p.RawInvoiceText, p.PaidAmount.String())
}

// MarshalJSON implements custom JSON marshaling for PaymentLine so the
// amount round-trips as an exact decimal string.
func (p *PaymentLine) MarshalJSON() ([]byte, error) {
	type Alias PaymentLine
	return json.Marshal(&struct {
		PaidAmount string `json:"paid_amount"`
		*Alias
	}{
		PaidAmount: p.PaidAmount.String(),
		Alias:      (*Alias)(p),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for PaymentLine.
func (p *PaymentLine) UnmarshalJSON(data []byte) error {
	type Alias PaymentLine
	aux := &struct {
		PaidAmount string `json:"paid_amount"`
		*Alias
	}{
		Alias: (*Alias)(p),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	p.PaidAmount, err = decimal.NewFromString(aux.PaidAmount)
	if err != nil {
		return fmt.Errorf("invalid paid amount format: %w", err)
	}

	return nil
}

// NormalizationPass identifies which canonicalization strategy produced a
// match. The enumeration is fixed and totally ordered by priority: Exact
// outranks Relaxed, which outranks Numeric.
type NormalizationPass int

const (
	// PassExact matches after trimming and uppercasing only.
	PassExact NormalizationPass = iota
	// PassRelaxed matches after stripping all non-alphanumeric characters.
	PassRelaxed
	// PassNumeric matches on the concatenated digits alone.
	PassNumeric
	// PassNone marks an unmatched payment line.
	PassNone
)

// String returns the string representation of NormalizationPass.
func (p NormalizationPass) String() string {
	switch p {
	case PassExact:
		return "exact"
	case PassRelaxed:
		return "relaxed"
	case PassNumeric:
		return "numeric"
	case PassNone:
		return "none"
	default:
		return "unknown"
	}
}

// IsMatch reports whether the pass denotes an actual match.
func (p NormalizationPass) IsMatch() bool {
	return p == PassExact || p == PassRelaxed || p == PassNumeric
}

// OutranksOrEquals reports whether p has priority at least that of other.
// Lower enum values carry higher priority.
func (p NormalizationPass) OutranksOrEquals(other NormalizationPass) bool {
	return p <= other
}

// MarshalJSON encodes the pass as its lowercase name; PassNone becomes null.
func (p NormalizationPass) MarshalJSON() ([]byte, error) {
	if p == PassNone {
		return []byte("null"), nil
	}
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes a pass name; null or empty decodes to PassNone.
func (p *NormalizationPass) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = PassNone
		return nil
	}

	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}

	switch name {
	case "exact":
		*p = PassExact
	case "relaxed":
		*p = PassRelaxed
	case "numeric":
		*p = PassNumeric
	case "none", "":
		*p = PassNone
	default:
		return fmt.Errorf("invalid normalization pass: %q", name)
	}

	return nil
}

// MatchResult is the outcome for a single payment line. Exactly one result
// is produced per input line, in input order. Pass is PassNone if and only
// if MatchedInvoice is empty; Confidence is meaningful only for matched
// results and is zero otherwise.
type MatchResult struct {
	LineNumber     int               `json:"line_number"`
	PaymentRawText string            `json:"payment_raw_text"`
	MatchedInvoice string            `json:"matched_invoice,omitempty"`
	Pass           NormalizationPass `json:"pass"`
	Confidence     float64           `json:"confidence"`
}

// Matched reports whether the payment line was matched to an invoice.
func (r *MatchResult) Matched() bool {
	return r.MatchedInvoice != ""
}

// Validate checks the internal consistency of the result.
func (r *MatchResult) Validate() error {
	if r.Matched() != r.Pass.IsMatch() {
		return fmt.Errorf("pass %s inconsistent with matched invoice %q", r.Pass, r.MatchedInvoice)
	}

	if r.Confidence < 0.0 || r.Confidence > 1.0 {
		return fmt.Errorf("confidence out of range: %f", r.Confidence)
	}

	return nil
}

// String returns a string representation of the MatchResult.
func (r *MatchResult) String() string {
	if !r.Matched() {
		return fmt.Sprintf("MatchResult{Line: %d, Text: %q, Unmatched}", r.LineNumber, r.PaymentRawText)
	}
	return fmt.Sprintf("MatchResult{Line: %d, Text: %q, Invoice: %s, Pass: %s, Confidence: %.3f}",
		r.LineNumber, r.PaymentRawText, r.MatchedInvoice, r.Pass, r.Confidence)
}

// MatchSummary aggregates statistics for one matching run. It is derived
// entirely from the result list and recomputed per run.
type MatchSummary struct {
	TotalLines      int           `json:"total_lines"`
	MatchedCount    int           `json:"matched_count"`
	UnmatchedCount  int           `json:"unmatched_count"`
	MatchPercentage float64       `json:"match_percentage"`
	ExactMatches    int           `json:"exact_matches"`
	RelaxedMatches  int           `json:"relaxed_matches"`
	NumericMatches  int           `json:"numeric_matches"`
	ProcessingTime  time.Duration `json:"processing_time"`
}

// BuildMatchSummary derives the run summary from an ordered result list.
func BuildMatchSummary(results []*MatchResult, elapsed time.Duration) *MatchSummary {
	summary := &MatchSummary{
		TotalLines:     len(results),
		ProcessingTime: elapsed,
	}

	for _, r := range results {
		switch r.Pass {
		case PassExact:
			summary.ExactMatches++
		case PassRelaxed:
			summary.RelaxedMatches++
		case PassNumeric:
			summary.NumericMatches++
		}

		if r.Matched() {
			summary.MatchedCount++
		} else {
			summary.UnmatchedCount++
		}
	}

	if summary.TotalLines > 0 {
		summary.MatchPercentage = float64(summary.MatchedCount) / float64(summary.TotalLines) * 100
	}

	return summary
}
