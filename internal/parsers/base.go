// Package parsers provides CSV ingestion for the remittance matcher: a
// ledger parser for invoice snapshots and a remittance parser for extracted
// payment lines. The remittance parser stands in for the document-extraction
// collaborator, which ultimately produces the same (invoice text, paid
// amount) pairs.
//
// Both parsers tolerate real-world header variation through configurable
// column aliases, report per-file parse statistics, and skip malformed rows
// rather than aborting the whole file.
package parsers

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"remittance-matching-service/pkg/errors"
)

// ParseStats summarizes one file ingestion.
type ParseStats struct {
	TotalRows   int `json:"total_rows"`
	ParsedRows  int `json:"parsed_rows"`
	SkippedRows int `json:"skipped_rows"`
	ErrorCount  int `json:"error_count"`
}

// columnMap resolves configured column names (and their aliases) to indexes
// in the CSV header row.
type columnMap map[string]int

// normalizeHeader canonicalizes a header cell for comparison.
func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// resolveColumns maps each wanted canonical column name to its index in the
// header, consulting the alias table for alternate spellings.
func resolveColumns(header []string, wanted []string, aliases map[string]string) columnMap {
	canonical := make(map[string]string, len(aliases))
	for alias, target := range aliases {
		canonical[normalizeHeader(alias)] = target
	}

	cols := make(columnMap)
	for i, cell := range header {
		name := normalizeHeader(cell)
		if target, ok := canonical[name]; ok {
			name = target
		}
		for _, want := range wanted {
			if name == normalizeHeader(want) {
				if _, taken := cols[want]; !taken {
					cols[want] = i
				}
			}
		}
	}

	return cols
}

// openCSV opens a file and wraps it in a CSV reader with the given
// delimiter.
func openCSV(path string, delimiter rune) (*os.File, *csv.Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, nil, errors.FileError(errors.CodeFilePermission, path, err)
		}
		return nil, nil, errors.FileError("", path, err)
	}

	reader := csv.NewReader(file)
	reader.Comma = delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	return file, reader, nil
}

// forEachRow streams the data rows of a CSV file, honoring context
// cancellation between rows. When hasHeader is set the first record is
// handed to onHeader instead of fn. The row callback receives the 1-based
// line number (counting the header) and the raw record.
func forEachRow(ctx context.Context, reader *csv.Reader, hasHeader bool, onHeader func(header []string) error, fn func(line int, record []string) error) error {
	line := 0

	if hasHeader {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read header: %w", err)
		}
		line = 1
		if onHeader != nil {
			if err := onHeader(record); err != nil {
				return err
			}
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read row: %w", err)
		}

		line++
		if err := fn(line, record); err != nil {
			return err
		}
	}
}

// fieldAt safely extracts and trims a field from a record.
func fieldAt(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// isBlankRecord reports whether every field of a record is empty.
func isBlankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
