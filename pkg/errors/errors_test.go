package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestErrorBasics(t *testing.T) {
	tests := []struct {
		name       string
		category   Category
		code       Code
		message    string
		cause      error
		expectCode int
	}{
		{
			name:       "file error",
			category:   CategoryFile,
			code:       CodeFileNotFound,
			message:    "file not found",
			cause:      stderrors.New("no such file"),
			expectCode: 2,
		},
		{
			name:       "parse error",
			category:   CategoryParse,
			code:       CodeInvalidFormat,
			message:    "invalid format",
			cause:      nil,
			expectCode: 3,
		},
		{
			name:       "validation error",
			category:   CategoryValidation,
			code:       CodeMissingField,
			message:    "missing field",
			cause:      nil,
			expectCode: 3,
		},
		{
			name:       "configuration error",
			category:   CategoryConfiguration,
			code:       CodeInvalidConfig,
			message:    "invalid config",
			cause:      stderrors.New("missing setting"),
			expectCode: 4,
		},
		{
			name:       "matching error",
			category:   CategoryMatching,
			code:       CodeLedgerUnavailable,
			message:    "ledger unavailable",
			cause:      stderrors.New("connection refused"),
			expectCode: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err *Error
			if tt.cause != nil {
				err = Wrap(tt.cause, tt.category, tt.code, tt.message)
			} else {
				err = New(tt.category, tt.code, tt.message)
			}

			if err.Category != tt.category {
				t.Errorf("expected category %s, got %s", tt.category, err.Category)
			}
			if err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, err.Code)
			}
			if err.Error() != tt.message {
				t.Errorf("expected error string %s, got %s", tt.message, err.Error())
			}
			if err.ExitCode() != tt.expectCode {
				t.Errorf("expected exit code %d, got %d", tt.expectCode, err.ExitCode())
			}

			if tt.cause != nil && !stderrors.Is(err, tt.cause) {
				t.Errorf("expected error chain to contain %v", tt.cause)
			}
		})
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, CategoryFile, CodeFileNotFound, "x") != nil {
		t.Error("expected nil when wrapping nil")
	}
}

func TestWithSuggestionAndContext(t *testing.T) {
	err := New(CategoryValidation, CodeInvalidData, "bad payment line").
		WithSuggestion("check the remittance file").
		WithContext("line_number", 7)

	if !strings.Contains(err.Error(), "suggestion: check the remittance file") {
		t.Errorf("suggestion missing from error string: %s", err.Error())
	}
	if err.Context["line_number"] != 7 {
		t.Errorf("expected context line_number 7, got %v", err.Context["line_number"])
	}
}

func TestFileError(t *testing.T) {
	err := FileError(CodeFileNotFound, "/tmp/x.csv", stderrors.New("no such file"))

	if err.Category != CategoryFile {
		t.Errorf("expected file category, got %s", err.Category)
	}
	if err.Context["file_path"] != "/tmp/x.csv" {
		t.Errorf("expected path context, got %v", err.Context["file_path"])
	}
}

func TestParseError(t *testing.T) {
	err := ParseError(CodeMissingColumn, "invoices.csv", 1, "invoice_number", "", nil)

	if err.Category != CategoryParse {
		t.Errorf("expected parse category, got %s", err.Category)
	}
	if err.Context["file"] != "invoices.csv" {
		t.Errorf("expected file context, got %v", err.Context["file"])
	}
}

func TestIsAndAs(t *testing.T) {
	base := New(CategoryMatching, CodeProcessingError, "boom")
	wrapped := Wrap(base, CategoryMatching, CodeProcessingError, "outer")

	if !Is(wrapped) {
		t.Error("expected Is to detect taxonomy error")
	}

	extracted, ok := As(wrapped)
	if !ok {
		t.Fatal("expected As to extract taxonomy error")
	}
	if extracted.Message != "outer" {
		t.Errorf("expected outermost error, got %s", extracted.Message)
	}

	if Is(stderrors.New("plain")) {
		t.Error("expected Is to reject plain error")
	}
	if _, ok := As(stderrors.New("plain")); ok {
		t.Error("expected As to reject plain error")
	}
}

func TestWrapIfNeeded(t *testing.T) {
	original := New(CategoryParse, CodeMissingColumn, "missing column")
	kept := WrapIfNeeded(original, CategoryParse, CodeInvalidFormat, "outer")
	if kept.Code != CodeMissingColumn {
		t.Errorf("expected original code preserved, got %s", kept.Code)
	}

	wrapped := WrapIfNeeded(stderrors.New("plain"), CategoryParse, CodeInvalidFormat, "outer")
	if wrapped.Code != CodeInvalidFormat {
		t.Errorf("expected plain error wrapped, got %s", wrapped.Code)
	}

	if WrapIfNeeded(nil, CategoryParse, CodeInvalidFormat, "outer") != nil {
		t.Error("expected nil for nil input")
	}
}
