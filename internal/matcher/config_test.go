package matcher

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if err := config.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	if config.NumericKeyMinDigits != 3 {
		t.Errorf("numeric floor = %d, want 3", config.NumericKeyMinDigits)
	}
	if config.MaxConcurrentLines != 8 {
		t.Errorf("max concurrent lines = %d, want 8", config.MaxConcurrentLines)
	}
	if !config.AmountTolerance.Equal(decimal.NewFromFloat(0.01)) {
		t.Errorf("amount tolerance = %s, want 0.01", config.AmountTolerance)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		expectErr bool
	}{
		{"valid default", func(c *Config) {}, false},
		{"zero numeric floor", func(c *Config) { c.NumericKeyMinDigits = 0 }, true},
		{"zero concurrency", func(c *Config) { c.MaxConcurrentLines = 0 }, true},
		{"negative concurrency", func(c *Config) { c.MaxConcurrentLines = -1 }, true},
		{"confidence above one", func(c *Config) { c.ExactBaseConfidence = 1.5 }, true},
		{"negative confidence", func(c *Config) { c.NumericBaseConfidence = -0.1 }, true},
		{"negative tolerance", func(c *Config) { c.AmountTolerance = decimal.NewFromFloat(-0.01) }, true},
		{"zero tolerance allowed", func(c *Config) { c.AmountTolerance = decimal.Zero }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)

			err := config.Validate()
			if tt.expectErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	original := DefaultConfig()
	clone := original.Clone()

	clone.NumericKeyMinDigits = 7
	if original.NumericKeyMinDigits == 7 {
		t.Error("mutating clone changed original")
	}

	var nilConfig *Config
	if nilConfig.Clone() != nil {
		t.Error("expected nil clone of nil config")
	}
}
