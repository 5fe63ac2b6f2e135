package domain

import (
	"math"
	"testing"
)

func TestParseMeasure(t *testing.T) {
	tests := []struct {
		name  string
		input string
		value float64
		ok    bool
	}{
		{"decimal point", "12.5", 12.5, true},
		{"decimal comma", "12,5", 12.5, true},
		{"whitespace", "  7,25 ", 7.25, true},
		{"negative", "-0,02", -0.02, true},
		{"explicit plus", "+0,021", 0.021, true},
		{"empty", "", 0, false},
		{"blank", "   ", 0, false},
		{"garbage", "abc", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := ParseMeasure(tt.input)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && math.Abs(v-tt.value) > 1e-9 {
				t.Errorf("expected %v, got %v", tt.value, v)
			}
		})
	}
}

func TestFirstDecimal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		value float64
		ok    bool
	}{
		{"plain number", "42.5", 42.5, true},
		{"number inside label", "⌀ 25,40 H7", 25.40, true},
		{"signed override", "<> +0.15 abw.", 0.15, true},
		{"negative", "tief -3,2 mm", -3.2, true},
		{"no number", "siehe Zeichnung", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := FirstDecimal(tt.input)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && math.Abs(v-tt.value) > 1e-9 {
				t.Errorf("expected %v, got %v", tt.value, v)
			}
		})
	}
}

func TestTargetString(t *testing.T) {
	tests := []struct {
		name                    string
		nominal, upper, lower   string
		expected                string
	}{
		{"band midpoint", "10", "+0,02", "-0,01", "10,0050"},
		{"symmetric band", "25", "+0,1", "-0,1", "25,0000"},
		{"empty tolerances count as zero", "12,5", "", "", "12,5000"},
		{"unparseable nominal", "abc", "+0,1", "-0,1", Placeholder},
		{"empty nominal", "", "", "", Placeholder},
		{"unparseable tolerance", "10", "oops", "", Placeholder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TargetString(tt.nominal, tt.upper, tt.lower)
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestFormatDeviation(t *testing.T) {
	if got := FormatDeviation(0.021); got != "+0,021" {
		t.Errorf("expected +0,021, got %q", got)
	}
	if got := FormatDeviation(-0.007); got != "-0,007" {
		t.Errorf("expected -0,007, got %q", got)
	}
	if got := FormatDeviation(0); got != "+0,000" {
		t.Errorf("expected +0,000, got %q", got)
	}
}
