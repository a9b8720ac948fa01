package plate

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "display form with hyphen and period",
			input:    "30A-123.45",
			expected: "30A12345",
		},
		{
			name:     "with spaces",
			input:    "30a 123 45",
			expected: "30A12345",
		},
		{
			name:     "already normalized",
			input:    "30A12345",
			expected: "30A12345",
		},
		{
			name:     "lowercase",
			input:    "30a12345",
			expected: "30A12345",
		},
		{
			name:     "with leading/trailing spaces",
			input:    "  30A-123.45  ",
			expected: "30A12345",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Normalize(tt.input)
			if result != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"30A-123.45", "30a 123 45", "30A12345", "51G-12345", ""}
	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}

func TestNormalizeSeparatorInsensitive(t *testing.T) {
	variants := []string{"30A-123.45", "30a 123 45", "30A12345"}
	want := Normalize(variants[0])
	for _, v := range variants[1:] {
		if got := Normalize(v); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", v, got, want)
		}
	}
}
