package internal

import "testing"

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Geography", "Geography"},
		{"World War II", "World_War_II"},
		{"ябълка и круша", "ябълка_и_круша"},
		{"a/b\\c", "a_b_c"},
		{"  ", "flashcards"},
		{"", "flashcards"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SanitizeFilename(tt.input); got != tt.expected {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		n        int
		expected string
	}{
		{"short", "Paris", 10, "Paris"},
		{"exact", "Paris", 5, "Paris"},
		{"cut", "Paris is the capital", 5, "Paris..."},
		{"multibyte", "ябълка", 3, "ябъ..."},
		{"zero limit", "Paris", 0, "Paris"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.input, tt.n); got != tt.expected {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.expected)
			}
		})
	}
}
