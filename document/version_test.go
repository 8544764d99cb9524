package document

import (
	"testing"
)

// TestParseVersion tests version parsing
func TestParseVersion(t *testing.T) {
	tests := []struct {
		input    string
		expected Version
		wantErr  bool
	}{
		{"1.4", Version{1, 4}, false},
		{"2.0", Version{2, 0}, false},
		{" 1.7 ", Version{1, 7}, false},
		{"17", Version{}, true},
		{"a.b", Version{}, true},
		{"1.", Version{}, true},
		{"-1.2", Version{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseVersion(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

// TestVersionLess tests version ordering
func TestVersionLess(t *testing.T) {
	tests := []struct {
		a, b     Version
		expected bool
	}{
		{Version{1, 4}, Version{1, 7}, true},
		{Version{1, 7}, Version{2, 0}, true},
		{Version{2, 0}, Version{1, 7}, false},
		{Version{1, 7}, Version{1, 7}, false},
	}

	for _, tt := range tests {
		if got := tt.a.Less(tt.b); got != tt.expected {
			t.Errorf("%v.Less(%v) = %v, want %v", tt.a, tt.b, got, tt.expected)
		}
	}
	if MaxSupported.String() != "2.0" {
		t.Errorf("expected 2.0, got %s", MaxSupported)
	}
}
