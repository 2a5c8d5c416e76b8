package counties

import (
	"reflect"
	"testing"
)

func testMatcher() *Matcher {
	return NewMatcher([]string{
		"Turkana",
		"West Pokot",
		"Baringo",
		"Elgeyo Marakwet",
		"Murang'a",
	})
}

func TestMatcherMatch(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expectMatch bool
		expected    string
	}{
		{
			name:        "exact canonical name",
			input:       "Turkana",
			expectMatch: true,
			expected:    "Turkana",
		},
		{
			name:        "lower case",
			input:       "turkana",
			expectMatch: true,
			expected:    "Turkana",
		},
		{
			name:        "upper case with spaces",
			input:       "  WEST POKOT ",
			expectMatch: true,
			expected:    "West Pokot",
		},
		{
			name:        "hyphen instead of space",
			input:       "Elgeyo-Marakwet",
			expectMatch: true,
			expected:    "Elgeyo Marakwet",
		},
		{
			name:        "underscore instead of space",
			input:       "west_pokot",
			expectMatch: true,
			expected:    "West Pokot",
		},
		{
			name:        "missing apostrophe",
			input:       "muranga",
			expectMatch: true,
			expected:    "Murang'a",
		},
		{
			name:        "collapsed double spaces",
			input:       "elgeyo   marakwet",
			expectMatch: true,
			expected:    "Elgeyo Marakwet",
		},
		{
			name:        "unknown county",
			input:       "Nairobi",
			expectMatch: false,
		},
		{
			name:        "partial name does not match",
			input:       "Pokot",
			expectMatch: false,
		},
		{
			name:        "empty input",
			input:       "",
			expectMatch: false,
		},
		{
			name:        "whitespace only",
			input:       "   ",
			expectMatch: false,
		},
	}

	matcher := testMatcher()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := matcher.Match(tt.input)
			if ok != tt.expectMatch {
				t.Errorf("Match(%q) ok = %v, want %v", tt.input, ok, tt.expectMatch)
			}
			if ok && got != tt.expected {
				t.Errorf("Match(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestMatcherNames(t *testing.T) {
	matcher := NewMatcher([]string{"Turkana", "  ", "Baringo", ""})
	expected := []string{"Turkana", "Baringo"}
	if got := matcher.Names(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Names() = %v, want %v", got, expected)
	}
}
