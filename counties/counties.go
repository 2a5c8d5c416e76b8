// Package counties validates reported county names against the
// configured coverage list, tolerating case, spacing, hyphenation, and
// apostrophe differences.
package counties

import "strings"

// Matcher resolves raw county names to their canonical form.
type Matcher struct {
	names []string
}

// NewMatcher creates a matcher over the configured county list. The
// list order is preserved; the first configured spelling of a county is
// its canonical form.
func NewMatcher(names []string) *Matcher {
	cleaned := make([]string, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			cleaned = append(cleaned, name)
		}
	}
	return &Matcher{names: cleaned}
}

// Names returns the configured canonical county names.
func (m *Matcher) Names() []string {
	return m.names
}

// Match reports whether raw refers to a configured county and returns
// the canonical name when it does.
func (m *Matcher) Match(raw string) (string, bool) {
	if strings.TrimSpace(raw) == "" {
		return "", false
	}
	normalized := normalize(raw)
	for _, name := range m.names {
		if normalize(name) == normalized {
			return name, true
		}
	}
	return "", false
}

// normalize lowers the name and strips the punctuation and spacing
// variations seen in field reports ("Elgeyo-Marakwet", "elgeyo
// marakwet", "Murang'a" vs "Muranga").
func normalize(name string) string {
	n := strings.ToLower(name)
	n = strings.ReplaceAll(n, "-", " ")
	n = strings.ReplaceAll(n, "_", " ")
	n = strings.ReplaceAll(n, "'", "")
	n = strings.ReplaceAll(n, "’", "")
	return strings.Join(strings.Fields(n), " ")
}
