// Package textnorm folds and orders the free-text labels that arrive from
// spreadsheets: school names, shift labels, age cohorts.
package textnorm

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	collatorMu sync.Mutex
	collator   = collate.New(language.BrazilianPortuguese)
)

// StripDiacritics removes combining marks: "MANHÃ" becomes "MANHA".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Fold trims, upper-cases and strips diacritics.
func Fold(s string) string {
	return StripDiacritics(strings.ToUpper(strings.TrimSpace(s)))
}

// EqualFold reports whether a and b are equal ignoring case, diacritics and
// surrounding whitespace.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}

// Compare orders strings with the pt-BR collation.
func Compare(a, b string) int {
	if a == b {
		return 0
	}
	collatorMu.Lock()
	defer collatorMu.Unlock()
	return collator.CompareString(a, b)
}

// LeadingInt parses the optional sign and leading digits of s, ignoring
// surrounding whitespace and any trailing text. ok is false when s has no
// leading digits.
func LeadingInt(s string) (n int, ok bool) {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	for i := 0; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n = n*10 + int(s[i]-'0')
		ok = true
	}
	if neg {
		n = -n
	}
	return n, ok
}

// IntOrZero is LeadingInt with unparseable input read as 0.
func IntOrZero(s string) int {
	n, _ := LeadingInt(s)
	return n
}
