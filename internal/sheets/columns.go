package sheets

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// FindColumn returns the index of the first header cell matching any of
// names, compared case-insensitively after trimming. With partial set a
// header containing a name also matches. fallback is returned when nothing
// matches.
func FindColumn(header []string, names []string, fallback int, partial bool) int {
	if len(header) == 0 {
		return fallback
	}
	for i, h := range header {
		cell := strings.ToLower(strings.TrimSpace(h))
		for _, name := range names {
			n := strings.ToLower(name)
			if cell == n || (partial && strings.Contains(cell, n)) {
				return i
			}
		}
	}
	return fallback
}

// Header indexes header cells by name, ignoring '#' markers.
type Header struct {
	names []string
	index map[string]int
}

func NewHeader(row []string) *Header {
	h := &Header{index: make(map[string]int, len(row)*2)}
	for i, cell := range row {
		clean := strings.TrimSpace(strings.Replace(cell, "#", "", 1))
		raw := strings.TrimSpace(cell)
		h.names = append(h.names, clean)
		h.index[clean] = i
		h.index[raw] = i
	}
	return h
}

// Lookup matches name exactly, then case-insensitively.
func (h *Header) Lookup(name string) (int, bool) {
	if i, ok := h.index[name]; ok {
		return i, true
	}
	lower := strings.ToLower(name)
	for i, n := range h.names {
		if strings.ToLower(n) == lower {
			return i, true
		}
	}
	return -1, false
}

// Containing returns the first header whose lower-cased name contains any
// of the fragments.
func (h *Header) Containing(fragments ...string) (string, int, bool) {
	for i, n := range h.names {
		lower := strings.ToLower(n)
		for _, f := range fragments {
			if strings.Contains(lower, f) {
				return n, i, true
			}
		}
	}
	return "", -1, false
}

// Cell returns row[i] or "" when the row is short or i is negative.
func Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// ColumnLetter converts a zero-based column index to its A1 letters.
func ColumnLetter(index int) string {
	letters := ""
	for index >= 0 {
		letters = string(rune('A'+index%26)) + letters
		index = index/26 - 1
	}
	return letters
}

// ColumnIndex converts A1 column letters back to a zero-based index.
func ColumnIndex(letters string) (int, error) {
	if letters == "" {
		return -1, fmt.Errorf("empty column reference")
	}
	n := 0
	for _, r := range strings.ToUpper(letters) {
		if r < 'A' || r > 'Z' {
			return -1, fmt.Errorf("invalid column reference %q", letters)
		}
		n = n*26 + int(r-'A'+1)
	}
	return n - 1, nil
}

// cellRef is one end of an A1 range. row is 1-based; 0 means unbounded.
type cellRef struct {
	col int
	row int
}

// parseRange parses "A1:J10", "A:AL", "T5:T9" or a single cell "P12".
func parseRange(rng string) (start, end cellRef, err error) {
	if i := strings.LastIndex(rng, "!"); i >= 0 {
		rng = rng[i+1:]
	}
	parts := strings.SplitN(rng, ":", 2)
	if start, err = parseCell(parts[0]); err != nil {
		return start, end, err
	}
	if len(parts) == 1 {
		return start, start, nil
	}
	end, err = parseCell(parts[1])
	return start, end, err
}

func parseCell(ref string) (cellRef, error) {
	ref = strings.TrimSpace(ref)
	split := strings.IndexFunc(ref, unicode.IsDigit)
	letters, digits := ref, ""
	if split >= 0 {
		letters, digits = ref[:split], ref[split:]
	}

	col, err := ColumnIndex(letters)
	if err != nil {
		return cellRef{}, err
	}
	row := 0
	if digits != "" {
		if row, err = strconv.Atoi(digits); err != nil || row < 1 {
			return cellRef{}, fmt.Errorf("invalid row in %q", ref)
		}
	}
	return cellRef{col: col, row: row}, nil
}
