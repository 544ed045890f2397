package sheets

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-process Store. Reads behave like the Sheets API:
// trailing empty cells and rows are omitted.
type MemoryStore struct {
	mu   sync.RWMutex
	tabs []*memoryTab
}

type memoryTab struct {
	title string
	rows  [][]string
}

// NewMemoryStore creates one tab per title, in order.
func NewMemoryStore(titles ...string) *MemoryStore {
	if len(titles) == 0 {
		titles = []string{"Sheet1"}
	}
	m := &MemoryStore{}
	for _, t := range titles {
		m.tabs = append(m.tabs, &memoryTab{title: t})
	}
	return m
}

// SetRows replaces the contents of a tab.
func (m *MemoryStore) SetRows(sheet int, rows [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tab, err := m.tab(sheet)
	if err != nil {
		panic(err)
	}
	tab.rows = copyRows(rows)
}

// Rows returns a copy of a tab's contents.
func (m *MemoryStore) Rows(sheet int) [][]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tab, err := m.tab(sheet)
	if err != nil {
		return nil
	}
	return trimRows(copyRows(tab.rows))
}

func (m *MemoryStore) Read(_ context.Context, rng string, sheet int) ([][]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tab, err := m.tab(sheet)
	if err != nil {
		return nil, err
	}
	start, end, err := parseRange(rng)
	if err != nil {
		return nil, err
	}

	firstRow := 0
	if start.row > 0 {
		firstRow = start.row - 1
	}
	lastRow := len(tab.rows) - 1
	if end.row > 0 && end.row-1 < lastRow {
		lastRow = end.row - 1
	}

	var out [][]string
	for r := firstRow; r <= lastRow; r++ {
		src := tab.rows[r]
		row := []string{}
		for c := start.col; c <= end.col && c < len(src); c++ {
			row = append(row, src[c])
		}
		out = append(out, row)
	}
	return trimRows(out), nil
}

func (m *MemoryStore) Write(_ context.Context, rng string, rows [][]string, sheet int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tab, err := m.tab(sheet)
	if err != nil {
		return err
	}
	return tab.write(rng, rows)
}

func (m *MemoryStore) Clear(_ context.Context, sheet int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tab, err := m.tab(sheet)
	if err != nil {
		return err
	}
	tab.rows = nil
	return nil
}

func (m *MemoryStore) BatchWrite(_ context.Context, sheetTitle string, updates []Update) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var tab *memoryTab
	for _, t := range m.tabs {
		if t.title == sheetTitle {
			tab = t
			break
		}
	}
	if tab == nil {
		return 0, fmt.Errorf("sheet %q not found", sheetTitle)
	}

	for _, u := range updates {
		if err := tab.write(u.Range, u.Values); err != nil {
			return 0, err
		}
	}
	return len(updates), nil
}

func (m *MemoryStore) SheetTitle(_ context.Context, sheet int) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tab, err := m.tab(sheet)
	if err != nil {
		return "", err
	}
	return tab.title, nil
}

func (m *MemoryStore) tab(sheet int) (*memoryTab, error) {
	if sheet == Default {
		sheet = 0
	}
	if sheet < 0 || sheet >= len(m.tabs) {
		return nil, fmt.Errorf("sheet with index %d not found", sheet)
	}
	return m.tabs[sheet], nil
}

func (t *memoryTab) write(rng string, rows [][]string) error {
	start, _, err := parseRange(rng)
	if err != nil {
		return err
	}
	firstRow := 0
	if start.row > 0 {
		firstRow = start.row - 1
	}

	for i, values := range rows {
		r := firstRow + i
		for len(t.rows) <= r {
			t.rows = append(t.rows, nil)
		}
		for j, v := range values {
			c := start.col + j
			for len(t.rows[r]) <= c {
				t.rows[r] = append(t.rows[r], "")
			}
			t.rows[r][c] = v
		}
	}
	return nil
}

func copyRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

func trimRows(rows [][]string) [][]string {
	for i, r := range rows {
		end := len(r)
		for end > 0 && r[end-1] == "" {
			end--
		}
		rows[i] = r[:end]
	}
	end := len(rows)
	for end > 0 && len(rows[end-1]) == 0 {
		end--
	}
	return rows[:end]
}
