package compatibilization

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"preschool-admissions/internal/common/logger"
	"preschool-admissions/internal/models"
)

// Wednesday.
var today = time.Date(2026, time.October, 21, 9, 30, 0, 0, time.UTC)

func newTestEngine(t *testing.T) *Engine {
	return NewEngine(func() time.Time { return today }, logger.NewTestLogger(t))
}

func applicant(id string, age string, priority int, shift string, prefs ...string) models.RankedApplicant {
	a := models.RankedApplicant{Applicant: models.Applicant{
		ID:             id,
		Name:           "CHILD " + id,
		Age:            age,
		Priority:       priority,
		RequestedShift: shift,
	}}
	copy(a.Preferences[:], prefs)
	return a
}

func slot(school, grade, shift string, remaining int) models.MappingRow {
	return models.MappingRow{School: school, Grade: grade, Shift: shift, Remaining: remaining}
}

func pendingGroup(school, age string, standard, priorityShift int) models.PendingGroup {
	return models.PendingGroup{
		School: school,
		Age:    age,
		Total:  standard + priorityShift,
		ByOrigin: map[models.Origin]int{
			models.OriginStandard:      standard,
			models.OriginPriorityShift: priorityShift,
		},
	}
}

// ==========================
// Fallback chains
// ==========================

func TestChain(t *testing.T) {
	tests := []struct {
		requested string
		priority  int
		want      []string
	}{
		{"PARCIAL", 1, []string{"MANHA", "TARDE", "INTEGRAL"}},
		{"PARCIAL", 2, []string{"MANHA", "TARDE"}},
		{"MANHA", 1, []string{"MANHA", "INTEGRAL"}},
		{"MANHA", 3, []string{"MANHA"}},
		{"TARDE", 1, []string{"TARDE", "INTEGRAL"}},
		{"TARDE", 4, []string{"TARDE"}},
		{"INTEGRAL", 1, []string{"INTEGRAL"}},
		{"INTEGRAL", 2, []string{"INTEGRAL"}},
		{"NOITE", 1, []string{"NOITE"}},
		{"", 1, []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.requested, func(t *testing.T) {
			assert.Equal(t, tt.want, Chain(tt.requested, tt.priority))
		})
	}
}

// ==========================
// Deadline
// ==========================

func TestDeadline(t *testing.T) {
	tests := []struct {
		name  string
		today time.Time
		want  string
	}{
		{"wednesday lands on next wednesday", today, "28/10/2026"},
		{"monday lands on next monday", time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), "26/10/2026"},
		{"friday lands on next friday", time.Date(2026, 10, 23, 0, 0, 0, 0, time.UTC), "30/10/2026"},
		{"saturday lands on friday", time.Date(2026, 10, 24, 0, 0, 0, 0, time.UTC), "30/10/2026"},
		{"crosses month end", time.Date(2026, 12, 29, 0, 0, 0, 0, time.UTC), "05/01/2027"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Deadline(tt.today)
			assert.Equal(t, tt.want, FormatDate(d))
			assert.NotEqual(t, time.Saturday, d.Weekday())
			assert.NotEqual(t, time.Sunday, d.Weekday())
		})
	}
}

// ==========================
// Pool
// ==========================

func TestNewPool_NormalizesAndSums(t *testing.T) {
	pool := NewPool([]models.MappingRow{
		slot("CINDERELA", "1", "MANHÃ", 2),
		slot("CINDERELA", "1", "manha", 1),
		slot("CINDERELA", "1", "TARDE", -3),
	})

	v, ok := pool.Remaining(models.SlotKey{School: "CINDERELA", Grade: "1", Shift: "MANHA"})
	require.True(t, ok)
	assert.Equal(t, 3, v)

	v, ok = pool.Remaining(models.SlotKey{School: "CINDERELA", Grade: "1", Shift: "TARDE"})
	require.True(t, ok)
	assert.Equal(t, 0, v)
}

func TestNewPool_DeficitDoesNotReduceSameSlot(t *testing.T) {
	pool := NewPool([]models.MappingRow{
		slot("FADA AZUL", "2", "TARDE", 3),
		slot("FADA AZUL", "2", "Tarde", -2),
	})

	v, ok := pool.Remaining(models.SlotKey{School: "FADA AZUL", Grade: "2", Shift: "TARDE"})
	require.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestDeductPending(t *testing.T) {
	pool := NewPool([]models.MappingRow{
		slot("CINDERELA", "1", "MANHA", 2),
		slot("CINDERELA", "1", "TARDE", 4),
		slot("CINDERELA", "1", "INTEGRAL", 1),
		slot("FADA AZUL", "2", "MANHA", 0),
		slot("FADA AZUL", "2", "TARDE", -1),
	})

	reserved := pool.DeductPending([]models.PendingGroup{
		pendingGroup("CINDERELA", "4", 3, 5),
		pendingGroup("FADA AZUL", "5", 2, 0),
		pendingGroup("CINDERELA", "6", 9, 9),
	})

	assert.Equal(t, 4, reserved)
	assert.Equal(t, []models.PoolEntry{
		{School: "CINDERELA", Grade: "1", Shift: "INTEGRAL", Remaining: 0},
		{School: "CINDERELA", Grade: "1", Shift: "MANHA", Remaining: 0},
		{School: "CINDERELA", Grade: "1", Shift: "TARDE", Remaining: 3},
		{School: "FADA AZUL", Grade: "2", Shift: "MANHA", Remaining: 0},
		{School: "FADA AZUL", Grade: "2", Shift: "TARDE", Remaining: 0},
	}, pool.Snapshot())
}

// ==========================
// Allocation
// ==========================

func TestRun_FirstRankedFirstServed(t *testing.T) {
	e := newTestEngine(t)
	ranked := []models.RankedApplicant{
		applicant("1", "4", 1, "MANHÃ", "SCHOOLX"),
		applicant("2", "4", 1, "Manhã", "SCHOOLX"),
		applicant("3", "4", 1, "MANHA", "SCHOOLX"),
	}

	res := e.Run(ranked, []models.MappingRow{slot("SCHOOLX", "1", "MANHA", 2)}, nil)

	require.Len(t, res.Results, 3)
	assert.True(t, res.Results[0].Matched)
	assert.Equal(t, 1, res.Results[0].RemainingAfterMatch)
	assert.True(t, res.Results[1].Matched)
	assert.Equal(t, 0, res.Results[1].RemainingAfterMatch)
	assert.False(t, res.Results[2].Matched)
	assert.Equal(t, ReasonNoShift, res.Results[2].Reason)
	assert.Empty(t, res.Results[2].Deadline)

	assert.Equal(t, "SCHOOLX", res.Results[0].School)
	assert.Equal(t, "MANHA", res.Results[0].Shift)
	assert.Equal(t, "vacancy available at ESCOLA1 (MANHA)", res.Results[0].Reason)
	assert.Equal(t, "28/10/2026", res.Results[0].Deadline)
	assert.Equal(t, "28/10/2026", res.Deadline)

	assert.Equal(t, 2, res.Statistics.Matched)
	assert.Equal(t, 1, res.Statistics.Unmatched)
	assert.Equal(t, map[string]int{"SCHOOLX": 2}, res.Statistics.BySchool)
	assert.Equal(t, models.AgeOutcome{Matched: 2, Unmatched: 1}, res.Statistics.ByAge["4"])
}

func TestRun_Resolution(t *testing.T) {
	mapping := []models.MappingRow{
		slot("A", "1", "MANHA", 0),
		slot("A", "1", "INTEGRAL", 1),
		slot("B", "1", "TARDE", 1),
		slot("B", "2", "NOITE", 1),
		slot("C", "2", "MANHA", -2),
	}

	tests := []struct {
		name      string
		applicant models.RankedApplicant
		matched   bool
		school    string
		shift     string
		reason    string
	}{
		{
			name:      "ineligible age",
			applicant: applicant("1", "3", 1, "MANHA", "A"),
			reason:    ReasonAgeNotEligible,
		},
		{
			name:      "priority one falls back to all-day",
			applicant: applicant("2", "4", 1, "MANHA", "A"),
			matched:   true, school: "A", shift: "INTEGRAL",
			reason: "vacancy available at ESCOLA1 (INTEGRAL)",
		},
		{
			name:      "other priority moves to next preference",
			applicant: applicant("3", "4", 2, "PARCIAL", "A", "B"),
			matched:   true, school: "B", shift: "TARDE",
			reason: "vacancy available at ESCOLA2 (TARDE)",
		},
		{
			name:      "empty preferences are skipped",
			applicant: applicant("4", "4", 2, "Tarde", "", "", "B"),
			matched:   true, school: "B", shift: "TARDE",
			reason: "vacancy available at ESCOLA3 (TARDE)",
		},
		{
			name:      "unknown label matches exactly",
			applicant: applicant("5", "5", 3, "noite", "B"),
			matched:   true, school: "B", shift: "NOITE",
			reason: "vacancy available at ESCOLA1 (NOITE)",
		},
		{
			name:      "deficit slot is never claimed",
			applicant: applicant("6", "5", 1, "MANHA", "C"),
			reason:    ReasonNoShift,
		},
		{
			name:      "missing shift label",
			applicant: applicant("7", "4", 1, "", "A", "B"),
			reason:    ReasonNoShift,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newTestEngine(t).Run([]models.RankedApplicant{tt.applicant}, mapping, nil)
			require.Len(t, res.Results, 1)

			r := res.Results[0]
			assert.Equal(t, tt.matched, r.Matched)
			assert.Equal(t, tt.school, r.School)
			assert.Equal(t, tt.shift, r.Shift)
			assert.Equal(t, tt.reason, r.Reason)
			if tt.matched {
				assert.Equal(t, 0, r.RemainingAfterMatch)
				assert.NotEmpty(t, r.Deadline)
			}
		})
	}
}

func TestRun_PendingReducesPool(t *testing.T) {
	e := newTestEngine(t)
	mapping := []models.MappingRow{
		slot("A", "1", "MANHA", 1),
		slot("A", "1", "TARDE", 1),
	}

	res := e.Run([]models.RankedApplicant{
		applicant("1", "4", 2, "PARCIAL", "A"),
		applicant("2", "4", 2, "PARCIAL", "A"),
	}, mapping, []models.PendingGroup{pendingGroup("A", "4", 1, 0)})

	assert.Equal(t, 1, res.Reserved)
	assert.True(t, res.Results[0].Matched)
	assert.Equal(t, "TARDE", res.Results[0].Shift)
	assert.False(t, res.Results[1].Matched)
}

func TestRun_NeverDecrementsExhaustedSlots(t *testing.T) {
	mapping := []models.MappingRow{
		slot("A", "1", "MANHA", 1),
		slot("A", "1", "TARDE", 0),
		slot("A", "1", "INTEGRAL", -4),
		slot("B", "1", "MANHA", 2),
	}
	ranked := make([]models.RankedApplicant, 0, 10)
	for i := 0; i < 10; i++ {
		ranked = append(ranked, applicant(string(rune('a'+i)), "4", 1, "PARCIAL", "A", "B"))
	}

	res := newTestEngine(t).Run(ranked, mapping, nil)

	assert.Equal(t, 3, res.Statistics.Matched)
	assert.Equal(t, 7, res.Statistics.Unmatched)
	for _, entry := range res.Pool {
		seed := 0
		for _, m := range mapping {
			if m.School == entry.School && m.Shift == entry.Shift {
				seed = m.Remaining
			}
		}
		if seed <= 0 {
			assert.Equal(t, 0, entry.Remaining, "%s/%s touched", entry.School, entry.Shift)
		} else {
			assert.GreaterOrEqual(t, entry.Remaining, 0)
		}
	}
}

func TestRun_Deterministic(t *testing.T) {
	mapping := []models.MappingRow{
		slot("A", "1", "MANHA", 2),
		slot("A", "1", "INTEGRAL", 1),
		slot("B", "2", "TARDE", 1),
		slot("B", "1", "TARDE", 3),
	}
	ranked := []models.RankedApplicant{
		applicant("1", "4", 1, "MANHA", "A", "B"),
		applicant("2", "5", 2, "TARDE", "B"),
		applicant("3", "4", 3, "PARCIAL", "A", "B"),
		applicant("4", "4", 1, "MANHA", "A"),
		applicant("5", "5", 1, "TARDE", "B"),
		applicant("6", "4", 4, "INTEGRAL", "A"),
	}
	pending := []models.PendingGroup{pendingGroup("B", "4", 1, 0)}

	first := newTestEngine(t).Run(ranked, mapping, pending)
	second := newTestEngine(t).Run(ranked, mapping, pending)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("runs differ (-first +second):\n%s", diff)
	}
}

// ==========================
// Preview
// ==========================

func TestPreviewRoundTrip(t *testing.T) {
	res := newTestEngine(t).Run([]models.RankedApplicant{
		applicant("10", "4", 1, "MANHA", "A", "B"),
		applicant("11", "4", 1, "MANHA", "A"),
	}, []models.MappingRow{slot("A", "1", "MANHA", 1)}, nil)

	rows := Rows(res.Results)
	require.Len(t, rows, 3)
	assert.Equal(t, previewHeader, rows[0])
	assert.Equal(t, []string{"10", "CHILD 10", "A", "B", "", "4", "SIM", "A", "28/10/2026", "0", "vacancy available at ESCOLA1 (MANHA)"}, rows[1])
	assert.Equal(t, "NÃO", rows[2][6])

	parsed := ParsePreview(rows)
	require.Len(t, parsed, 2)
	assert.True(t, parsed[0].Matched)
	assert.Equal(t, "A", parsed[0].School)
	assert.Equal(t, "28/10/2026", parsed[0].Deadline)
	assert.False(t, parsed[1].Matched)
	assert.Nil(t, ParsePreview(rows[:1]))
}

func TestMainSheetUpdates(t *testing.T) {
	results := []models.AllocationResult{
		{ID: "10", Matched: true, School: "A", Deadline: "28/10/2026"},
		{ID: "11", Matched: false},
		{ID: "12", Matched: true, School: "B", Deadline: "28/10/2026"},
	}
	idColumn := [][]string{{"ID"}, {"10"}, {}, {" 99 "}}

	updates, missing := MainSheetUpdates(results, idColumn)

	require.Len(t, updates, 1)
	assert.Equal(t, "Y2:AA2", updates[0].Range)
	assert.Equal(t, [][]string{{"SIM", "28/10/2026", "A"}}, updates[0].Values)
	assert.Equal(t, []string{"12"}, missing)
}
