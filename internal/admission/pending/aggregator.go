// Package pending counts seats already offered to applicants whose response
// deadline has not passed yet.
package pending

import (
	"context"
	"sort"
	"strings"
	"time"

	apperrors "preschool-admissions/internal/common/errors"
	"preschool-admissions/internal/common/logger"
	"preschool-admissions/internal/common/textnorm"
	"preschool-admissions/internal/models"
	"preschool-admissions/internal/sheets"
)

const (
	primaryRange   = "A:AL"
	secondaryRange = "A:Z"
	dateLayout     = "02/01/2006"
)

// Header names and fallback positions on the main sheet.
var (
	deadlineColumn    = column{names: []string{"PRAZO"}, fallback: 25}          // Z
	destinationColumn = column{names: []string{"ESCOLA DESTINO"}, fallback: 26} // AA
	ageColumn         = column{names: []string{"IDADE"}, fallback: 21}          // V
)

// PriorityShiftSchools are the only destinations counted from the
// all-day feed.
var PriorityShiftSchools = []string{
	"A BELA ADORMECIDA",
	"AGOSTINHO BRANDI",
	"ALBERTO JOSE ISMAEL",
	"CEU ENCANTADO",
	"CINDERELA",
	"FADA AZUL",
	"GEORGINA ATRA HAWILLA",
	"LUZIA APARECIDA PENHA DOS SANTOS",
	"MODESTO RODRIGUES MARQUES",
	"PAULO JOSÉ FROES",
	"PEDRO D'AMICO",
	"SACI PERERE",
}

type column struct {
	names    []string
	fallback int
}

// Source is one spreadsheet tab holding reservations.
type Source struct {
	Store sheets.Store
	Sheet int
}

type Aggregator struct {
	primary   Source
	secondary *Source
	allowed   map[string]bool
	now       func() time.Time
	logger    logger.Logger
}

// NewAggregator builds an aggregator. secondary may be nil when the all-day
// feed is not configured.
func NewAggregator(primary Source, secondary *Source, now func() time.Time, log logger.Logger) *Aggregator {
	allowed := make(map[string]bool, len(PriorityShiftSchools))
	for _, s := range PriorityShiftSchools {
		allowed[textnorm.Fold(s)] = true
	}
	if now == nil {
		now = time.Now
	}
	return &Aggregator{
		primary:   primary,
		secondary: secondary,
		allowed:   allowed,
		now:       now,
		logger:    log,
	}
}

// Aggregate reads both feeds and groups live reservations by
// (school, age). A secondary feed failure is logged and ignored.
func (a *Aggregator) Aggregate(ctx context.Context) (*models.PendingSummary, error) {
	today := midnight(a.now())

	primary, err := a.readPrimary(ctx, today)
	if err != nil {
		return nil, err
	}
	secondary := a.readSecondary(ctx, today)

	summary := Summarize(append(primary, secondary...))
	summary.VerificationDate = today.Format(dateLayout)

	a.logger.Info("pending reservations aggregated", map[string]interface{}{
		"total":         summary.Total,
		"standard":      summary.Standard,
		"priorityShift": summary.PriorityShift,
		"groups":        len(summary.Groups),
	})
	return summary, nil
}

func (a *Aggregator) readPrimary(ctx context.Context, today time.Time) ([]models.PendingReservation, error) {
	rows, err := a.primary.Store.Read(ctx, primaryRange, a.primary.Sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		a.logger.Warn("main sheet has no reservations", nil)
		return nil, nil
	}

	idx, err := resolve(rows[0], true)
	if err != nil {
		return nil, err
	}
	return collect(rows[1:], idx, today, models.OriginStandard, nil), nil
}

func (a *Aggregator) readSecondary(ctx context.Context, today time.Time) []models.PendingReservation {
	if a.secondary == nil || a.secondary.Store == nil {
		return nil
	}

	rows, err := a.secondary.Store.Read(ctx, secondaryRange, a.secondary.Sheet)
	if err != nil {
		a.logger.Warn("all-day reservations unavailable, skipping", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	if len(rows) == 0 {
		return nil
	}

	idx, err := resolve(rows[0], false)
	if err != nil {
		a.logger.Warn("all-day reservation columns not found, skipping", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	return collect(rows[1:], idx, today, models.OriginPriorityShift, a.allowed)
}

type indices struct {
	deadline    int
	destination int
	age         int
}

func resolve(header []string, withFallback bool) (indices, error) {
	find := func(c column) int {
		fallback := -1
		if withFallback {
			fallback = c.fallback
		}
		return sheets.FindColumn(header, c.names, fallback, false)
	}

	idx := indices{
		deadline:    find(deadlineColumn),
		destination: find(destinationColumn),
		age:         find(ageColumn),
	}
	if idx.deadline == -1 || idx.destination == -1 || idx.age == -1 {
		return idx, apperrors.NewConfigurationError("required columns not found: PRAZO, ESCOLA DESTINO, IDADE")
	}
	return idx, nil
}

func collect(rows [][]string, idx indices, today time.Time, origin models.Origin, allowed map[string]bool) []models.PendingReservation {
	var out []models.PendingReservation
	for _, row := range rows {
		destination := strings.TrimSpace(sheets.Cell(row, idx.destination))
		if allowed != nil && (destination == "" || !allowed[textnorm.Fold(destination)]) {
			continue
		}

		raw := sheets.Cell(row, idx.deadline)
		deadline, ok := ParseDeadline(raw, today.Location())
		if !ok || deadline.Before(today) {
			continue
		}

		out = append(out, models.PendingReservation{
			School:   destination,
			Age:      strings.TrimSpace(sheets.Cell(row, idx.age)),
			Deadline: raw,
			Origin:   origin,
		})
	}
	return out
}

// ParseDeadline reads a dd/mm/yyyy date. Out-of-range days and months roll
// over into the following month or year.
func ParseDeadline(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}

	day, ok := textnorm.LeadingInt(parts[0])
	if !ok {
		return time.Time{}, false
	}
	month, ok := textnorm.LeadingInt(parts[1])
	if !ok {
		return time.Time{}, false
	}
	year, ok := textnorm.LeadingInt(parts[2])
	if !ok {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc), true
}

// Summarize groups reservations by (school, age) in first-seen order.
func Summarize(reservations []models.PendingReservation) *models.PendingSummary {
	summary := &models.PendingSummary{
		Groups:   []models.PendingGroup{},
		BySchool: make(map[string]int),
		ByAge:    make(map[string]int),
	}

	positions := make(map[models.GroupKey]int)
	for _, r := range reservations {
		summary.Total++
		switch r.Origin {
		case models.OriginStandard:
			summary.Standard++
		case models.OriginPriorityShift:
			summary.PriorityShift++
		}

		key := models.GroupKey{School: r.School, Age: r.Age}
		pos, ok := positions[key]
		if !ok {
			pos = len(summary.Groups)
			positions[key] = pos
			summary.Groups = append(summary.Groups, models.PendingGroup{
				School:   r.School,
				Age:      r.Age,
				ByOrigin: map[models.Origin]int{models.OriginStandard: 0, models.OriginPriorityShift: 0},
			})
		}
		summary.Groups[pos].Total++
		summary.Groups[pos].ByOrigin[r.Origin]++

		summary.BySchool[r.School]++
		summary.ByAge[r.Age]++
	}
	return summary
}

// SortedGroups returns groups ordered by school then age.
func SortedGroups(groups []models.PendingGroup) []models.PendingGroup {
	out := append([]models.PendingGroup(nil), groups...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].School != out[j].School {
			return textnorm.Compare(out[i].School, out[j].School) < 0
		}
		return textnorm.Compare(out[i].Age, out[j].Age) < 0
	})
	return out
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
