// Package compatibilization places ranked applicants into the capacity
// left after vacancy mapping, first-ranked first-served.
package compatibilization

import (
	"fmt"
	"strings"
	"time"

	"preschool-admissions/internal/common/logger"
	"preschool-admissions/internal/models"
)

const (
	ReasonAgeNotEligible = "age not eligible"
	ReasonNoShift        = "no shift available among preferred schools"

	DeadlineWeekdays = 5
	dateLayout       = "02/01/2006"
)

var preferenceLabels = [3]string{"ESCOLA1", "ESCOLA2", "ESCOLA3"}

// Chain lists the shifts tried, in order, for a requested shift. Priority
// class 1 may fall back to the all-day shift.
func Chain(requested string, priority int) []string {
	first := priority == 1
	switch requested {
	case ShiftPartial:
		if first {
			return []string{ShiftMorning, ShiftAfternoon, ShiftAllDay}
		}
		return []string{ShiftMorning, ShiftAfternoon}
	case ShiftMorning, ShiftAfternoon:
		if first {
			return []string{requested, ShiftAllDay}
		}
		return []string{requested}
	default:
		return []string{requested}
	}
}

// Deadline advances from today by five weekdays.
func Deadline(today time.Time) time.Time {
	d := today
	for n := 0; n < DeadlineWeekdays; {
		d = d.AddDate(0, 0, 1)
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n++
		}
	}
	return d
}

func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// Result is the outcome of one compatibilization run.
type Result struct {
	Results    []models.AllocationResult   `json:"results"`
	Statistics models.AllocationStatistics `json:"statistics"`
	Pool       []models.PoolEntry          `json:"pool"`
	Deadline   string                      `json:"deadline"`
	Reserved   int                         `json:"reserved"`
}

type Engine struct {
	now    func() time.Time
	logger logger.Logger
}

func NewEngine(now func() time.Time, log logger.Logger) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now, logger: log}
}

// Run seeds a fresh pool from the mapping, reserves pending offers and then
// folds over the ranked applicants in order.
func (e *Engine) Run(ranked []models.RankedApplicant, mapping []models.MappingRow, pending []models.PendingGroup) *Result {
	pool := NewPool(mapping)
	reserved := pool.DeductPending(pending)
	deadline := FormatDate(Deadline(e.now()))

	result := &Result{
		Results: make([]models.AllocationResult, 0, len(ranked)),
		Statistics: models.AllocationStatistics{
			BySchool: make(map[string]int),
			ByAge:    make(map[string]models.AgeOutcome),
		},
		Deadline: deadline,
		Reserved: reserved,
	}

	for _, applicant := range ranked {
		r := allocate(pool, applicant)
		if r.Matched {
			r.Deadline = deadline
		}
		result.Results = append(result.Results, r)
		record(&result.Statistics, r)
	}
	result.Pool = pool.Snapshot()

	e.logger.Info("compatibilization finished", map[string]interface{}{
		"applicants": len(ranked),
		"matched":    result.Statistics.Matched,
		"unmatched":  result.Statistics.Unmatched,
		"reserved":   reserved,
		"deadline":   deadline,
	})
	return result
}

func allocate(pool *Pool, a models.RankedApplicant) models.AllocationResult {
	r := models.AllocationResult{
		ID:             a.ID,
		Name:           a.Name,
		Preferences:    a.Preferences,
		Age:            a.Age,
		RequestedShift: a.RequestedShift,
		Reason:         ReasonNoShift,
	}

	grade, ok := models.GradeForAge(a.Age)
	if !ok {
		r.Reason = ReasonAgeNotEligible
		return r
	}

	chain := Chain(NormalizeShift(a.RequestedShift), a.Priority)
	for i, school := range a.Preferences {
		if strings.TrimSpace(school) == "" {
			continue
		}
		for _, shift := range chain {
			remaining, ok := pool.take(models.SlotKey{School: school, Grade: grade, Shift: shift})
			if !ok {
				continue
			}
			r.Matched = true
			r.School = school
			r.Shift = shift
			r.RemainingAfterMatch = remaining
			r.Reason = fmt.Sprintf("vacancy available at %s (%s)", preferenceLabels[i], shift)
			return r
		}
	}
	return r
}

func record(stats *models.AllocationStatistics, r models.AllocationResult) {
	outcome := stats.ByAge[r.Age]
	if r.Matched {
		stats.Matched++
		stats.BySchool[r.School]++
		outcome.Matched++
	} else {
		stats.Unmatched++
		outcome.Unmatched++
	}
	stats.ByAge[r.Age] = outcome
}
