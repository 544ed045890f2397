// Package mapping reconciles class capacity against pending reservations
// per school, grade and shift.
package mapping

import (
	"math"
	"sort"
	"strconv"
	"strings"

	apperrors "preschool-admissions/internal/common/errors"
	"preschool-admissions/internal/common/logger"
	"preschool-admissions/internal/common/textnorm"
	"preschool-admissions/internal/models"
	"preschool-admissions/internal/sheets"
)

const (
	ShiftUnspecified = "N/D"
	ShiftAllDay      = "INTEGRAL"
	// ShiftPartial labels synthetic rows for standard demand at a school
	// with no half-day capacity.
	ShiftPartial = "MANHA/TARDE"

	columnSchool   = "outDescNomeAbrevEscola"
	columnGrade    = "outCodSerieAno"
	columnCapacity = "outVagas"
	columnShift    = "outDescricaoTurno"
)

var shiftRank = map[string]int{
	"MANHA":    1,
	"TARDE":    2,
	"INTEGRAL": 3,
	"NOITE":    4,
}

// waterfallOrder ranks a shift inside its group; unknown labels go last.
func waterfallOrder(shift string) int {
	if r, ok := shiftRank[textnorm.Fold(shift)]; ok {
		return r
	}
	return 99
}

// displayOrder ranks shifts in the final table; unknown labels sort before
// the unspecified one.
func displayOrder(shift string) int {
	if shift == ShiftUnspecified {
		return 99
	}
	if r, ok := shiftRank[textnorm.Fold(shift)]; ok {
		return r
	}
	return 50
}

func isAllDay(shift string) bool {
	return textnorm.Fold(shift) == ShiftAllDay
}

type Engine struct {
	logger logger.Logger
}

func NewEngine(log logger.Logger) *Engine {
	return &Engine{logger: log}
}

// ParseCapacity reads the vacancy feed (header first).
func (e *Engine) ParseCapacity(rows [][]string) ([]models.CapacityRow, error) {
	if len(rows) <= 1 {
		return nil, apperrors.NewDataUnavailableError("vacancy sheet")
	}

	header := sheets.NewHeader(rows[0])
	var idx [3]int
	for i, name := range []string{columnSchool, columnGrade, columnCapacity} {
		pos, ok := header.Lookup(name)
		if !ok {
			return nil, apperrors.NewConfigurationError("column '" + name + "' not found in vacancy sheet")
		}
		idx[i] = pos
	}

	shiftCol, ok := header.Lookup(columnShift)
	if !ok {
		var name string
		name, shiftCol, ok = header.Containing("turno", "periodo")
		if ok {
			e.logger.Debug("using alternate shift column", map[string]interface{}{"column": name})
		} else {
			e.logger.Warn("shift column not found, shifts reported as unspecified", nil)
		}
	}

	capacity := make([]models.CapacityRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		school := strings.TrimSpace(sheets.Cell(row, idx[0]))
		grade := strings.TrimSpace(sheets.Cell(row, idx[1]))
		if school == "" || grade == "" {
			continue
		}

		shift := ShiftUnspecified
		if ok {
			shift = strings.TrimSpace(sheets.Cell(row, shiftCol))
		}
		capacity = append(capacity, models.CapacityRow{
			School:   school,
			Grade:    grade,
			Shift:    shift,
			Capacity: textnorm.IntOrZero(sheets.Cell(row, idx[2])),
		})
	}
	return capacity, nil
}

type seriesKey struct {
	school string
	grade  string
}

type demand struct {
	standard      int
	priorityShift int
}

// Build pours pending demand into capacity and returns one row per
// (school, grade, shift), plus synthetic rows for demand with nowhere to go.
func (e *Engine) Build(capacity []models.CapacityRow, groups []models.PendingGroup) []models.MappingRow {
	var order []seriesKey
	shifts := make(map[seriesKey][]*models.MappingRow)
	for _, c := range capacity {
		key := seriesKey{school: c.School, grade: c.Grade}
		list, seen := shifts[key]
		if !seen {
			order = append(order, key)
		}
		merged := false
		for _, r := range list {
			if r.Shift == c.Shift {
				r.Capacity += c.Capacity
				merged = true
				break
			}
		}
		if !merged {
			shifts[key] = append(list, &models.MappingRow{
				School:   c.School,
				Grade:    c.Grade,
				Shift:    c.Shift,
				Capacity: c.Capacity,
			})
		}
	}

	demands, demandOrder := demandBySeries(groups)

	var out []models.MappingRow
	for _, key := range order {
		list := shifts[key]
		sort.SliceStable(list, func(i, j int) bool {
			return waterfallOrder(list[i].Shift) < waterfallOrder(list[j].Shift)
		})

		var allDay, partial []*models.MappingRow
		for _, r := range list {
			if isAllDay(r.Shift) {
				allDay = append(allDay, r)
			} else {
				partial = append(partial, r)
			}
		}

		d := demands[key]
		pour(allDay, d.priorityShift)
		pour(partial, d.standard)

		for _, r := range list {
			finish(r)
			out = append(out, *r)
		}
		if len(partial) == 0 && d.standard > 0 {
			out = append(out, synthetic(key, ShiftPartial, d.standard))
		}
		if len(allDay) == 0 && d.priorityShift > 0 {
			out = append(out, synthetic(key, ShiftAllDay, d.priorityShift))
		}
	}

	for _, key := range demandOrder {
		if _, ok := shifts[key]; ok {
			continue
		}
		d := demands[key]
		if d.standard > 0 {
			out = append(out, synthetic(key, ShiftPartial, d.standard))
		}
		if d.priorityShift > 0 {
			out = append(out, synthetic(key, ShiftAllDay, d.priorityShift))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.School != b.School {
			return textnorm.Compare(a.School, b.School) < 0
		}
		if a.Grade != b.Grade {
			return textnorm.Compare(a.Grade, b.Grade) < 0
		}
		return displayOrder(a.Shift) < displayOrder(b.Shift)
	})

	e.logger.Debug("mapping built", map[string]interface{}{
		"series": len(order),
		"rows":   len(out),
	})
	return out
}

func demandBySeries(groups []models.PendingGroup) (map[seriesKey]demand, []seriesKey) {
	demands := make(map[seriesKey]demand)
	var order []seriesKey
	for _, g := range groups {
		school := strings.TrimSpace(g.School)
		age, _ := textnorm.LeadingInt(g.Age)
		if school == "" || age <= 0 {
			continue
		}
		grade, ok := models.GradeForAge(strconv.Itoa(age))
		if !ok {
			continue
		}

		key := seriesKey{school: school, grade: grade}
		d, seen := demands[key]
		if !seen {
			order = append(order, key)
		}
		d.standard += g.Standard()
		d.priorityShift += g.PriorityShift()
		demands[key] = d
	}
	return demands, order
}

// pour consumes demand across slots in order. Each slot takes what it can
// hold; the last slot carries whatever is left as a negative remainder.
func pour(slots []*models.MappingRow, demand int) {
	for i, r := range slots {
		available := r.Capacity
		if available < 0 {
			available = 0
		}
		take := 0
		if demand > 0 {
			take = demand
			if take > available {
				take = available
			}
			demand -= take
		}
		r.Allocated = take
		r.Remaining = r.Capacity - take
		if i == len(slots)-1 {
			r.Remaining -= demand
		}
	}
}

func finish(r *models.MappingRow) {
	r.Status = models.StatusFor(r.Remaining)
	r.Occupancy = Occupancy(r.Allocated, r.Capacity)
}

func synthetic(key seriesKey, shift string, demand int) models.MappingRow {
	return models.MappingRow{
		School:    key.school,
		Grade:     key.grade,
		Shift:     shift,
		Capacity:  0,
		Allocated: demand,
		Remaining: -demand,
		Status:    models.StatusOvercapacity,
		Occupancy: 100,
	}
}

// Occupancy is allocated/capacity as a percentage with one decimal.
func Occupancy(allocated, capacity int) float64 {
	if capacity > 0 {
		return round1(float64(allocated) / float64(capacity) * 100)
	}
	if allocated > 0 {
		return 100
	}
	return 0
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Summarize computes the overall mapping statistics.
func Summarize(rows []models.MappingRow) models.MappingStatistics {
	var stats models.MappingStatistics
	schools := make(map[string]struct{})
	for _, r := range rows {
		schools[r.School] = struct{}{}
		stats.TotalCapacity += r.Capacity
		stats.TotalAllocated += r.Allocated
		stats.TotalRemaining += r.Remaining
		switch r.Status {
		case models.StatusOvercapacity:
			stats.OvercapacityRows++
		case models.StatusAvailable:
			stats.AvailableRows++
		}
	}
	stats.TotalSchools = len(schools)
	if stats.TotalCapacity > 0 {
		stats.OverallOccupancy = round1(float64(stats.TotalAllocated) / float64(stats.TotalCapacity) * 100)
	}
	return stats
}

// Rows renders the mapping as the persisted table.
func Rows(rows []models.MappingRow) [][]string {
	out := make([][]string, 0, len(rows)+1)
	out = append(out, []string{
		"Escola", "Série", "Turno", "Vagas Disponíveis",
		"Inscrições Pendentes (Total Série)", "Vagas Restantes (Turno)",
		"Status", "Percentual Ocupação",
	})
	for _, r := range rows {
		out = append(out, []string{
			r.School, r.Grade, r.Shift,
			strconv.Itoa(r.Capacity), strconv.Itoa(r.Allocated), strconv.Itoa(r.Remaining),
			string(r.Status),
			strconv.FormatFloat(r.Occupancy, 'f', -1, 64) + "%",
		})
	}
	return out
}
