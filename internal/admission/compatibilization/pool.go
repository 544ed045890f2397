package compatibilization

import (
	"sort"

	"preschool-admissions/internal/common/textnorm"
	"preschool-admissions/internal/models"
)

const (
	ShiftMorning   = "MANHA"
	ShiftAfternoon = "TARDE"
	ShiftAllDay    = "INTEGRAL"
	ShiftPartial   = "PARCIAL"
)

// NormalizeShift folds a shift label for pool lookups.
func NormalizeShift(shift string) string {
	return textnorm.Fold(shift)
}

// Pool is the capacity left per slot during one run. It is owned by a
// single run and mutated sequentially.
type Pool struct {
	slots map[models.SlotKey]int
}

// NewPool seeds a pool from the mapping's remaining capacity. Labels that
// normalize to the same shift are summed; a row in deficit contributes
// nothing, so it never eats into another row's capacity.
func NewPool(rows []models.MappingRow) *Pool {
	p := &Pool{slots: make(map[models.SlotKey]int, len(rows))}
	for _, r := range rows {
		key := models.SlotKey{School: r.School, Grade: r.Grade, Shift: NormalizeShift(r.Shift)}
		remaining := r.Remaining
		if remaining < 0 {
			remaining = 0
		}
		p.slots[key] += remaining
	}
	return p
}

// Remaining reports the capacity left in a slot.
func (p *Pool) Remaining(key models.SlotKey) (int, bool) {
	v, ok := p.slots[key]
	return v, ok
}

func (p *Pool) available(key models.SlotKey) bool {
	return p.slots[key] > 0
}

// take claims one seat. Slots at or below zero are never touched.
func (p *Pool) take(key models.SlotKey) (int, bool) {
	if !p.available(key) {
		return 0, false
	}
	p.slots[key]--
	return p.slots[key], true
}

// deduct removes up to n seats from a slot with capacity left and returns
// how many were removed.
func (p *Pool) deduct(key models.SlotKey, n int) int {
	if n <= 0 || !p.available(key) {
		return 0
	}
	d := p.slots[key]
	if d > n {
		d = n
	}
	p.slots[key] -= d
	return d
}

// DeductPending reserves capacity for offers still awaiting an answer:
// all-day offers come out of the INTEGRAL slot, standard offers out of
// MANHA then TARDE.
func (p *Pool) DeductPending(groups []models.PendingGroup) int {
	total := 0
	for _, g := range groups {
		grade, ok := models.GradeForAge(g.Age)
		if !ok {
			continue
		}

		total += p.deduct(models.SlotKey{School: g.School, Grade: grade, Shift: ShiftAllDay}, g.PriorityShift())

		standard := g.Standard()
		for _, shift := range []string{ShiftMorning, ShiftAfternoon} {
			if standard <= 0 {
				break
			}
			d := p.deduct(models.SlotKey{School: g.School, Grade: grade, Shift: shift}, standard)
			standard -= d
			total += d
		}
	}
	return total
}

// Snapshot lists every slot ordered by school, grade and shift.
func (p *Pool) Snapshot() []models.PoolEntry {
	out := make([]models.PoolEntry, 0, len(p.slots))
	for k, v := range p.slots {
		out = append(out, models.PoolEntry{School: k.School, Grade: k.Grade, Shift: k.Shift, Remaining: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].School != out[j].School {
			return out[i].School < out[j].School
		}
		if out[i].Grade != out[j].Grade {
			return out[i].Grade < out[j].Grade
		}
		return out[i].Shift < out[j].Shift
	})
	return out
}
