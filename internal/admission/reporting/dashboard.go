// Package reporting computes the headline numbers shown on the admission
// dashboard.
package reporting

import (
	"context"
	"strings"

	"preschool-admissions/internal/common/logger"
	"preschool-admissions/internal/common/textnorm"
	"preschool-admissions/internal/sheets"
)

const (
	mainRange      = "A:AL"
	vacanciesRange = "A:ZZ"
)

// Metrics are the dashboard counters.
type Metrics struct {
	TotalApplicants    int `json:"totalApplicants"`
	AvailableVacancies int `json:"availableVacancies"`
	Cancelled          int `json:"cancelled"`
	Compatibilized     int `json:"compatibilized"`
}

type Dashboard struct {
	store     sheets.Store
	main      int
	vacancies int
	logger    logger.Logger
}

func NewDashboard(store sheets.Store, mainSheet, vacancySheet int, log logger.Logger) *Dashboard {
	return &Dashboard{store: store, main: mainSheet, vacancies: vacancySheet, logger: log}
}

// Metrics counts applicants, cancellations (placed without a deadline) and
// applicants with a destination, plus the vacancies left on the vacancy
// tab. A vacancy tab that cannot be read counts as zero.
func (d *Dashboard) Metrics(ctx context.Context) (*Metrics, error) {
	rows, err := d.store.Read(ctx, mainRange, d.main)
	if err != nil {
		return nil, err
	}

	m := &Metrics{}
	if len(rows) > 1 {
		header := rows[0]
		school := indexOf(header, "ESCOLA")
		if school == -1 {
			school = indexOf(header, "ESCOLA DESTINO")
		}
		placed := indexOf(header, "ATENDIDO")
		deadline := indexOf(header, "PRAZO")

		for _, row := range rows[1:] {
			if len(row) > 0 {
				m.TotalApplicants++
			}
			if strings.ToUpper(sheets.Cell(row, placed)) == "SIM" && strings.TrimSpace(sheets.Cell(row, deadline)) == "" {
				m.Cancelled++
			}
			if strings.TrimSpace(sheets.Cell(row, school)) != "" {
				m.Compatibilized++
			}
		}
	}

	m.AvailableVacancies = d.availableVacancies(ctx)
	return m, nil
}

func (d *Dashboard) availableVacancies(ctx context.Context) int {
	rows, err := d.store.Read(ctx, vacanciesRange, d.vacancies)
	if err != nil {
		d.logger.Warn("vacancy tab unavailable", map[string]interface{}{"error": err.Error()})
		return 0
	}
	if len(rows) <= 1 {
		return 0
	}

	col := indexOf(rows[0], "outVagas")
	if col == -1 {
		return 0
	}
	total := 0
	for _, row := range rows[1:] {
		total += textnorm.IntOrZero(sheets.Cell(row, col))
	}
	return total
}

// indexOf is an exact header match.
func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}
