// Package vacancies turns registry class lists into the vacancy tab and
// summarizes it.
package vacancies

import (
	"context"
	"fmt"
	"time"

	"preschool-admissions/internal/admission/pending"
	apperrors "preschool-admissions/internal/common/errors"
	"preschool-admissions/internal/common/logger"
	"preschool-admissions/internal/common/textnorm"
	"preschool-admissions/internal/sed"
	"preschool-admissions/internal/sheets"
)

const (
	allDayShiftCode = "6"
	readRange       = "A:ZZ"
)

// Registry is the subset of the registry client the sync needs.
type Registry interface {
	Schools(ctx context.Context) ([]string, error)
	Classes(ctx context.Context, codes []string) ([]sed.SchoolClasses, error)
}

// SyncResult reports one vacancy sync.
type SyncResult struct {
	Schools int    `json:"totalSchools"`
	Classes int    `json:"totalClasses"`
	Rows    int    `json:"totalRows"`
	Elapsed string `json:"elapsed"`
}

// Statistics summarizes the vacancy tab.
type Statistics struct {
	TotalVacancies int            `json:"totalVacancies"`
	TotalClasses   int            `json:"totalClasses"`
	BySchool       map[string]int `json:"bySchool"`
	ByAge          map[string]int `json:"byAge"`
	ByShift        map[string]int `json:"byShift"`
}

type Service struct {
	registry Registry
	store    sheets.Store
	sheet    int
	allDay   map[string]bool
	logger   logger.Logger
}

func NewService(registry Registry, store sheets.Store, sheet int, log logger.Logger) *Service {
	allDay := make(map[string]bool, len(pending.PriorityShiftSchools))
	for _, s := range pending.PriorityShiftSchools {
		allDay[textnorm.Fold(s)] = true
	}
	return &Service{registry: registry, store: store, sheet: sheet, allDay: allDay, logger: log}
}

// Sync fetches every school's classes and rewrites the vacancy tab.
func (s *Service) Sync(ctx context.Context) (*SyncResult, error) {
	start := time.Now()

	codes, err := s.registry.Schools(ctx)
	if err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		return nil, apperrors.NewDataUnavailableError("registry schools")
	}

	classes, err := s.registry.Classes(ctx, codes)
	if err != nil {
		return nil, err
	}
	if len(classes) == 0 {
		return nil, apperrors.NewDataUnavailableError("registry classes")
	}

	table := s.Table(classes)
	if err := s.store.Clear(ctx, s.sheet); err != nil {
		return nil, err
	}
	if len(table) > 1 {
		rng := fmt.Sprintf("A1:%s%d", sheets.ColumnLetter(len(table[0])-1), len(table))
		if err := s.store.Write(ctx, rng, table, s.sheet); err != nil {
			return nil, err
		}
	}

	res := &SyncResult{
		Schools: len(codes),
		Classes: len(classes),
		Rows:    len(table) - 1,
		Elapsed: fmt.Sprintf("%.2fs", time.Since(start).Seconds()),
	}
	s.logger.Info("vacancies synced", map[string]interface{}{
		"schools": res.Schools,
		"classes": res.Classes,
		"rows":    res.Rows,
	})
	return res, nil
}

// Table keeps preschool grades 1 and 2, drops all-day classes outside the
// all-day schools and appends school name, unit code, vacancies and age.
// The header follows the first kept class.
func (s *Service) Table(schools []sed.SchoolClasses) [][]string {
	var records []sed.Class
	for _, school := range schools {
		for _, class := range school.Classes {
			grade := textnorm.IntOrZero(class.Get("outCodSerieAno"))
			if grade >= 3 {
				continue
			}
			if class.Get("outCodTurno") == allDayShiftCode && !s.allDay[textnorm.Fold(school.Name)] {
				continue
			}

			vacancies := textnorm.IntOrZero(class.Get("outCapacidadeFisicaMax")) - textnorm.IntOrZero(class.Get("outQtdAtual"))
			age := "5"
			if grade == 1 {
				age = "4"
			}

			record := append(sed.Class(nil), class...)
			record = set(record, "outDescNomeAbrevEscola", school.Name)
			record = set(record, "outCodUnidade", school.Code)
			record = set(record, "outVagas", fmt.Sprint(vacancies))
			record = set(record, "Idade", age)
			records = append(records, record)
		}
	}
	if len(records) == 0 {
		return [][]string{}
	}

	header := make([]string, 0, len(records[0]))
	for _, f := range records[0] {
		header = append(header, f.Name)
	}

	table := make([][]string, 0, len(records)+1)
	table = append(table, header)
	for _, r := range records {
		row := make([]string, len(header))
		for i, name := range header {
			row[i] = r.Get(name)
		}
		table = append(table, row)
	}
	return table
}

func set(class sed.Class, name, value string) sed.Class {
	for i := range class {
		if class[i].Name == name {
			class[i].Value = value
			return class
		}
	}
	return append(class, sed.Field{Name: name, Value: value})
}

// Statistics reads the vacancy tab and totals vacancies per school, age
// and shift.
func (s *Service) Statistics(ctx context.Context) (*Statistics, error) {
	rows, err := s.store.Read(ctx, readRange, s.sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, apperrors.NewDataUnavailableError("vacancy sheet")
	}
	return Summarize(rows), nil
}

// Summarize totals a vacancy table, header first.
func Summarize(rows [][]string) *Statistics {
	header := sheets.NewHeader(rows[0])
	col := func(names ...string) int {
		for _, n := range names {
			if i, ok := header.Lookup(n); ok {
				return i
			}
		}
		return -1
	}
	school := col("outDescNomeAbrevEscola")
	age := col("Idade")
	shift := col("outDescTurno", "outDescricaoTurno")
	vacancies := col("outVagas")

	stats := &Statistics{
		TotalClasses: len(rows) - 1,
		BySchool:     make(map[string]int),
		ByAge:        make(map[string]int),
		ByShift:      make(map[string]int),
	}
	for _, row := range rows[1:] {
		v := textnorm.IntOrZero(sheets.Cell(row, vacancies))
		stats.TotalVacancies += v
		stats.BySchool[sheets.Cell(row, school)] += v

		if a := textnorm.IntOrZero(sheets.Cell(row, age)); a > 0 {
			stats.ByAge[fmt.Sprint(a)] += v
		}
		if t := sheets.Cell(row, shift); t != "" {
			stats.ByShift[t] += v
		}
	}
	return stats
}
