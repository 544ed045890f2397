// Package lookup fills registry data (RA, current enrollment) into a range
// of main-sheet lines.
package lookup

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	apperrors "preschool-admissions/internal/common/errors"
	"preschool-admissions/internal/common/logger"
	"preschool-admissions/internal/sed"
	"preschool-admissions/internal/sheets"
)

const (
	colName   = 2 // C
	colBirth  = 3 // D
	colCPF    = 4 // E
	colMother = 5 // F

	defaultConcurrency = 10
	statusNoRA         = "RA não informado"
)

// Registry is the part of the SED client used by the searches.
type Registry interface {
	FindRACascade(ctx context.Context, s sed.Student) sed.Match
	Enrollment(ctx context.Context, ra string) (sed.Enrollment, error)
}

// RARow is the RA cascade outcome of one line.
type RARow struct {
	Line   int    `json:"line"`
	Name   string `json:"name"`
	RA     string `json:"ra"`
	Method string `json:"method,omitempty"`
	Status string `json:"status"`
}

// EnrollmentRow is the enrollment outcome of one line.
type EnrollmentRow struct {
	Line         int    `json:"line"`
	RA           string `json:"ra"`
	School       string `json:"school"`
	Municipality string `json:"municipality"`
	Status       string `json:"status"`
}

type RAResult struct {
	Total   int     `json:"total"`
	Found   int     `json:"found"`
	Details []RARow `json:"details"`
}

type EnrollmentResult struct {
	Total   int             `json:"total"`
	Found   int             `json:"found"`
	Details []EnrollmentRow `json:"details"`
}

type Service struct {
	registry    Registry
	store       sheets.Store
	sheet       int
	concurrency int
	logger      logger.Logger
}

// NewService builds the search service. concurrency bounds the registry
// calls in flight; zero or less means 10.
func NewService(registry Registry, store sheets.Store, sheet, concurrency int, log logger.Logger) *Service {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Service{registry: registry, store: store, sheet: sheet, concurrency: concurrency, logger: log}
}

func validRange(start, end int) error {
	if start < 2 || end < start {
		return apperrors.NewInvalidInputError(fmt.Sprintf("invalid line range %d-%d", start, end))
	}
	return nil
}

// SearchRA runs the RA cascade for lines [start, end] and writes the RAs
// found to column T. Lines without a match get an empty cell.
func (s *Service) SearchRA(ctx context.Context, start, end int) (*RAResult, error) {
	if err := validRange(start, end); err != nil {
		return nil, err
	}
	rows, err := s.store.Read(ctx, fmt.Sprintf("A%d:Z%d", start, end), s.sheet)
	if err != nil {
		return nil, err
	}

	details := make([]RARow, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, row := range rows {
		i, row := i, row
		g.Go(func() error {
			match := s.registry.FindRACascade(gctx, sed.Student{
				Name:      sheets.Cell(row, colName),
				BirthDate: sheets.Cell(row, colBirth),
				CPF:       sheets.Cell(row, colCPF),
				Mother:    sheets.Cell(row, colMother),
			})
			details[i] = RARow{
				Line:   start + i,
				Name:   sheets.Cell(row, colName),
				RA:     match.RA,
				Method: match.Method,
				Status: match.Status,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &RAResult{Total: len(details), Details: details}
	if len(details) == 0 {
		return res, nil
	}

	values := make([][]string, len(details))
	for i, d := range details {
		values[i] = []string{d.RA}
		if d.RA != "" {
			res.Found++
		}
	}
	rng := fmt.Sprintf("T%d:T%d", start, start+len(values)-1)
	if err := s.store.Write(ctx, rng, values, s.sheet); err != nil {
		return nil, err
	}

	s.logger.Info("ra search finished", map[string]interface{}{
		"start": start,
		"end":   end,
		"total": res.Total,
		"found": res.Found,
	})
	return res, nil
}

// SearchEnrollments reads the RAs in column T for lines [start, end] and
// writes school (W), municipality (X) and "NÃO" (Y) for each line.
// Registry failures are reported per line.
func (s *Service) SearchEnrollments(ctx context.Context, start, end int) (*EnrollmentResult, error) {
	if err := validRange(start, end); err != nil {
		return nil, err
	}
	rows, err := s.store.Read(ctx, fmt.Sprintf("T%d:T%d", start, end), s.sheet)
	if err != nil {
		return nil, err
	}

	details := make([]EnrollmentRow, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, row := range rows {
		i, row := i, row
		g.Go(func() error {
			details[i] = s.enrollment(gctx, start+i, sheets.Cell(row, 0))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &EnrollmentResult{Total: len(details), Details: details}
	if len(details) == 0 {
		return res, nil
	}

	schools := make([][]string, len(details))
	cities := make([][]string, len(details))
	placed := make([][]string, len(details))
	for i, d := range details {
		schools[i] = []string{d.School}
		cities[i] = []string{d.Municipality}
		placed[i] = []string{"NÃO"}
		if d.School != "" {
			res.Found++
		}
	}

	last := start + len(details) - 1
	title, err := s.store.SheetTitle(ctx, s.sheet)
	if err != nil {
		return nil, err
	}
	_, err = s.store.BatchWrite(ctx, title, []sheets.Update{
		{Range: fmt.Sprintf("W%d:W%d", start, last), Values: schools},
		{Range: fmt.Sprintf("X%d:X%d", start, last), Values: cities},
		{Range: fmt.Sprintf("Y%d:Y%d", start, last), Values: placed},
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("enrollment search finished", map[string]interface{}{
		"start": start,
		"end":   end,
		"total": res.Total,
		"found": res.Found,
	})
	return res, nil
}

func (s *Service) enrollment(ctx context.Context, line int, ra string) EnrollmentRow {
	row := EnrollmentRow{Line: line, RA: ra}
	if ra == "" {
		row.Municipality = sed.MunicipalityOutside
		row.Status = statusNoRA
		return row
	}

	e, err := s.registry.Enrollment(ctx, ra)
	if err != nil {
		s.logger.Warn("enrollment lookup failed", map[string]interface{}{
			"line":  line,
			"error": err.Error(),
		})
	}
	row.School = e.School
	row.Municipality = e.Municipality
	row.Status = e.Status
	return row
}
