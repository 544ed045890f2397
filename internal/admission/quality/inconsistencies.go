// Package quality repairs and reports main-sheet rows whose answers
// contradict each other.
package quality

import (
	"context"
	"fmt"
	"strings"

	"preschool-admissions/internal/admission/classification"
	apperrors "preschool-admissions/internal/common/errors"
	"preschool-admissions/internal/common/logger"
	"preschool-admissions/internal/common/textnorm"
	"preschool-admissions/internal/sed"
	"preschool-admissions/internal/sheets"
)

const (
	colReason = 15 // P
	colCity   = 23 // X

	homeCity      = "SAO JOSE DO RIO PRETO"
	headerLine    = 2
	kindInCity    = "join network while living in the city"
	kindOutOfCity = "out of school without joining the network"
)

// Inconsistency is one corrected row.
type Inconsistency struct {
	Line       int    `json:"line"`
	Kind       string `json:"kind"`
	Previous   string `json:"previous"`
	City       string `json:"city"`
	Correction string `json:"correction"`
}

// FixResult reports one inconsistency pass.
type FixResult struct {
	Checked         int             `json:"checked"`
	Found           int             `json:"found"`
	Corrected       int             `json:"corrected"`
	Inconsistencies []Inconsistency `json:"inconsistencies"`
}

type Fixer struct {
	store  sheets.Store
	sheet  int
	logger logger.Logger
}

func NewFixer(store sheets.Store, sheet int, log logger.Logger) *Fixer {
	return &Fixer{store: store, sheet: sheet, logger: log}
}

// Fix checks lines [start, end] of the main tab and rewrites the enrollment
// reason where it contradicts the city. Starting at line 2 treats that line
// as the header.
func (f *Fixer) Fix(ctx context.Context, start, end int) (*FixResult, error) {
	if start < 1 || end < start {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("invalid line range %d-%d", start, end))
	}

	rows, err := f.store.Read(ctx, fmt.Sprintf("A%d:Z%d", start, end), f.sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.NewDataUnavailableError(fmt.Sprintf("lines %d-%d", start, end))
	}

	firstLine := start
	if start == headerLine {
		rows = rows[1:]
		firstLine = start + 1
	} else {
		header, err := f.store.Read(ctx, fmt.Sprintf("A%d:Z%d", headerLine, headerLine), f.sheet)
		if err != nil {
			return nil, err
		}
		if len(header) == 0 {
			return nil, apperrors.NewDataUnavailableError("header line")
		}
	}

	res := &FixResult{Checked: len(rows), Inconsistencies: []Inconsistency{}}
	var updates []sheets.Update
	for i, row := range rows {
		line := firstLine + i
		reason := strings.TrimSpace(sheets.Cell(row, colReason))
		city := strings.TrimSpace(sheets.Cell(row, colCity))

		inc, ok := check(reason, city)
		if !ok {
			continue
		}
		inc.Line = line
		res.Inconsistencies = append(res.Inconsistencies, inc)
		updates = append(updates, sheets.Update{
			Range:  fmt.Sprintf("P%d", line),
			Values: [][]string{{inc.Correction}},
		})
	}
	res.Found = len(res.Inconsistencies)

	if len(updates) > 0 {
		title, err := f.store.SheetTitle(ctx, f.sheet)
		if err != nil {
			return nil, err
		}
		res.Corrected, err = f.store.BatchWrite(ctx, title, updates)
		if err != nil {
			return nil, err
		}
	}

	f.logger.Info("inconsistencies checked", map[string]interface{}{
		"checked":   res.Checked,
		"found":     res.Found,
		"corrected": res.Corrected,
	})
	return res, nil
}

// check applies both rules. Someone living in the city cannot join the
// network from outside; someone out of school must join it.
func check(reason, city string) (Inconsistency, bool) {
	switch {
	case reason == classification.ReasonJoinNetwork && textnorm.Fold(city) == homeCity:
		return Inconsistency{
			Kind:       kindInCity,
			Previous:   reason,
			City:       city,
			Correction: classification.ReasonAddressTransfer,
		}, true
	case reason != classification.ReasonJoinNetwork && city == sed.MunicipalityOutside:
		return Inconsistency{
			Kind:       kindOutOfCity,
			Previous:   reason,
			City:       city,
			Correction: classification.ReasonJoinNetwork,
		}, true
	default:
		return Inconsistency{}, false
	}
}
