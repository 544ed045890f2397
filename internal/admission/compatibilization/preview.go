package compatibilization

import (
	"strconv"
	"strings"

	"preschool-admissions/internal/common/textnorm"
	"preschool-admissions/internal/models"
	"preschool-admissions/internal/sheets"
)

const (
	answerYes = "SIM"
	answerNo  = "NÃO"
)

var previewHeader = []string{
	"ID", "NOME", "ESCOLA1", "ESCOLA2", "ESCOLA3", "IDADE", "ATENDIDO",
	"ESCOLA DESTINO", "PRAZO", "VAGAS RESTANTES", "MOTIVO",
}

// Rows renders results as the preview table.
func Rows(results []models.AllocationResult) [][]string {
	out := make([][]string, 0, len(results)+1)
	out = append(out, previewHeader)
	for _, r := range results {
		matched := answerNo
		if r.Matched {
			matched = answerYes
		}
		out = append(out, []string{
			r.ID, r.Name, r.Preferences[0], r.Preferences[1], r.Preferences[2], r.Age,
			matched, r.School, r.Deadline, strconv.Itoa(r.RemainingAfterMatch), r.Reason,
		})
	}
	return out
}

// ParsePreview reads a saved preview table back into results.
func ParsePreview(rows [][]string) []models.AllocationResult {
	if len(rows) < 2 {
		return nil
	}

	header := rows[0]
	col := func(name string, fallback int) int {
		return sheets.FindColumn(header, []string{name}, fallback, false)
	}
	var (
		id        = col("ID", 0)
		name      = col("NOME", 1)
		school1   = col("ESCOLA1", 2)
		school2   = col("ESCOLA2", 3)
		school3   = col("ESCOLA3", 4)
		age       = col("IDADE", 5)
		matched   = col("ATENDIDO", 6)
		school    = col("ESCOLA DESTINO", 7)
		deadline  = col("PRAZO", 8)
		remaining = col("VAGAS RESTANTES", 9)
		reason    = col("MOTIVO", 10)
	)

	out := make([]models.AllocationResult, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		out = append(out, models.AllocationResult{
			ID:   strings.TrimSpace(sheets.Cell(row, id)),
			Name: sheets.Cell(row, name),
			Preferences: [3]string{
				sheets.Cell(row, school1),
				sheets.Cell(row, school2),
				sheets.Cell(row, school3),
			},
			Age:                 sheets.Cell(row, age),
			Matched:             strings.ToUpper(strings.TrimSpace(sheets.Cell(row, matched))) == answerYes,
			School:              sheets.Cell(row, school),
			Deadline:            sheets.Cell(row, deadline),
			RemainingAfterMatch: textnorm.IntOrZero(sheets.Cell(row, remaining)),
			Reason:              sheets.Cell(row, reason),
		})
	}
	return out
}

// MainSheetUpdates maps matched results onto main-sheet rows through the
// id column. ids are read from column S starting at row 1.
func MainSheetUpdates(results []models.AllocationResult, idColumn [][]string) ([]sheets.Update, []string) {
	rowByID := make(map[string]int, len(idColumn))
	for i, row := range idColumn {
		if len(row) > 0 && strings.TrimSpace(row[0]) != "" {
			rowByID[strings.TrimSpace(row[0])] = i + 1
		}
	}

	var updates []sheets.Update
	notFound := []string{}
	for _, r := range results {
		if !r.Matched || r.ID == "" {
			continue
		}
		line, ok := rowByID[strings.TrimSpace(r.ID)]
		if !ok {
			notFound = append(notFound, r.ID)
			continue
		}
		n := strconv.Itoa(line)
		updates = append(updates, sheets.Update{
			Range:  "Y" + n + ":AA" + n,
			Values: [][]string{{answerYes, r.Deadline, r.School}},
		})
	}
	return updates, notFound
}
