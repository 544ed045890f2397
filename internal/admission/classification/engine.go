// Package classification ranks applicants that have not been placed yet.
package classification

import (
	"sort"
	"strings"

	apperrors "preschool-admissions/internal/common/errors"
	"preschool-admissions/internal/common/logger"
	"preschool-admissions/internal/common/textnorm"
	"preschool-admissions/internal/models"
	"preschool-admissions/internal/sheets"
)

// Enrollment reasons as they appear in the form. The second one keeps the
// form's spelling.
const (
	ReasonJoinNetwork      = "Ingressar na Rede Pública (disponibiliza a vaga até 2 km de distância do endereço)"
	ReasonAddressTransfer  = "Transferência - Mudança de Endereço (disponibliza a vaga até 2 km de distância do endereço)"
	ReasonTransferInterest = "Intenção de Transferência (Selecione uma Unidade Escolar de interesse - Atendimento não prioritário)"
)

var reasonPriority = map[string]int{
	ReasonJoinNetwork:      1,
	ReasonAddressTransfer:  2,
	ReasonTransferInterest: 3,
}

var preferenceTags = [3]string{"ESCOLA1", "ESCOLA2", "ESCOLA3"}

// PriorityFor maps an enrollment reason to its priority class; unknown
// reasons rank last.
func PriorityFor(reason string) int {
	if p, ok := reasonPriority[reason]; ok {
		return p
	}
	return 4
}

// AddressPriorityFor ranks residential addresses before professional ones.
func AddressPriorityFor(addressType string) int {
	switch addressType {
	case "Residencial":
		return 1
	case "Profissional":
		return 2
	default:
		return 3
	}
}

type Engine struct {
	logger logger.Logger
}

func NewEngine(log logger.Logger) *Engine {
	return &Engine{logger: log}
}

// ParseApplicants turns the main sheet (header first) into applicants that
// are still waiting for a seat. When no row is marked as waiting every row
// is used.
func (e *Engine) ParseApplicants(rows [][]string) ([]models.Applicant, error) {
	if len(rows) == 0 {
		return nil, apperrors.NewDataUnavailableError("applicant sheet")
	}

	header, data := rows[0], rows[1:]
	cols := resolveColumns(header, e.logger)

	waiting := make([]int, 0, len(data))
	for i, row := range data {
		if strings.ToUpper(strings.TrimSpace(sheets.Cell(row, colPlaced))) == "NÃO" {
			waiting = append(waiting, i)
		}
	}
	if len(waiting) == 0 {
		e.logger.Warn("no applicant marked as waiting, classifying every row", map[string]interface{}{
			"rows": len(data),
		})
		for i := range data {
			waiting = append(waiting, i)
		}
	}
	if len(waiting) == 0 {
		return nil, apperrors.NewDataUnavailableError("applicant sheet")
	}

	applicants := make([]models.Applicant, 0, len(waiting))
	for _, i := range waiting {
		applicants = append(applicants, parseApplicant(data[i], i+2, cols))
	}
	return applicants, nil
}

func parseApplicant(row []string, line int, cols columns) models.Applicant {
	reason := sheets.Cell(row, colReason)
	addressType := sheets.Cell(row, colAddressType)
	return models.Applicant{
		Row:  line,
		ID:   sheets.Cell(row, colID),
		Name: sheets.Cell(row, colName),
		Age:  strings.TrimSpace(sheets.Cell(row, cols.age)),
		Preferences: [3]string{
			sheets.Cell(row, colPreference1),
			sheets.Cell(row, colPreference2),
			sheets.Cell(row, colPreference3),
		},
		RequestedShift:  sheets.Cell(row, cols.shift),
		Reason:          reason,
		Priority:        PriorityFor(reason),
		AddressType:     addressType,
		AddressPriority: AddressPriorityFor(addressType),
		Email:           sheets.Cell(row, colEmail),
		Timestamp:       sheets.Cell(row, colTimestamp),
		City:            sheets.Cell(row, colCity),
	}
}

// Rank orders applicants by age cohort, priority class, address priority
// and numeric id, numbering each age cohort from 1.
func (e *Engine) Rank(applicants []models.Applicant) []models.RankedApplicant {
	ranked := make([]models.RankedApplicant, len(applicants))
	for i, a := range applicants {
		ranked[i] = models.RankedApplicant{Applicant: a}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Age != b.Age {
			return textnorm.Compare(a.Age, b.Age) < 0
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if a.AddressPriority != b.AddressPriority {
			return a.AddressPriority < b.AddressPriority
		}
		return textnorm.IntOrZero(a.ID) < textnorm.IntOrZero(b.ID)
	})

	rank := 1
	for i := range ranked {
		if i > 0 && ranked[i].Age != ranked[i-1].Age {
			rank = 1
		}
		ranked[i].Rank = rank
		rank++
	}
	return ranked
}

// Expand emits one row per non-empty preference and ranks each
// (school, age) pair independently. directory maps school names to
// contact emails.
func (e *Engine) Expand(ranked []models.RankedApplicant, directory map[string]string) []models.DestinationRanking {
	type expanded struct {
		applicant *models.RankedApplicant
		school    string
		tag       string
	}

	rows := make([]expanded, 0, len(ranked)*3)
	for i := range ranked {
		for p, school := range ranked[i].Preferences {
			if school == "" {
				continue
			}
			rows = append(rows, expanded{applicant: &ranked[i], school: school, tag: preferenceTags[p]})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.school != b.school {
			return textnorm.Compare(a.school, b.school) < 0
		}
		if a.applicant.Age != b.applicant.Age {
			return textnorm.Compare(a.applicant.Age, b.applicant.Age) < 0
		}
		if a.applicant.Priority != b.applicant.Priority {
			return a.applicant.Priority < b.applicant.Priority
		}
		return textnorm.IntOrZero(a.applicant.ID) < textnorm.IntOrZero(b.applicant.ID)
	})

	out := make([]models.DestinationRanking, len(rows))
	rank := 1
	for i, r := range rows {
		if i > 0 && (r.school != rows[i-1].school || r.applicant.Age != rows[i-1].applicant.Age) {
			rank = 1
		}
		out[i] = models.DestinationRanking{
			School:        r.school,
			Age:           r.applicant.Age,
			Rank:          rank,
			Priority:      r.applicant.Priority,
			ID:            r.applicant.ID,
			Name:          r.applicant.Name,
			AddressType:   r.applicant.AddressType,
			Email:         r.applicant.Email,
			SchoolEmail:   directory[r.school],
			PreferenceTag: r.tag,
		}
		rank++
	}
	return out
}

// ParseDirectory reads the school directory sheet into name → email.
// A missing name column yields an empty directory.
func (e *Engine) ParseDirectory(rows [][]string) map[string]string {
	directory := make(map[string]string)
	if len(rows) < 2 {
		return directory
	}

	header := rows[0]
	nameCol := sheets.FindColumn(header, []string{"outDescNomeEscola", "outDescNomeAbrevEscola", "Escola", "Nome"}, -1, false)
	emailCol := sheets.FindColumn(header, []string{"outEmail", "Email", "E-mail"}, colSchoolEmail, false)
	if nameCol == -1 {
		e.logger.Warn("school name column not found in directory", nil)
		return directory
	}

	for _, row := range rows[1:] {
		name := strings.TrimSpace(sheets.Cell(row, nameCol))
		email := strings.TrimSpace(sheets.Cell(row, emailCol))
		if name != "" && email != "" {
			directory[name] = email
		}
	}
	return directory
}

// Rows renders the per-school ranking as the persisted table.
func Rows(rankings []models.DestinationRanking) [][]string {
	out := make([][]string, 0, len(rankings)+1)
	out = append(out, []string{
		"ESCOLA", "IDADE", "Ordem de Classificação", "Prioridade", "ID",
		"Nome Completo do(a) Aluno(a)", "O Endereço informado é",
		"Endereço de e-mail", "Email da Escola", "ESCOLA_PREFERENCIA",
	})
	for _, r := range rankings {
		out = append(out, []string{
			r.School, r.Age, itoa(r.Rank), itoa(r.Priority), r.ID,
			r.Name, r.AddressType, r.Email, r.SchoolEmail, r.PreferenceTag,
		})
	}
	return out
}
