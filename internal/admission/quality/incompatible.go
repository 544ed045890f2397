package quality

import (
	"context"
	"fmt"
	"html"
	"strings"

	apperrors "preschool-admissions/internal/common/errors"
	"preschool-admissions/internal/common/logger"
	"preschool-admissions/internal/sheets"
)

const (
	colName   = 2  // C
	colOrigin = 15 // P
	colID     = 18 // S
	colAge    = 21 // V
	colPlaced = 24 // Y

	IncompatibleSubject = "Inscrição Pré-Escola 2026 - Incompatibilidade de Idade"
)

// Mailer sends an HTML email.
type Mailer interface {
	SendHTML(ctx context.Context, to, subject, htmlBody string) error
}

// IncompatibleApplicant is a main-sheet row whose age does not fit
// preschool.
type IncompatibleApplicant struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BirthDate string `json:"birthDate"`
	Age       string `json:"age"`
	Origin    string `json:"origin"`
	Line      int    `json:"line"`
	Placed    string `json:"placed"`
	Email     string `json:"email"`
}

type Incompatibles struct {
	store  sheets.Store
	sheet  int
	mailer Mailer
	logger logger.Logger
}

func NewIncompatibles(store sheets.Store, sheet int, mailer Mailer, log logger.Logger) *Incompatibles {
	return &Incompatibles{store: store, sheet: sheet, mailer: mailer, logger: log}
}

// List returns named rows with an age other than 4 or 5 that are not
// placed yet.
func (s *Incompatibles) List(ctx context.Context) ([]IncompatibleApplicant, error) {
	rows, err := s.store.Read(ctx, "A:Z", s.sheet)
	if err != nil {
		return nil, err
	}
	out := []IncompatibleApplicant{}
	if len(rows) < 2 {
		return out, nil
	}

	header := rows[0]
	birthCol := sheets.FindColumn(header, []string{"data de nascimento", "data nascimento", "nascimento"}, -1, true)
	emailCol := sheets.FindColumn(header, []string{"endereço de e-mail", "email", "e-mail"}, 1, false)

	for i, row := range rows[1:] {
		age := strings.TrimSpace(sheets.Cell(row, colAge))
		placed := strings.ToUpper(strings.TrimSpace(sheets.Cell(row, colPlaced)))
		if age == "4" || age == "5" || placed == "SIM" {
			continue
		}
		name := sheets.Cell(row, colName)
		if name == "" {
			continue
		}

		line := i + 2
		id := sheets.Cell(row, colID)
		if id == "" {
			id = fmt.Sprintf("ROW-%d", line)
		}
		if placed == "" {
			placed = "NÃO"
		}
		out = append(out, IncompatibleApplicant{
			ID:        id,
			Name:      name,
			BirthDate: sheets.Cell(row, birthCol),
			Age:       age,
			Origin:    sheets.Cell(row, colOrigin),
			Line:      line,
			Placed:    placed,
			Email:     sheets.Cell(row, emailCol),
		})
	}
	return out, nil
}

// IncompatibleBody renders the age-incompatibility email.
func IncompatibleBody(a IncompatibleApplicant) string {
	return fmt.Sprintf(`<p>Prezados,</p>
<p>Observamos que a inscrição da criança <strong>%s</strong>, data de nascimento <strong>%s</strong>, não tem idade compatível com a pré-escola.</p>
<p>Solicitamos revisar a data de nascimento e, caso esteja correta, deverá refazer a inscrição no formulário correto.</p>
<br>
<p>Atenciosamente,</p>
<p>Equipe de Matrícula</p>`, html.EscapeString(a.Name), html.EscapeString(a.BirthDate))
}

// Resolve emails the applicant's contact and marks the row as handled.
func (s *Incompatibles) Resolve(ctx context.Context, a IncompatibleApplicant) error {
	if strings.TrimSpace(a.Email) == "" {
		return apperrors.NewValidationError("applicant has no contact email")
	}
	if a.Line < 2 {
		return apperrors.NewInvalidInputError(fmt.Sprintf("invalid line %d", a.Line))
	}

	if err := s.mailer.SendHTML(ctx, a.Email, IncompatibleSubject, IncompatibleBody(a)); err != nil {
		return err
	}
	if err := s.store.Write(ctx, fmt.Sprintf("Y%d", a.Line), [][]string{{"SIM"}}, s.sheet); err != nil {
		return err
	}

	s.logger.Info("incompatible applicant notified", map[string]interface{}{
		"id":   a.ID,
		"line": a.Line,
	})
	return nil
}
