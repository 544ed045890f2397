package sed

import (
	"context"
	"net/url"
	"regexp"
	"strings"
)

const (
	StatusActive        = "ATIVO"
	MunicipalityOutside = "Fora da Escola"
	MunicipalityError   = "Erro na consulta"
)

type studentsResponse struct {
	Students []struct {
		RA string `json:"outNumRA"`
	} `json:"outListaAlunos"`
}

type enrollmentsResponse struct {
	Enrollments []struct {
		Status       string `json:"outDescSitMatricula"`
		School       string `json:"outDescNomeAbrevEscola"`
		Municipality string `json:"outMunicipio"`
	} `json:"outListaMatriculas"`
}

// Enrollment is a student's current enrollment summary.
type Enrollment struct {
	School       string `json:"school"`
	Municipality string `json:"municipality"`
	Status       string `json:"status"`
}

func (c *Client) firstRA(ctx context.Context, query url.Values) (string, error) {
	var resp studentsResponse
	if err := c.get(ctx, "students", endpointStudents, query, &resp); err != nil {
		return "", err
	}
	if len(resp.Students) == 0 {
		return "", nil
	}
	return resp.Students[0].RA, nil
}

// FindRA looks a student up by name and birth date (dd/mm/yyyy). An empty
// RA with a nil error means no match.
func (c *Client) FindRA(ctx context.Context, name, birthDate string) (string, error) {
	return c.firstRA(ctx, url.Values{
		"inNomeAluno":      {name},
		"inNomeSocial":     {""},
		"inNomeMae":        {""},
		"inDataNascimento": {birthDate},
	})
}

// FindRAByMother looks a student up by mother's name and birth date.
func (c *Client) FindRAByMother(ctx context.Context, mother, birthDate string) (string, error) {
	return c.firstRA(ctx, url.Values{
		"inNomeAluno":      {""},
		"inNomeSocial":     {""},
		"inNomeMae":        {mother},
		"inDataNascimento": {birthDate},
	})
}

// FindRAByCPF looks a student up by CPF (11 digits).
func (c *Client) FindRAByCPF(ctx context.Context, cpf string) (string, error) {
	return c.firstRA(ctx, url.Values{
		"inNumRG":           {""},
		"inDigitoRG":        {""},
		"inUFRG":            {""},
		"inCPF":             {cpf},
		"inNumNIS":          {""},
		"inNumINEP":         {""},
		"inNumCertidaoNova": {""},
		"CertidaoNasc":      {""},
	})
}

// Enrollment returns the student's first enrollment. Inactive or missing
// enrollments report the student as out of school.
func (c *Client) Enrollment(ctx context.Context, ra string) (Enrollment, error) {
	var resp enrollmentsResponse
	err := c.get(ctx, "enrollments", endpointEnrollments, url.Values{
		"inNumRA":     {ra},
		"inDigitoRA":  {""},
		"inSiglaUFRA": {"SP"},
	}, &resp)
	if err != nil {
		return Enrollment{Municipality: MunicipalityError, Status: "ERRO"}, err
	}

	if len(resp.Enrollments) == 0 {
		return Enrollment{Municipality: MunicipalityOutside, Status: "SEM_MATRICULA"}, nil
	}
	e := resp.Enrollments[0]
	if e.Status == StatusActive {
		return Enrollment{School: e.School, Municipality: e.Municipality, Status: StatusActive}, nil
	}
	status := e.Status
	if status == "" {
		status = "INATIVO"
	}
	return Enrollment{Municipality: MunicipalityOutside, Status: status}, nil
}

// Student carries the identifying fields used by the RA cascade.
type Student struct {
	Name      string
	BirthDate string
	CPF       string
	Mother    string
}

// Match is the outcome of an RA cascade.
type Match struct {
	RA     string `json:"ra"`
	Method string `json:"method"`
	Status string `json:"status"`
}

var (
	nonDigit = regexp.MustCompile(`\D`)
	dmySlash = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	ymdDash  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dmyDash  = regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`)
)

// NormalizeBirthDate accepts dd/mm/yyyy, yyyy-mm-dd and dd-mm-yyyy and
// returns dd/mm/yyyy.
func NormalizeBirthDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	switch {
	case dmySlash.MatchString(s):
		return s, true
	case ymdDash.MatchString(s):
		p := strings.Split(s, "-")
		return p[2] + "/" + p[1] + "/" + p[0], true
	case dmyDash.MatchString(s):
		return strings.ReplaceAll(s, "-", "/"), true
	default:
		return "", false
	}
}

// DigitsOnly strips everything but digits.
func DigitsOnly(s string) string {
	return nonDigit.ReplaceAllString(s, "")
}

// FindRACascade tries name and birth date, then mother and birth date, then
// CPF. Lookup errors move on to the next method.
func (c *Client) FindRACascade(ctx context.Context, s Student) Match {
	birth, validBirth := NormalizeBirthDate(s.BirthDate)
	cpf := DigitsOnly(s.CPF)

	attempts := []struct {
		method string
		ok     bool
		find   func() (string, error)
	}{
		{"Nome", s.Name != "" && validBirth, func() (string, error) { return c.FindRA(ctx, s.Name, birth) }},
		{"Mãe", s.Mother != "" && validBirth, func() (string, error) { return c.FindRAByMother(ctx, s.Mother, birth) }},
		{"CPF", len(cpf) == 11, func() (string, error) { return c.FindRAByCPF(ctx, cpf) }},
	}

	for _, a := range attempts {
		if !a.ok {
			continue
		}
		ra, err := a.find()
		if err != nil {
			c.logger.Warn("registry lookup failed", map[string]interface{}{
				"method": a.method,
				"error":  err.Error(),
			})
			continue
		}
		if ra != "" {
			return Match{RA: ra, Method: a.method, Status: "Encontrado por " + a.method}
		}
	}
	return Match{Status: "Não encontrado"}
}
