package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"preschool-admissions/internal/admission/classification"
	"preschool-admissions/internal/common/config"
	apperrors "preschool-admissions/internal/common/errors"
	"preschool-admissions/internal/common/logger"
	"preschool-admissions/internal/common/observability"
	"preschool-admissions/internal/models"
	"preschool-admissions/internal/sheets"
)

// ==========================
// Fixtures
// ==========================

// Wednesday.
var fixedNow = time.Date(2026, time.October, 21, 10, 0, 0, 0, time.UTC)

var tabs = config.Tabs{
	Main:            0,
	SchoolDirectory: 1,
	Preview:         2,
	Vacancies:       3,
	Classification:  7,
	Mapping:         8,
}

type applicantRow struct {
	id, name, age, reason, shift, placed, deadline, destination string
	prefs                                                       [3]string
}

func mainHeader() []string {
	h := make([]string, 35)
	h[1] = "Endereço de e-mail"
	h[2] = "Nome Completo do(a) Aluno(a)"
	h[13] = "O Endereço informado é"
	h[15] = "Motivo"
	h[17] = "Definir período de atendimento"
	h[18] = "ID"
	h[21] = "IDADE"
	h[24] = "ATENDIDO"
	h[25] = "PRAZO"
	h[26] = "ESCOLA DESTINO"
	h[30] = "Escola 1"
	h[32] = "Escola 2"
	h[34] = "Escola 3"
	return h
}

func (a applicantRow) cells() []string {
	row := make([]string, 35)
	row[1] = a.name + "@example.org"
	row[2] = a.name
	row[13] = "Residencial"
	row[15] = a.reason
	row[17] = a.shift
	row[18] = a.id
	row[21] = a.age
	row[24] = a.placed
	row[25] = a.deadline
	row[26] = a.destination
	row[30] = a.prefs[0]
	row[32] = a.prefs[1]
	row[34] = a.prefs[2]
	return row
}

func newStore(applicants ...applicantRow) *sheets.MemoryStore {
	store := sheets.NewMemoryStore(
		"Respostas", "Escolas", "Prévia", "Vagas", "Aux1", "Aux2", "Aux3", "Classificação", "Mapeamento",
	)

	main := [][]string{mainHeader()}
	for _, a := range applicants {
		main = append(main, a.cells())
	}
	store.SetRows(0, main)

	store.SetRows(1, [][]string{
		{"outDescNomeAbrevEscola", "outEmail"},
		{"CINDERELA", "cinderela@escola.sp.gov.br"},
	})
	store.SetRows(3, [][]string{
		{"#outDescNomeAbrevEscola", "outCodSerieAno", "outDescricaoTurno", "outVagas"},
		{"CINDERELA", "1", "MANHÃ", "3"},
		{"FADA AZUL", "1", "TARDE", "1"},
		{"FADA AZUL", "2", "TARDE", "1"},
	})
	return store
}

func defaultApplicants() []applicantRow {
	return []applicantRow{
		{id: "1", name: "Ana", age: "4", reason: classification.ReasonJoinNetwork, shift: "Manhã", placed: "NÃO", prefs: [3]string{"CINDERELA"}},
		{id: "2", name: "Bia", age: "4", reason: classification.ReasonJoinNetwork, shift: "Parcial", placed: "NÃO", prefs: [3]string{"CINDERELA", "FADA AZUL"}},
		{id: "3", name: "Caio", age: "5", reason: classification.ReasonAddressTransfer, shift: "Tarde", placed: "NÃO", prefs: [3]string{"FADA AZUL"}},
		{id: "4", name: "Duda", age: "4", placed: "SIM", deadline: "25/10/2026", destination: "CINDERELA"},
	}
}

func newService(t *testing.T, store sheets.Store) *Service {
	return NewService(store, nil, tabs, func() time.Time { return fixedNow }, observability.NewNoop(), logger.NewTestLogger(t))
}

// ==========================
// Stages
// ==========================

func TestClassify(t *testing.T) {
	store := newStore(defaultApplicants()...)
	svc := newService(t, store)

	c, err := svc.Classify(context.Background())
	require.NoError(t, err)

	require.Len(t, c.Ranked, 3)
	assert.Equal(t, "1", c.Ranked[0].ID)
	assert.Equal(t, 1, c.Ranked[0].Rank)
	assert.Equal(t, "2", c.Ranked[1].ID)
	assert.Equal(t, 2, c.Ranked[1].Rank)
	assert.Equal(t, "3", c.Ranked[2].ID)
	assert.Equal(t, 1, c.Ranked[2].Rank)
	assert.Equal(t, 4, c.Statistics.Rows)

	require.NoError(t, svc.SaveClassification(context.Background(), c))
	saved := store.Rows(7)
	require.Len(t, saved, 5)
	assert.Equal(t, "ESCOLA", saved[0][0])
	assert.Equal(t, []string{"CINDERELA", "4", "1", "1", "1", "Ana", "Residencial", "Ana@example.org", "cinderela@escola.sp.gov.br", "ESCOLA1"}, saved[1])
}

func TestClassify_EmptySheet(t *testing.T) {
	store := sheets.NewMemoryStore("Respostas", "Escolas")
	svc := newService(t, store)

	_, err := svc.Classify(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeDataUnavailable, apperrors.CodeOf(err))
}

func TestMap(t *testing.T) {
	store := newStore(defaultApplicants()...)
	svc := newService(t, store)
	ctx := context.Background()

	summary, err := svc.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Standard)

	m, err := svc.Map(ctx, summary)
	require.NoError(t, err)
	require.Len(t, m.Rows, 3)
	assert.Equal(t, models.MappingRow{
		School: "CINDERELA", Grade: "1", Shift: "MANHÃ",
		Capacity: 3, Allocated: 1, Remaining: 2,
		Status: models.StatusAvailable, Occupancy: 33.3,
	}, m.Rows[0])
	assert.Equal(t, 5, m.Statistics.TotalCapacity)

	require.NoError(t, svc.SaveMapping(ctx, m))
	saved := store.Rows(8)
	require.Len(t, saved, 4)
	assert.Equal(t, "Escola", saved[0][0])
	assert.Equal(t, "33.3%", saved[1][7])
}

func TestMap_MissingColumn(t *testing.T) {
	store := newStore(defaultApplicants()...)
	store.SetRows(3, [][]string{
		{"outDescNomeAbrevEscola", "outVagas"},
		{"CINDERELA", "3"},
	})

	_, err := newService(t, store).Map(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeConfiguration, apperrors.CodeOf(err))
}

// ==========================
// Full run
// ==========================

func TestCompatibilize_SaveAndPromote(t *testing.T) {
	store := newStore(defaultApplicants()...)
	svc := newService(t, store)
	ctx := context.Background()

	out, err := svc.Compatibilize(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, out.Pending.Total)
	assert.Equal(t, 1, out.Result.Reserved)
	assert.Equal(t, 3, out.Result.Statistics.Matched)
	assert.Equal(t, 0, out.Result.Statistics.Unmatched)

	results := out.Result.Results
	require.Len(t, results, 3)
	assert.Equal(t, "CINDERELA", results[0].School)
	assert.Equal(t, "MANHA", results[0].Shift)
	assert.Equal(t, "FADA AZUL", results[1].School)
	assert.Equal(t, "TARDE", results[1].Shift)
	assert.Equal(t, "FADA AZUL", results[2].School)
	assert.Equal(t, "28/10/2026", results[2].Deadline)

	require.NoError(t, svc.SavePreview(ctx, results))
	preview, err := svc.LoadPreview(ctx)
	require.NoError(t, err)
	require.Len(t, preview, 3)

	saved, err := svc.SaveToMain(ctx, preview)
	require.NoError(t, err)
	assert.Equal(t, 3, saved.Updated)
	assert.Empty(t, saved.NotFound)

	main := store.Rows(0)
	assert.Equal(t, []string{"SIM", "28/10/2026", "CINDERELA"}, main[1][24:27])
	assert.Equal(t, []string{"SIM", "28/10/2026", "FADA AZUL"}, main[2][24:27])
	assert.Equal(t, []string{"SIM", "28/10/2026", "FADA AZUL"}, main[3][24:27])
	assert.Equal(t, "SIM", main[4][24])
}

func TestSaveToMain_NothingMatched(t *testing.T) {
	store := newStore(defaultApplicants()...)
	svc := newService(t, store)

	saved, err := svc.SaveToMain(context.Background(), []models.AllocationResult{{ID: "1"}})
	require.NoError(t, err)
	assert.Equal(t, 0, saved.Updated)
	assert.Empty(t, saved.NotFound)
}

func TestLoadPreview_Empty(t *testing.T) {
	_, err := newService(t, newStore()).LoadPreview(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeDataUnavailable, apperrors.CodeOf(err))
}
