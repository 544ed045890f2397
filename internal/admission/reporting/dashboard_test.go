package reporting

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"preschool-admissions/internal/common/logger"
	"preschool-admissions/internal/sheets"
)

type failingTab struct {
	*sheets.MemoryStore
	sheet int
}

func (f failingTab) Read(ctx context.Context, rng string, sheet int) ([][]string, error) {
	if sheet == f.sheet {
		return nil, errors.New("quota exceeded")
	}
	return f.MemoryStore.Read(ctx, rng, sheet)
}

func fixtureStore() *sheets.MemoryStore {
	store := sheets.NewMemoryStore("Respostas", "Escolas", "Prévia", "Vagas")
	store.SetRows(0, [][]string{
		{"Nome", "ESCOLA", "ATENDIDO", "PRAZO"},
		{"Ana", "CINDERELA", "SIM", "28/10/2026"},
		{"Bia", "", "sim", " "},
		{"Caio", "", "NÃO", ""},
		{},
		{"Duda", "FADA AZUL", "SIM", ""},
	})
	store.SetRows(3, [][]string{
		{"outDescNomeAbrevEscola", "outVagas"},
		{"CINDERELA", "2"},
		{"FADA AZUL", "-1"},
		{"FADA AZUL", "abc"},
	})
	return store
}

func TestMetrics(t *testing.T) {
	d := NewDashboard(fixtureStore(), 0, 3, logger.NewTestLogger(t))

	m, err := d.Metrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Metrics{
		TotalApplicants:    4,
		AvailableVacancies: 1,
		Cancelled:          2,
		Compatibilized:     2,
	}, m)
}

func TestMetrics_VacancyTabUnreadable(t *testing.T) {
	store := failingTab{MemoryStore: fixtureStore(), sheet: 3}
	d := NewDashboard(store, 0, 3, logger.NewTestLogger(t))

	m, err := d.Metrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, m.AvailableVacancies)
	assert.Equal(t, 4, m.TotalApplicants)
}

func TestMetrics_MainTabUnreadable(t *testing.T) {
	store := failingTab{MemoryStore: fixtureStore(), sheet: 0}
	d := NewDashboard(store, 0, 3, logger.NewTestLogger(t))

	_, err := d.Metrics(context.Background())
	assert.Error(t, err)
}

func TestMetrics_DestinationColumn(t *testing.T) {
	store := sheets.NewMemoryStore("Respostas", "Escolas", "Prévia", "Vagas")
	store.SetRows(0, [][]string{
		{"Nome", "ATENDIDO", "PRAZO", "ESCOLA DESTINO"},
		{"Ana", "SIM", "28/10/2026", "CINDERELA"},
		{"Bia", "NÃO"},
	})

	m, err := NewDashboard(store, 0, 3, logger.NewTestLogger(t)).Metrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, m.TotalApplicants)
	assert.Equal(t, 1, m.Compatibilized)
	assert.Equal(t, 0, m.AvailableVacancies)
}

func TestMetrics_FormLayoutDestinationBeyondZ(t *testing.T) {
	header := make([]string, 30)
	header[2] = "Nome Completo do(a) Aluno(a)"
	header[24] = "ATENDIDO"
	header[25] = "PRAZO"
	header[26] = "ESCOLA DESTINO"

	placed := make([]string, 30)
	placed[2] = "Ana"
	placed[24] = "SIM"
	placed[25] = "28/10/2026"
	placed[26] = "CINDERELA"

	waiting := make([]string, 30)
	waiting[2] = "Bia"
	waiting[24] = "NÃO"

	store := sheets.NewMemoryStore("Respostas", "Escolas", "Prévia", "Vagas")
	store.SetRows(0, [][]string{header, placed, waiting})

	m, err := NewDashboard(store, 0, 3, logger.NewTestLogger(t)).Metrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, m.TotalApplicants)
	assert.Equal(t, 1, m.Compatibilized)
	assert.Zero(t, m.Cancelled)
}
