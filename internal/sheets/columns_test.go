package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindColumn(t *testing.T) {
	header := []string{"Carimbo", " IDADE ", "Definir Período de Atendimento", "Email"}

	tests := []struct {
		name     string
		names    []string
		fallback int
		partial  bool
		want     int
	}{
		{"exact case-insensitive", []string{"idade"}, 21, false, 1},
		{"fallback when missing", []string{"PRAZO"}, 25, false, 25},
		{"partial match", []string{"definir período", "turno"}, -1, true, 2},
		{"partial disabled", []string{"período"}, -1, false, -1},
		{"first name wins by header order", []string{"email", "carimbo"}, -1, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindColumn(header, tt.names, tt.fallback, tt.partial))
		})
	}

	assert.Equal(t, 7, FindColumn(nil, []string{"x"}, 7, false))
}

func TestColumnLetter(t *testing.T) {
	tests := map[int]string{0: "A", 18: "S", 25: "Z", 26: "AA", 37: "AL", 701: "ZZ", 702: "AAA"}
	for idx, want := range tests {
		assert.Equal(t, want, ColumnLetter(idx))
		back, err := ColumnIndex(want)
		require.NoError(t, err)
		assert.Equal(t, idx, back)
	}
}

func TestHeader(t *testing.T) {
	h := NewHeader([]string{"#outDescNomeAbrevEscola", "OUTCODSERIEANO", "outVagas", "outDescTurnoClasse"})

	idx, ok := h.Lookup("outDescNomeAbrevEscola")
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	idx, ok = h.Lookup("outCodSerieAno")
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = h.Lookup("outDescricaoTurno")
	assert.False(t, ok)

	name, idx, ok := h.Containing("turno", "periodo")
	require.True(t, ok)
	assert.Equal(t, "outDescTurnoClasse", name)
	assert.Equal(t, 3, idx)
}

func TestParseRange(t *testing.T) {
	start, end, err := parseRange("A1:J10")
	require.NoError(t, err)
	assert.Equal(t, cellRef{col: 0, row: 1}, start)
	assert.Equal(t, cellRef{col: 9, row: 10}, end)

	start, end, err = parseRange("'Main'!Y5:AA5")
	require.NoError(t, err)
	assert.Equal(t, cellRef{col: 24, row: 5}, start)
	assert.Equal(t, cellRef{col: 26, row: 5}, end)

	start, end, err = parseRange("A:AL")
	require.NoError(t, err)
	assert.Equal(t, 0, start.row)
	assert.Equal(t, 37, end.col)

	_, _, err = parseRange("1:2")
	assert.Error(t, err)
}
