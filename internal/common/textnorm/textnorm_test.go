package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Manhã", "MANHA"},
		{"  integral ", "INTEGRAL"},
		{"São José do Rio Preto", "SAO JOSE DO RIO PRETO"},
		{"PAULO JOSÉ FROES", "PAULO JOSE FROES"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.in))
		})
	}
}

func TestEqualFold(t *testing.T) {
	assert.True(t, EqualFold("Paulo José Froes", "PAULO JOSE FROES"))
	assert.False(t, EqualFold("CINDERELA", "FADA AZUL"))
}

func TestCompare(t *testing.T) {
	assert.Negative(t, Compare("4", "5"))
	assert.Positive(t, Compare("b", "A"))
	assert.Negative(t, Compare("Águia", "Borboleta"))
	assert.Zero(t, Compare("x", "x"))
}

func TestLeadingInt(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"42", 42, true},
		{" 007 ", 7, true},
		{"12abc", 12, true},
		{"-3", -3, true},
		{"abc", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			n, ok := LeadingInt(tt.in)
			assert.Equal(t, tt.want, n)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}
