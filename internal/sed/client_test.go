package sed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"preschool-admissions/internal/common/config"
	apperrors "preschool-admissions/internal/common/errors"
	"preschool-admissions/internal/common/logger"
)

// ==========================
// Test registry
// ==========================

type fakeRegistry struct {
	logins   atomic.Int32
	token    atomic.Value
	students func(q map[string]string) []string
	handlers map[string]http.HandlerFunc
}

func newFakeRegistry(t *testing.T) (*fakeRegistry, *httptest.Server) {
	f := &fakeRegistry{handlers: map[string]http.HandlerFunc{}}
	f.token.Store("tok-1")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == endpointLogin {
			user, pass, ok := r.BasicAuth()
			if !ok || user != "system" || pass != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			f.logins.Add(1)
			writeJSON(w, map[string]string{"outAutenticacao": f.token.Load().(string)})
			return
		}

		if r.Header.Get("Authorization") != "Bearer "+f.token.Load().(string) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		if h, ok := f.handlers[r.URL.Path]; ok {
			h(w, r)
			return
		}
		if r.URL.Path == endpointStudents && f.students != nil {
			q := map[string]string{}
			for k := range r.URL.Query() {
				q[k] = r.URL.Query().Get(k)
			}
			var list []map[string]string
			for _, ra := range f.students(q) {
				list = append(list, map[string]string{"outNumRA": ra})
			}
			writeJSON(w, map[string]interface{}{"outListaAlunos": list})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, baseURL string, cache TokenCache) *Client {
	return NewClient(config.RegistryConfig{
		BaseURL:      baseURL,
		User:         "system",
		Password:     "secret",
		SchoolYear:   "2026",
		Municipality: "9659",
		Board:        "20710",
		Network:      "2",
		Timeout:      5000,
		BatchSize:    2,
	}, cache, logger.NewTestLogger(t))
}

// ==========================
// Authentication
// ==========================

func TestClient_TokenIsCached(t *testing.T) {
	f, srv := newFakeRegistry(t)
	f.students = func(map[string]string) []string { return []string{"000123"} }
	client := newTestClient(t, srv.URL, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ra, err := client.FindRA(ctx, "ANA", "01/02/2021")
		require.NoError(t, err)
		assert.Equal(t, "000123", ra)
	}
	assert.Equal(t, int32(1), f.logins.Load())
}

func TestClient_ExpiredTokenLogsInAgain(t *testing.T) {
	f, srv := newFakeRegistry(t)
	f.students = func(map[string]string) []string { return nil }
	client := newTestClient(t, srv.URL, nil)
	ctx := context.Background()

	_, err := client.FindRA(ctx, "ANA", "01/02/2021")
	require.NoError(t, err)

	f.token.Store("tok-2")
	_, err = client.FindRA(ctx, "ANA", "01/02/2021")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeRegistryUnavailable, apperrors.CodeOf(err))

	_, err = client.FindRA(ctx, "ANA", "01/02/2021")
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.logins.Load())
}

func TestClient_LoginOtherUserIsNotCached(t *testing.T) {
	_, srv := newFakeRegistry(t)
	cache := NewMemoryTokenCache(nil)
	client := newTestClient(t, srv.URL, cache)
	ctx := context.Background()

	_, err := client.Login(ctx, "someone", "else")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeRegistryAuthFailed, apperrors.CodeOf(err))

	token, err := client.Login(ctx, "system", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	cached, ok, _ := cache.Get(ctx, "system")
	assert.True(t, ok)
	assert.Equal(t, "tok-1", cached)
	_, ok, _ = cache.Get(ctx, "someone")
	assert.False(t, ok)
}

func TestClient_MissingCredentials(t *testing.T) {
	client := NewClient(config.RegistryConfig{BaseURL: "http://127.0.0.1:0"}, nil, logger.NewTestLogger(t))

	_, err := client.Schools(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeConfiguration, apperrors.CodeOf(err))
}

// ==========================
// Lookups
// ==========================

func TestFindRACascade(t *testing.T) {
	tests := []struct {
		name     string
		student  Student
		byName   []string
		byMother []string
		byCPF    []string
		want     Match
	}{
		{
			name:    "found by name",
			student: Student{Name: "ANA", BirthDate: "2021-02-01"},
			byName:  []string{"111"},
			want:    Match{RA: "111", Method: "Nome", Status: "Encontrado por Nome"},
		},
		{
			name:     "falls back to mother",
			student:  Student{Name: "ANA", BirthDate: "01-02-2021", Mother: "MARIA"},
			byMother: []string{"222"},
			want:     Match{RA: "222", Method: "Mãe", Status: "Encontrado por Mãe"},
		},
		{
			name:    "falls back to cpf",
			student: Student{Name: "ANA", BirthDate: "01/02/2021", Mother: "MARIA", CPF: "123.456.789-01"},
			byCPF:   []string{"333"},
			want:    Match{RA: "333", Method: "CPF", Status: "Encontrado por CPF"},
		},
		{
			name:    "invalid date and short cpf",
			student: Student{Name: "ANA", BirthDate: "1/2/21", CPF: "123"},
			byName:  []string{"111"},
			want:    Match{Status: "Não encontrado"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, srv := newFakeRegistry(t)
			f.students = func(q map[string]string) []string {
				switch {
				case q["inCPF"] != "":
					assert.Equal(t, "12345678901", q["inCPF"])
					return tt.byCPF
				case q["inNomeAluno"] != "":
					assert.Equal(t, "01/02/2021", q["inDataNascimento"])
					return tt.byName
				default:
					return tt.byMother
				}
			}

			got := newTestClient(t, srv.URL, nil).FindRACascade(context.Background(), tt.student)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnrollment(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Enrollment
	}{
		{
			name: "active",
			body: `{"outListaMatriculas":[{"outDescSitMatricula":"ATIVO","outDescNomeAbrevEscola":"CINDERELA","outMunicipio":"SAO JOSE DO RIO PRETO"}]}`,
			want: Enrollment{School: "CINDERELA", Municipality: "SAO JOSE DO RIO PRETO", Status: "ATIVO"},
		},
		{
			name: "inactive",
			body: `{"outListaMatriculas":[{"outDescSitMatricula":"BAIXA - TRANSFERENCIA"}]}`,
			want: Enrollment{Municipality: MunicipalityOutside, Status: "BAIXA - TRANSFERENCIA"},
		},
		{
			name: "none",
			body: `{"outListaMatriculas":[]}`,
			want: Enrollment{Municipality: MunicipalityOutside, Status: "SEM_MATRICULA"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, srv := newFakeRegistry(t)
			f.handlers[endpointEnrollments] = func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "000123", r.URL.Query().Get("inNumRA"))
				assert.Equal(t, "SP", r.URL.Query().Get("inSiglaUFRA"))
				_, _ = w.Write([]byte(tt.body))
			}

			got, err := newTestClient(t, srv.URL, nil).Enrollment(context.Background(), "000123")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnrollment_Error(t *testing.T) {
	f, srv := newFakeRegistry(t)
	f.handlers[endpointEnrollments] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}

	got, err := newTestClient(t, srv.URL, nil).Enrollment(context.Background(), "1")
	require.Error(t, err)
	assert.Equal(t, MunicipalityError, got.Municipality)
}

func TestNormalizeBirthDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"01/02/2021", "01/02/2021", true},
		{"2021-02-01", "01/02/2021", true},
		{"01-02-2021", "01/02/2021", true},
		{" 01/02/2021 ", "01/02/2021", true},
		{"1/2/2021", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeBirthDate(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

// ==========================
// Vacancy data
// ==========================

func TestSchools(t *testing.T) {
	f, srv := newFakeRegistry(t)
	f.handlers[endpointSchools] = func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "9659", r.URL.Query().Get("inCodMunicipio"))
		assert.Equal(t, "20710", r.URL.Query().Get("inCodDiretoria"))
		assert.Equal(t, "2", r.URL.Query().Get("inCodRedeEnsino"))
		_, _ = w.Write([]byte(`{"outEscolas":[{"outCodEscola":"035001"},{"outCodEscola":35002},{"outCodEscola":""}]}`))
	}

	codes, err := newTestClient(t, srv.URL, nil).Schools(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"035001", "35002"}, codes)
}

func TestClasses_KeepsFieldOrderAndSkipsFailures(t *testing.T) {
	f, srv := newFakeRegistry(t)
	var inFlight, peak atomic.Int32
	f.handlers[endpointClasses] = func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)

		assert.Equal(t, "2026", r.URL.Query().Get("inAnoLetivo"))
		assert.Equal(t, "6", r.URL.Query().Get("inCodTipoEnsino"))

		switch code := r.URL.Query().Get("inCodEscola"); code {
		case "bad":
			w.WriteHeader(http.StatusInternalServerError)
		case "empty":
			_, _ = w.Write([]byte(`{"outDescNomeAbrevEscola":"VAZIA"}`))
		default:
			body := `{"outDescNomeAbrevEscola":["ESCOLA","` + strings.ToUpper(code) + `"],"outClasses":[` +
				`{"outNumClasse":281,"outCodSerieAno":"1","outCodTurno":"1","outDescTurno":["MANHÃ"],"outQtdAtual":null}]}`
			_, _ = w.Write([]byte(body))
		}
	}

	got, err := newTestClient(t, srv.URL, nil).Classes(context.Background(), []string{"a", "bad", "b", "empty", "c"})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "a", got[0].Code)
	assert.Equal(t, "ESCOLA, A", got[0].Name)
	assert.Equal(t, "c", got[2].Code)
	require.Len(t, got[0].Classes, 1)
	assert.Equal(t, Class{
		{Name: "outNumClasse", Value: "281"},
		{Name: "outCodSerieAno", Value: "1"},
		{Name: "outCodTurno", Value: "1"},
		{Name: "outDescTurno", Value: "MANHÃ"},
		{Name: "outQtdAtual", Value: ""},
	}, got[0].Classes[0])
	assert.Equal(t, "MANHÃ", got[0].Classes[0].Get("outDescTurno"))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}
