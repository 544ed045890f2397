// Package sed talks to the state student registry (Secretaria Escolar
// Digital) API.
package sed

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"preschool-admissions/internal/common/config"
	apperrors "preschool-admissions/internal/common/errors"
	apphttp "preschool-admissions/internal/common/http"
	"preschool-admissions/internal/common/logger"
	"preschool-admissions/internal/common/metrics"
)

const (
	endpointLogin       = "/Usuario/ValidarUsuario"
	endpointStudents    = "/Aluno/ListarAlunos"
	endpointEnrollments = "/Matricula/ListarMatriculasRA"
	endpointSchools     = "/DadosBasicos/EscolasPorMunicipio"
	endpointClasses     = "/RelacaoAlunosClasse/RelacaoClasses"

	defaultTokenTTL  = 29 * time.Minute
	defaultBatchSize = 10
	preschoolType    = "6"
)

// Settings are the registry filters used by vacancy queries.
type Settings struct {
	SchoolYear   string
	Municipality string
	Board        string
	Network      string
	BatchSize    int
}

type Client struct {
	http     *apphttp.Client
	user     string
	password string
	cache    TokenCache
	tokenTTL time.Duration
	settings Settings
	logger   logger.Logger
}

// NewClient builds a registry client. cache may be nil, in which case a
// process-local cache is used.
func NewClient(cfg config.RegistryConfig, cache TokenCache, log logger.Logger) *Client {
	if cache == nil {
		cache = NewMemoryTokenCache(nil)
	}
	ttl := config.GetDuration(cfg.TokenTTL)
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}

	return &Client{
		http:     apphttp.NewClient(cfg.BaseURL, config.GetDuration(cfg.Timeout)),
		user:     cfg.User,
		password: cfg.Password,
		cache:    cache,
		tokenTTL: ttl,
		settings: Settings{
			SchoolYear:   cfg.SchoolYear,
			Municipality: cfg.Municipality,
			Board:        cfg.Board,
			Network:      cfg.Network,
			BatchSize:    batch,
		},
		logger: log,
	}
}

type loginResponse struct {
	Token string `json:"outAutenticacao"`
}

// Login validates a user against the registry and returns its session
// token. Only the system user's token is cached.
func (c *Client) Login(ctx context.Context, user, password string) (string, error) {
	var resp loginResponse
	err := c.http.GetJSON(ctx, endpointLogin, nil, apphttp.BasicAuth(user, password), &resp)
	if err != nil {
		metrics.RegistryRequests.WithLabelValues("login", "error").Inc()
		return "", apperrors.NewRegistryAuthError(err)
	}
	if resp.Token == "" {
		metrics.RegistryRequests.WithLabelValues("login", "error").Inc()
		return "", apperrors.NewRegistryAuthError(errors.New("token not found in response"))
	}
	metrics.RegistryRequests.WithLabelValues("login", "ok").Inc()

	if user == c.user {
		if err := c.cache.Set(ctx, user, resp.Token, c.tokenTTL); err != nil {
			c.logger.Warn("failed to cache registry token", map[string]interface{}{"error": err.Error()})
		}
	}
	return resp.Token, nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	if token, ok, err := c.cache.Get(ctx, c.user); err == nil && ok {
		return token, nil
	} else if err != nil {
		c.logger.Warn("registry token cache unavailable", map[string]interface{}{"error": err.Error()})
	}

	if c.user == "" || c.password == "" {
		return "", apperrors.NewConfigurationError("registry credentials not configured")
	}
	return c.Login(ctx, c.user, c.password)
}

// get calls an authenticated endpoint. A 401 drops the cached token so the
// next call logs in again.
func (c *Client) get(ctx context.Context, name, endpoint string, query url.Values, out interface{}) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	err = c.http.GetJSON(ctx, endpoint, query, apphttp.BearerAuth(token), out)
	if err != nil {
		var status *apphttp.StatusError
		if errors.As(err, &status) && status.StatusCode == http.StatusUnauthorized {
			_ = c.cache.Invalidate(ctx, c.user)
		}
		metrics.RegistryRequests.WithLabelValues(name, "error").Inc()
		return apperrors.NewRegistryError(endpoint, err)
	}
	metrics.RegistryRequests.WithLabelValues(name, "ok").Inc()
	return nil
}
