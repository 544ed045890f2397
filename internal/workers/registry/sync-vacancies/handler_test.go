// internal/workers/registry/sync-vacancies/handler_test.go
package syncvacancies

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"preschool-admissions/internal/admission/vacancies"
	apperrors "preschool-admissions/internal/common/errors"
	"preschool-admissions/internal/common/logger"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Sync(ctx context.Context) (*vacancies.SyncResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vacancies.SyncResult), args.Error(1)
}

func TestHandler_Execute(t *testing.T) {
	svc := new(MockService)
	svc.On("Sync", mock.Anything).Return(&vacancies.SyncResult{Schools: 12, Classes: 40, Rows: 31, Elapsed: "4.20s"}, nil)

	output, err := NewHandler(nil, svc, logger.NewTestLogger(t)).Execute(context.Background())

	require.NoError(t, err)
	assert.True(t, output.Success)
	assert.Equal(t, "31 classes from 12 schools written in 4.20s", output.Message)

	// The sync counters are flattened into the job variables.
	raw, err := json.Marshal(output)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"message":"31 classes from 12 schools written in 4.20s",
		"totalSchools":12,"totalClasses":40,"totalRows":31,"elapsed":"4.20s"}`, string(raw))
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode apperrors.ErrorCode
	}{
		{"no schools", apperrors.NewDataUnavailableError("registry schools"), apperrors.ErrCodeDataUnavailable},
		{"login rejected", apperrors.NewRegistryAuthError(errors.New("401")), apperrors.ErrCodeRegistryAuthFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Sync", mock.Anything).Return(nil, tt.err)

			output, err := NewHandler(nil, svc, logger.NewTestLogger(t)).Execute(context.Background())

			assert.Nil(t, output)
			assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
		})
	}
}
