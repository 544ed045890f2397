// internal/workers/reporting/dashboard-metrics/handler_test.go
package dashboardmetrics

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"preschool-admissions/internal/admission/reporting"
	apperrors "preschool-admissions/internal/common/errors"
	"preschool-admissions/internal/common/logger"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Metrics(ctx context.Context) (*reporting.Metrics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reporting.Metrics), args.Error(1)
}

func TestHandler_Execute(t *testing.T) {
	svc := new(MockService)
	svc.On("Metrics", mock.Anything).Return(&reporting.Metrics{
		TotalApplicants:    120,
		AvailableVacancies: 35,
		Cancelled:          4,
		Compatibilized:     80,
	}, nil)

	output, err := NewHandler(nil, svc, logger.NewTestLogger(t)).Execute(context.Background())
	require.NoError(t, err)

	raw, err := json.Marshal(output)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"success": true,
		"totalApplicants": 120,
		"availableVacancies": 35,
		"cancelled": 4,
		"compatibilized": 80
	}`, string(raw))
}

func TestHandler_Execute_Error(t *testing.T) {
	svc := new(MockService)
	svc.On("Metrics", mock.Anything).Return(nil, apperrors.NewSheetAccessError("read A:Z", errors.New("quota exceeded")))

	output, err := NewHandler(nil, svc, logger.NewTestLogger(t)).Execute(context.Background())

	assert.Nil(t, output)
	assert.Equal(t, apperrors.ErrCodeSheetAccessFailed, apperrors.CodeOf(err))
}
