// internal/workers/reporting/vacancy-statistics/handler_test.go
package vacancystatistics

import (
	"context"
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

func (m *MockService) Statistics(ctx context.Context) (*vacancies.Statistics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vacancies.Statistics), args.Error(1)
}

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name        string
		stats       *vacancies.Statistics
		err         error
		wantMessage string
		wantCode    apperrors.ErrorCode
	}{
		{
			name: "summarized",
			stats: &vacancies.Statistics{
				TotalVacancies: 12,
				TotalClasses:   3,
				BySchool:       map[string]int{"EMEI A": 7, "EMEI B": 5},
				ByAge:          map[string]int{"4": 7, "5": 5},
				ByShift:        map[string]int{"MANHA": 12},
			},
			wantMessage: "12 vacancies in 3 classes across 2 schools",
		},
		{
			name:     "empty tab",
			err:      apperrors.NewDataUnavailableError("vacancy tab"),
			wantCode: apperrors.ErrCodeDataUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			if tt.err != nil {
				svc.On("Statistics", mock.Anything).Return(nil, tt.err)
			} else {
				svc.On("Statistics", mock.Anything).Return(tt.stats, nil)
			}

			output, err := NewHandler(nil, svc, logger.NewTestLogger(t)).Execute(context.Background())

			if tt.wantCode != "" {
				assert.Nil(t, output)
				assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMessage, output.Message)
			assert.Same(t, tt.stats, output.Statistics)
		})
	}
}
