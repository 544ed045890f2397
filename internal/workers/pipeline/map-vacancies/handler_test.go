// internal/workers/pipeline/map-vacancies/handler_test.go
package mapvacancies

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"preschool-admissions/internal/admission/pending"
	"preschool-admissions/internal/admission/pipeline"
	apperrors "preschool-admissions/internal/common/errors"
	"preschool-admissions/internal/common/logger"
	"preschool-admissions/internal/models"
	"preschool-admissions/internal/runlog"
)

// ==========================
// Mock Service Implementation
// ==========================

type MockService struct {
	mock.Mock
}

func (m *MockService) Pending(ctx context.Context) (*models.PendingSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PendingSummary), args.Error(1)
}

func (m *MockService) Map(ctx context.Context, summary *models.PendingSummary) (*pipeline.Mapping, error) {
	args := m.Called(ctx, summary)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipeline.Mapping), args.Error(1)
}

func (m *MockService) SaveMapping(ctx context.Context, mp *pipeline.Mapping) error {
	args := m.Called(ctx, mp)
	return args.Error(0)
}

func newHandler(t *testing.T, svc Service) *Handler {
	return NewHandler(nil, svc, runlog.NoopJournal{}, logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	summary := pending.Summarize([]models.PendingReservation{
		{School: "CINDERELA", Age: "4", Origin: models.OriginStandard},
	})
	mapping := &pipeline.Mapping{Statistics: models.MappingStatistics{
		TotalSchools: 2, TotalCapacity: 40, TotalAllocated: 31, TotalRemaining: 9,
		OvercapacityRows: 1, AvailableRows: 3, OverallOccupancy: 77.5,
	}}

	svc := new(MockService)
	svc.On("Pending", mock.Anything).Return(summary, nil)
	svc.On("Map", mock.Anything, summary).Return(mapping, nil)
	svc.On("SaveMapping", mock.Anything, mapping).Return(nil)

	output, err := newHandler(t, svc).Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.True(t, output.Success)
	assert.True(t, output.Persisted)
	assert.Equal(t, 1, output.Pending)
	assert.Equal(t, "2 schools mapped: 31 allocated of 40, 1 over capacity", output.Message)
	assert.Equal(t, 77.5, output.Statistics.OverallOccupancy)
	svc.AssertExpectations(t)
}

func TestHandler_Execute_DryRun(t *testing.T) {
	persist := false
	svc := new(MockService)
	svc.On("Pending", mock.Anything).Return(pending.Summarize(nil), nil)
	svc.On("Map", mock.Anything, mock.Anything).Return(&pipeline.Mapping{}, nil)

	output, err := newHandler(t, svc).Execute(context.Background(), &Input{Persist: &persist})

	require.NoError(t, err)
	assert.False(t, output.Persisted)
	svc.AssertNotCalled(t, "SaveMapping", mock.Anything, mock.Anything)
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(svc *MockService)
		wantCode apperrors.ErrorCode
	}{
		{
			name: "pending unavailable",
			setup: func(svc *MockService) {
				svc.On("Pending", mock.Anything).Return(nil, apperrors.NewConfigurationError("PRAZO"))
			},
			wantCode: apperrors.ErrCodeConfiguration,
		},
		{
			name: "capacity tab empty",
			setup: func(svc *MockService) {
				svc.On("Pending", mock.Anything).Return(pending.Summarize(nil), nil)
				svc.On("Map", mock.Anything, mock.Anything).Return(nil, apperrors.NewDataUnavailableError("vacancies"))
			},
			wantCode: apperrors.ErrCodeDataUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setup(svc)

			output, err := newHandler(t, svc).Execute(context.Background(), &Input{})

			assert.Nil(t, output)
			assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
		})
	}
}
