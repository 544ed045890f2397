// internal/workers/data-quality/fix-inconsistencies/handler_test.go
package fixinconsistencies

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"preschool-admissions/internal/admission/quality"
	apperrors "preschool-admissions/internal/common/errors"
	"preschool-admissions/internal/common/logger"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Fix(ctx context.Context, start, end int) (*quality.FixResult, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quality.FixResult), args.Error(1)
}

func TestHandler_Execute(t *testing.T) {
	svc := new(MockService)
	svc.On("Fix", mock.Anything, 2, 50).Return(&quality.FixResult{
		Checked:   48,
		Found:     2,
		Corrected: 2,
		Inconsistencies: []quality.Inconsistency{
			{Line: 7, City: "SAO JOSE DO RIO PRETO"},
			{Line: 31, City: "Fora da Escola"},
		},
	}, nil)

	output, err := NewHandler(nil, svc, logger.NewTestLogger(t)).Execute(context.Background(), &Input{StartLine: 2, EndLine: 50})

	require.NoError(t, err)
	assert.Equal(t, "2 of 2 inconsistencies corrected in 48 rows", output.Message)

	raw, err := json.Marshal(output)
	require.NoError(t, err)
	var flat map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &flat))
	assert.EqualValues(t, 48, flat["checked"])
	assert.Len(t, flat["inconsistencies"], 2)
}

func TestHandler_Execute_InvalidRange(t *testing.T) {
	svc := new(MockService)
	svc.On("Fix", mock.Anything, 9, 3).Return(nil, apperrors.NewInvalidInputError("invalid line range 9-3"))

	output, err := NewHandler(nil, svc, logger.NewTestLogger(t)).Execute(context.Background(), &Input{StartLine: 9, EndLine: 3})

	assert.Nil(t, output)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.CodeOf(err))
}

func TestInputSchema(t *testing.T) {
	result, err := inputSchema.ValidateJSON(`{"startLine": 2, "endLine": 10}`)
	require.NoError(t, err)
	assert.True(t, result.Valid)

	result, err = inputSchema.ValidateJSON(`{"startLine": 0, "endLine": 10}`)
	require.NoError(t, err)
	assert.False(t, result.Valid)
}
