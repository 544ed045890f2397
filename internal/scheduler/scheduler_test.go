package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"preschool-admissions/internal/admission/pending"
	"preschool-admissions/internal/common/config"
	"preschool-admissions/internal/common/logger"
	"preschool-admissions/internal/models"
)

// ==========================
// Mocks
// ==========================

type MockSource struct {
	mock.Mock
}

func (m *MockSource) Pending(ctx context.Context) (*models.PendingSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PendingSummary), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, subject, message string) (string, error) {
	args := m.Called(ctx, subject, message)
	return args.String(0), args.Error(1)
}

func summary() *models.PendingSummary {
	s := pending.Summarize([]models.PendingReservation{
		{School: "FADA AZUL", Age: "5", Origin: models.OriginStandard},
		{School: "CINDERELA", Age: "4", Origin: models.OriginStandard},
		{School: "CINDERELA", Age: "4", Origin: models.OriginPriorityShift},
	})
	s.VerificationDate = "21/10/2026"
	return s
}

func newScheduler(t *testing.T, source PendingSource, publisher Publisher) *Scheduler {
	s, err := New(config.SchedulerConfig{
		Enabled:           true,
		PendingDigestSpec: "0 7 * * 1-5",
		Timezone:          "America/Sao_Paulo",
	}, source, publisher, logger.NewTestLogger(t))
	require.NoError(t, err)
	return s
}

// ==========================
// Pending digest
// ==========================

func TestDigestMessage(t *testing.T) {
	msg := DigestMessage(summary())

	assert.Equal(t, "Reservas pendentes em 21/10/2026: 3 (padrão 2, integral 1)\n"+
		"- CINDERELA, 4 anos: 2 (padrão 1, integral 1)\n"+
		"- FADA AZUL, 5 anos: 1 (padrão 1, integral 0)\n", msg)
}

func TestRunPendingDigest(t *testing.T) {
	source := new(MockSource)
	publisher := new(MockPublisher)
	source.On("Pending", mock.Anything).Return(summary(), nil)
	publisher.On("Publish", mock.Anything, DigestSubject, DigestMessage(summary())).Return("msg-1", nil)

	err := newScheduler(t, source, publisher).RunPendingDigest(context.Background())

	assert.NoError(t, err)
	publisher.AssertExpectations(t)
}

func TestRunPendingDigest_NothingPending(t *testing.T) {
	source := new(MockSource)
	publisher := new(MockPublisher)
	source.On("Pending", mock.Anything).Return(pending.Summarize(nil), nil)

	err := newScheduler(t, source, publisher).RunPendingDigest(context.Background())

	assert.NoError(t, err)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunPendingDigest_Failures(t *testing.T) {
	tests := []struct {
		name       string
		sourceErr  error
		publishErr error
	}{
		{name: "source fails", sourceErr: errors.New("sheet unavailable")},
		{name: "publish fails", publishErr: errors.New("sns throttled")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := new(MockSource)
			publisher := new(MockPublisher)
			if tt.sourceErr != nil {
				source.On("Pending", mock.Anything).Return(nil, tt.sourceErr)
			} else {
				source.On("Pending", mock.Anything).Return(summary(), nil)
			}
			publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return("", tt.publishErr)

			err := newScheduler(t, source, publisher).RunPendingDigest(context.Background())
			assert.Error(t, err)
		})
	}
}

// ==========================
// Lifecycle
// ==========================

func TestNew_UnknownTimezone(t *testing.T) {
	_, err := New(config.SchedulerConfig{Timezone: "Mars/Olympus"}, nil, nil, logger.NewTestLogger(t))
	assert.Error(t, err)
}

func TestStart(t *testing.T) {
	s := newScheduler(t, new(MockSource), new(MockPublisher))
	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 1)
	s.Stop()

	bad := newScheduler(t, new(MockSource), new(MockPublisher))
	bad.spec = "every day"
	assert.Error(t, bad.Start())
}
