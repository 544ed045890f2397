// Package scheduler runs periodic jobs inside the worker process.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"preschool-admissions/internal/admission/pending"
	"preschool-admissions/internal/common/config"
	"preschool-admissions/internal/common/logger"
	"preschool-admissions/internal/models"
)

const (
	DigestSubject = "Reservas pendentes"
	digestTimeout = 2 * time.Minute
)

// PendingSource aggregates the pending reservations.
type PendingSource interface {
	Pending(ctx context.Context) (*models.PendingSummary, error)
}

// Publisher posts a notification.
type Publisher interface {
	Publish(ctx context.Context, subject, message string) (string, error)
}

type Scheduler struct {
	cron      *cron.Cron
	spec      string
	source    PendingSource
	publisher Publisher
	logger    logger.Logger
}

// New builds a scheduler running in cfg.Timezone. An unknown timezone
// is a configuration error.
func New(cfg config.SchedulerConfig, source PendingSource, publisher Publisher, log logger.Logger) (*Scheduler, error) {
	loc := time.Local
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
		}
		loc = l
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		spec:      cfg.PendingDigestSpec,
		source:    source,
		publisher: publisher,
		logger:    log,
	}, nil
}

// Start registers the pending digest and starts the cron engine.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), digestTimeout)
		defer cancel()
		if err := s.RunPendingDigest(ctx); err != nil {
			s.logger.Error("pending digest failed", map[string]interface{}{"error": err.Error()})
		}
	})
	if err != nil {
		return fmt.Errorf("add pending digest job %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", map[string]interface{}{"pendingDigest": s.spec})
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped", nil)
}

// RunPendingDigest publishes the current pending reservations. Nothing is
// published when there are none.
func (s *Scheduler) RunPendingDigest(ctx context.Context) error {
	summary, err := s.source.Pending(ctx)
	if err != nil {
		return err
	}
	if summary.Total == 0 {
		s.logger.Info("no pending reservations, digest skipped", nil)
		return nil
	}

	id, err := s.publisher.Publish(ctx, DigestSubject, DigestMessage(summary))
	if err != nil {
		return err
	}
	s.logger.Info("pending digest published", map[string]interface{}{
		"messageId": id,
		"total":     summary.Total,
	})
	return nil
}

// DigestMessage renders a plain-text digest of summary, one line per
// school and age.
func DigestMessage(summary *models.PendingSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reservas pendentes em %s: %d (padrão %d, integral %d)\n",
		summary.VerificationDate, summary.Total, summary.Standard, summary.PriorityShift)
	for _, g := range pending.SortedGroups(summary.Groups) {
		fmt.Fprintf(&b, "- %s, %s anos: %d (padrão %d, integral %d)\n",
			g.School, g.Age, g.Total, g.Standard(), g.PriorityShift())
	}
	return b.String()
}
