// internal/workers/pipeline/aggregate-pending/handler.go
package aggregatepending

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"preschool-admissions/internal/admission/pending"
	"preschool-admissions/internal/common/camunda"
	"preschool-admissions/internal/common/logger"
	"preschool-admissions/internal/runlog"
)

const TaskType = "aggregate-pending"

type Handler struct {
	service Service
	journal runlog.Journal
	logger  logger.Logger
	runner  *camunda.Runner
}

func NewHandler(config *Config, service Service, journal runlog.Journal, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		service: service,
		journal: journal,
		logger:  log,
		runner:  camunda.NewRunner(TaskType, config.Timeout, nil, log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	var input Input
	h.runner.Run(client, job, &input, func(ctx context.Context) (interface{}, error) {
		started := time.Now()
		output, err := h.Execute(ctx)

		entry := runlog.Entry{
			Stage:              "pending",
			JobKey:             job.Key,
			ProcessInstanceKey: job.ProcessInstanceKey,
			StartedAt:          started,
		}
		if output != nil {
			entry.Rows = output.Summary.Total
			entry.Summary = runlog.Summarize(output.Summary)
		}
		runlog.Track(ctx, h.journal, h.logger, entry, err)
		return output, err
	})
}

// Execute aggregates both pending feeds. Groups are returned ordered by
// school and age.
func (h *Handler) Execute(ctx context.Context) (*Output, error) {
	summary, err := h.service.Pending(ctx)
	if err != nil {
		return nil, err
	}
	summary.Groups = pending.SortedGroups(summary.Groups)

	return &Output{
		Success: true,
		Message: fmt.Sprintf("%d pending reservations (%d standard, %d all-day) in %d groups",
			summary.Total, summary.Standard, summary.PriorityShift, len(summary.Groups)),
		Summary: summary,
	}, nil
}
