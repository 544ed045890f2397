// internal/workers/pipeline/map-vacancies/handler.go
package mapvacancies

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"preschool-admissions/internal/common/camunda"
	"preschool-admissions/internal/common/logger"
	"preschool-admissions/internal/common/validation"
	"preschool-admissions/internal/runlog"
)

const TaskType = "map-vacancies"

var inputSchema = validation.NewSchema(`{
	"type": "object",
	"properties": {
		"persist": {"type": "boolean"}
	}
}`)

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
		runner:  camunda.NewRunner(TaskType, config.Timeout, inputSchema, log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	var input Input
	h.runner.Run(client, job, &input, func(ctx context.Context) (interface{}, error) {
		started := time.Now()
		output, err := h.Execute(ctx, &input)

		entry := runlog.Entry{
			Stage:              "mapping",
			JobKey:             job.Key,
			ProcessInstanceKey: job.ProcessInstanceKey,
			StartedAt:          started,
		}
		if output != nil {
			entry.Rows = output.Statistics.AvailableRows + output.Statistics.OvercapacityRows
			entry.Summary = runlog.Summarize(output.Statistics)
		}
		runlog.Track(ctx, h.journal, h.logger, entry, err)
		return output, err
	})
}

// Execute aggregates pending reservations, maps them against capacity and
// persists the mapping table unless persist is false.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	summary, err := h.service.Pending(ctx)
	if err != nil {
		return nil, err
	}

	mapping, err := h.service.Map(ctx, summary)
	if err != nil {
		return nil, err
	}

	persist := input.Persist == nil || *input.Persist
	if persist {
		if err := h.service.SaveMapping(ctx, mapping); err != nil {
			return nil, err
		}
	}

	stats := mapping.Statistics
	return &Output{
		Success: true,
		Message: fmt.Sprintf("%d schools mapped: %d allocated of %d, %d over capacity",
			stats.TotalSchools, stats.TotalAllocated, stats.TotalCapacity, stats.OvercapacityRows),
		Persisted:  persist,
		Pending:    summary.Total,
		Statistics: stats,
	}, nil
}
