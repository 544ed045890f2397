// internal/workers/pipeline/classify-applicants/handler.go
package classifyapplicants

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

const TaskType = "classify-applicants"

var inputSchema = validation.NewSchema(`{
	"type": "object",
	"properties": {
		"persist": {"type": "boolean"}
	}
}`)

type Handler struct {
	config  *Config
	service Service
	journal runlog.Journal
	logger  logger.Logger
	runner  *camunda.Runner
}

func NewHandler(config *Config, service Service, journal runlog.Journal, log logger.Logger) *Handler {
	if config == nil {
		config = DefaultConfig()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
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
			Stage:              "classification",
			JobKey:             job.Key,
			ProcessInstanceKey: job.ProcessInstanceKey,
			StartedAt:          started,
		}
		if output != nil {
			entry.Rows = output.Statistics.Rows
			entry.Summary = runlog.Summarize(output.Statistics)
		}
		runlog.Track(ctx, h.journal, h.logger, entry, err)
		return output, err
	})
}

// Execute ranks the applicants and, unless told otherwise, persists the
// ranking.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := h.service.Classify(ctx)
	if err != nil {
		return nil, err
	}

	persist := input.Persist == nil || *input.Persist
	if persist {
		if err := h.service.SaveClassification(ctx, result); err != nil {
			return nil, err
		}
	}

	return &Output{
		Success:    true,
		Message:    fmt.Sprintf("%d applicants ranked into %d rows", result.Statistics.Applicants, result.Statistics.Rows),
		Persisted:  persist,
		Statistics: result.Statistics,
	}, nil
}
