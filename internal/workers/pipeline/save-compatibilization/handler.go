// internal/workers/pipeline/save-compatibilization/handler.go
package savecompatibilization

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"preschool-admissions/internal/common/camunda"
	"preschool-admissions/internal/common/logger"
	"preschool-admissions/internal/runlog"
)

const TaskType = "save-compatibilization"

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
			Stage:              "save-to-main",
			JobKey:             job.Key,
			ProcessInstanceKey: job.ProcessInstanceKey,
			StartedAt:          started,
		}
		if output != nil {
			entry.Rows = output.Updated
			entry.Summary = runlog.Summarize(output)
		}
		runlog.Track(ctx, h.journal, h.logger, entry, err)
		return output, err
	})
}

// Execute promotes the saved preview to the main tab.
func (h *Handler) Execute(ctx context.Context) (*Output, error) {
	results, err := h.service.LoadPreview(ctx)
	if err != nil {
		return nil, err
	}

	matched := 0
	for _, r := range results {
		if r.Matched {
			matched++
		}
	}

	saved, err := h.service.SaveToMain(ctx, results)
	if err != nil {
		return nil, err
	}

	return &Output{
		Success:  true,
		Message:  fmt.Sprintf("%d of %d matched applicants updated on the main sheet", saved.Updated, matched),
		Matched:  matched,
		Updated:  saved.Updated,
		NotFound: saved.NotFound,
	}, nil
}
