// internal/workers/data-access/query-stage-runs/handler.go
package querystageruns

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"preschool-admissions/internal/common/camunda"
	"preschool-admissions/internal/common/logger"
	"preschool-admissions/internal/common/validation"
	"preschool-admissions/internal/runlog"
)

const TaskType = "query-stage-runs"

var inputSchema = validation.NewSchema(`{
	"type": "object",
	"properties": {
		"stage": {
			"type": "string",
			"enum": ["", "classification", "pending", "mapping", "compatibilization", "save-to-main"]
		},
		"limit": {"type": "integer", "minimum": 1}
	}
}`)

type Handler struct {
	config  *Config
	journal runlog.Journal
	logger  logger.Logger
	runner  *camunda.Runner
}

func NewHandler(config *Config, journal runlog.Journal, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		journal: journal,
		logger:  log,
		runner:  camunda.NewRunner(TaskType, config.Timeout, inputSchema, log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	var input Input
	h.runner.Run(client, job, &input, func(ctx context.Context) (interface{}, error) {
		return h.Execute(ctx, &input)
	})
}

// Execute lists the latest recorded runs of a stage, newest first.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = h.config.DefaultLimit
	}
	if h.config.MaxLimit > 0 && limit > h.config.MaxLimit {
		limit = h.config.MaxLimit
	}

	runs, err := h.journal.Recent(ctx, input.Stage, limit)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []runlog.Entry{}
	}

	failed := 0
	for _, r := range runs {
		if !r.Success {
			failed++
		}
	}
	return &Output{
		Success: true,
		Runs:    runs,
		Count:   len(runs),
		Failed:  failed,
	}, nil
}
