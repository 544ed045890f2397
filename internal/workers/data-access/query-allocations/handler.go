// internal/workers/data-access/query-allocations/handler.go
package queryallocations

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"preschool-admissions/internal/common/camunda"
	"preschool-admissions/internal/common/logger"
	"preschool-admissions/internal/common/validation"
)

const TaskType = "query-allocations"

var inputSchema = validation.NewSchema(`{
	"type": "object",
	"properties": {
		"applicantId": {"type": "string"},
		"name": {"type": "string", "maxLength": 200},
		"school": {"type": "string"},
		"runId": {"type": "string"},
		"age": {"type": "string", "enum": ["4", "5"]},
		"matched": {"type": "boolean"},
		"from": {"type": "integer", "minimum": 0},
		"size": {"type": "integer", "minimum": 1, "maximum": 500}
	}
}`)

type Handler struct {
	config   *Config
	searcher Searcher
	logger   logger.Logger
	runner   *camunda.Runner
}

func NewHandler(config *Config, searcher Searcher, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		searcher: searcher,
		logger:   log,
		runner:   camunda.NewRunner(TaskType, config.Timeout, inputSchema, log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	var input Input
	h.runner.Run(client, job, &input, func(ctx context.Context) (interface{}, error) {
		return h.Execute(ctx, &input)
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := h.searcher.Search(ctx, input.Query)
	if err != nil {
		return nil, err
	}
	return &Output{
		Success:     true,
		Allocations: result.Allocations,
		TotalHits:   result.Total,
		Took:        result.Took,
	}, nil
}
