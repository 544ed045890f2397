// internal/workers/registry/search-enrollments/handler.go
package searchenrollments

import (
	"context"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"preschool-admissions/internal/common/camunda"
	apperrors "preschool-admissions/internal/common/errors"
	"preschool-admissions/internal/common/logger"
	"preschool-admissions/internal/common/validation"
)

const TaskType = "search-enrollments"

var inputSchema = validation.NewSchema(`{
	"type": "object",
	"required": ["startLine", "endLine"],
	"properties": {
		"startLine": {"type": "integer", "minimum": 2},
		"endLine": {"type": "integer", "minimum": 2}
	}
}`)

type Handler struct {
	config  *Config
	service Service
	logger  logger.Logger
	runner  *camunda.Runner
}

func NewHandler(config *Config, service Service, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		service: service,
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

// Execute looks up the current enrollment of every RA in the requested
// lines.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.EndLine < input.StartLine {
		return nil, apperrors.NewValidationError(fmt.Sprintf("endLine %d before startLine %d", input.EndLine, input.StartLine))
	}
	if lines := input.EndLine - input.StartLine + 1; h.config.MaxLines > 0 && lines > h.config.MaxLines {
		return nil, apperrors.NewValidationError(fmt.Sprintf("%d lines requested, at most %d allowed", lines, h.config.MaxLines))
	}

	res, err := h.service.SearchEnrollments(ctx, input.StartLine, input.EndLine)
	if err != nil {
		return nil, err
	}
	return &Output{
		Success: true,
		Message: fmt.Sprintf("%d of %d students enrolled in a school", res.Found, res.Total),
		Total:   res.Total,
		Found:   res.Found,
		Details: res.Details,
	}, nil
}
