// internal/workers/data-quality/fix-inconsistencies/handler.go
package fixinconsistencies

import (
	"context"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"preschool-admissions/internal/common/camunda"
	"preschool-admissions/internal/common/logger"
	"preschool-admissions/internal/common/validation"
)

const TaskType = "fix-inconsistencies"

var inputSchema = validation.NewSchema(`{
	"type": "object",
	"required": ["startLine", "endLine"],
	"properties": {
		"startLine": {"type": "integer", "minimum": 1},
		"endLine": {"type": "integer", "minimum": 1}
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	res, err := h.service.Fix(ctx, input.StartLine, input.EndLine)
	if err != nil {
		return nil, err
	}
	return &Output{
		Success:   true,
		Message:   fmt.Sprintf("%d of %d inconsistencies corrected in %d rows", res.Corrected, res.Found, res.Checked),
		FixResult: res,
	}, nil
}
