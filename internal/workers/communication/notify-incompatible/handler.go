// internal/workers/communication/notify-incompatible/handler.go
package notifyincompatible

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

const TaskType = "notify-incompatible"

var inputSchema = validation.NewSchema(`{
	"type": "object",
	"required": ["action"],
	"properties": {
		"action": {"type": "string", "enum": ["list", "notify"]},
		"applicant": {
			"type": "object",
			"required": ["line"],
			"properties": {
				"line": {"type": "integer", "minimum": 2},
				"email": {"type": "string", "maxLength": 255}
			}
		}
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
	switch input.Action {
	case ActionList:
		return h.list(ctx)
	case ActionNotify:
		return h.notify(ctx, input)
	default:
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("unknown action %q", input.Action))
	}
}

func (h *Handler) list(ctx context.Context) (*Output, error) {
	applicants, err := h.service.List(ctx)
	if err != nil {
		return nil, err
	}
	return &Output{
		Success:    true,
		Message:    fmt.Sprintf("%d applicants with incompatible age", len(applicants)),
		Count:      len(applicants),
		Applicants: applicants,
	}, nil
}

// notify reports a missing contact email as an unsuccessful result so the
// process can route the applicant to manual follow-up.
func (h *Handler) notify(ctx context.Context, input *Input) (*Output, error) {
	if input.Applicant == nil {
		return nil, apperrors.NewInvalidInputError("applicant is required for notify")
	}

	err := h.service.Resolve(ctx, *input.Applicant)
	if apperrors.CodeOf(err) == apperrors.ErrCodeValidationFailed {
		h.logger.Warn("applicant not notified", map[string]interface{}{
			"line":  input.Applicant.Line,
			"error": err.Error(),
		})
		return &Output{Success: false, Message: apperrors.AsStandard(err).Details}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Output{
		Success: true,
		Message: fmt.Sprintf("notification sent to %s", input.Applicant.Email),
		Count:   1,
	}, nil
}
