// internal/workers/registry/sync-vacancies/handler.go
package syncvacancies

import (
	"context"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"preschool-admissions/internal/common/camunda"
	"preschool-admissions/internal/common/logger"
)

const TaskType = "sync-vacancies"

type Handler struct {
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
		service: service,
		logger:  log,
		runner:  camunda.NewRunner(TaskType, config.Timeout, nil, log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	var input Input
	h.runner.Run(client, job, &input, func(ctx context.Context) (interface{}, error) {
		return h.Execute(ctx)
	})
}

// Execute rebuilds the vacancy tab from the student registry.
func (h *Handler) Execute(ctx context.Context) (*Output, error) {
	res, err := h.service.Sync(ctx)
	if err != nil {
		return nil, err
	}
	return &Output{
		Success:    true,
		Message:    fmt.Sprintf("%d classes from %d schools written in %s", res.Rows, res.Schools, res.Elapsed),
		SyncResult: *res,
	}, nil
}
