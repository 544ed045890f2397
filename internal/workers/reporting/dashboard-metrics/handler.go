// internal/workers/reporting/dashboard-metrics/handler.go
package dashboardmetrics

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"preschool-admissions/internal/common/camunda"
	"preschool-admissions/internal/common/logger"
)

const TaskType = "dashboard-metrics"

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
		runner:  camunda.NewRunner(TaskType, config.Timeout, nil, log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	var input Input
	h.runner.Run(client, job, &input, func(ctx context.Context) (interface{}, error) {
		return h.Execute(ctx)
	})
}

func (h *Handler) Execute(ctx context.Context) (*Output, error) {
	m, err := h.service.Metrics(ctx)
	if err != nil {
		return nil, err
	}
	h.logger.Debug("dashboard metrics computed", map[string]interface{}{
		"applicants":     m.TotalApplicants,
		"compatibilized": m.Compatibilized,
	})
	return &Output{Success: true, Metrics: *m}, nil
}
