// internal/workers/pipeline/compatibilize-vacancies/handler.go
package compatibilizevacancies

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"preschool-admissions/internal/common/camunda"
	"preschool-admissions/internal/common/logger"
	"preschool-admissions/internal/common/validation"
	"preschool-admissions/internal/runlog"
)

const (
	TaskType          = "compatibilize-vacancies"
	CompletionSubject = "Compatibilização concluída"
)

var inputSchema = validation.NewSchema(`{
	"type": "object",
	"properties": {
		"persist": {"type": "boolean"}
	}
}`)

type Handler struct {
	config    *Config
	service   Service
	indexer   Indexer
	publisher Publisher
	journal   runlog.Journal
	logger    logger.Logger
	runner    *camunda.Runner
	newRunID  func() string
}

// NewHandler builds the worker. indexer and publisher may be nil.
func NewHandler(config *Config, service Service, indexer Indexer, publisher Publisher, journal runlog.Journal, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		service:   service,
		indexer:   indexer,
		publisher: publisher,
		journal:   journal,
		logger:    log,
		runner:    camunda.NewRunner(TaskType, config.Timeout, inputSchema, log),
		newRunID:  func() string { return uuid.New().String() },
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	var input Input
	h.runner.Run(client, job, &input, func(ctx context.Context) (interface{}, error) {
		started := time.Now()
		output, err := h.Execute(ctx, &input)

		entry := runlog.Entry{
			Stage:              "compatibilization",
			JobKey:             job.Key,
			ProcessInstanceKey: job.ProcessInstanceKey,
			StartedAt:          started,
		}
		if output != nil {
			entry.ID = output.RunID
			entry.Rows = output.Statistics.Matched + output.Statistics.Unmatched
			entry.Summary = runlog.Summarize(output.Statistics)
		}
		runlog.Track(ctx, h.journal, h.logger, entry, err)
		return output, err
	})
}

// Execute runs the full pipeline and saves the preview. Indexing and the
// completion notice are best effort.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	run, err := h.service.Compatibilize(ctx)
	if err != nil {
		return nil, err
	}
	result := run.Result

	persist := input.Persist == nil || *input.Persist
	if persist {
		if err := h.service.SavePreview(ctx, result.Results); err != nil {
			return nil, err
		}
	}

	output := &Output{
		Success:    true,
		Message:    fmt.Sprintf("%d applicants matched, %d without a vacancy", result.Statistics.Matched, result.Statistics.Unmatched),
		RunID:      h.newRunID(),
		Persisted:  persist,
		Deadline:   result.Deadline,
		Reserved:   result.Reserved,
		Pending:    run.Pending.Total,
		Statistics: result.Statistics,
		Pool:       result.Pool,
	}

	if h.indexer != nil {
		indexed, err := h.indexer.Index(ctx, output.RunID, result.Results)
		if err != nil {
			h.logger.Warn("failed to index allocation results", map[string]interface{}{
				"runId": output.RunID,
				"error": err.Error(),
			})
		}
		output.Indexed = indexed
	}

	if persist && h.config.NotifyOnComplete && h.publisher != nil {
		if _, err := h.publisher.Publish(ctx, CompletionSubject, completionMessage(output)); err != nil {
			h.logger.Warn("failed to publish completion notice", map[string]interface{}{
				"runId": output.RunID,
				"error": err.Error(),
			})
		}
	}

	return output, nil
}

func completionMessage(o *Output) string {
	return fmt.Sprintf("Execução %s: %d atendidos, %d sem vaga, %d reservas pendentes deduzidas. Prazo de matrícula: %s.",
		o.RunID, o.Statistics.Matched, o.Statistics.Unmatched, o.Reserved, o.Deadline)
}
