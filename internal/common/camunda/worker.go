// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"preschool-admissions/internal/common/config"
	apperrors "preschool-admissions/internal/common/errors"
	"preschool-admissions/internal/common/logger"
	"preschool-admissions/internal/common/metrics"
	"preschool-admissions/internal/common/validation"
)

// StartWorker opens a job worker for taskType. Disabled workers return nil.
func StartWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler worker.JobHandler, log logger.Logger) worker.JobWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return nil
	}

	w := client.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return w
}

// commandTimeout bounds the complete, fail and throw calls. They run on
// their own context so a job that ran out of time can still be reported.
const commandTimeout = 10 * time.Second

// Runner drives the decode, validate, execute, complete/fail cycle every
// worker shares.
type Runner struct {
	taskType string
	timeout  time.Duration
	schema   *validation.Schema
	logger   logger.Logger
	errors   *apperrors.ErrorHandler
}

func NewRunner(taskType string, timeout time.Duration, schema *validation.Schema, log logger.Logger) *Runner {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Runner{
		taskType: taskType,
		timeout:  timeout,
		schema:   schema,
		logger:   log,
		errors:   apperrors.NewErrorHandler(log),
	}
}

// Run decodes job variables into input, then completes the job with the
// output of exec or routes its error through the error handler.
func (r *Runner) Run(client worker.JobClient, job entities.Job, input interface{}, exec func(ctx context.Context) (interface{}, error)) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(r.taskType).Inc()
	defer func() {
		metrics.WorkerJobsActive.WithLabelValues(r.taskType).Dec()
		metrics.WorkerJobDuration.WithLabelValues(r.taskType).Observe(time.Since(start).Seconds())
	}()

	r.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	if err := r.decode(job, input); err != nil {
		r.fail(client, job, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	output, err := exec(ctx)
	cancel()
	if err != nil {
		r.fail(client, job, err)
		return
	}

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		r.fail(client, job, apperrors.NewInternalError(err))
		return
	}

	sendCtx, cancelSend := context.WithTimeout(context.Background(), commandTimeout)
	defer cancelSend()
	if _, err := cmd.Send(sendCtx); err != nil {
		r.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(r.taskType).Inc()
	r.logger.Info("job completed", map[string]interface{}{
		"jobKey":   job.Key,
		"duration": time.Since(start).String(),
	})
}

func (r *Runner) decode(job entities.Job, input interface{}) error {
	variables := job.Variables
	if variables == "" {
		variables = "{}"
	}

	if r.schema != nil {
		result, err := r.schema.ValidateJSON(variables)
		if err != nil {
			return apperrors.NewInvalidInputError(err.Error())
		}
		if !result.Valid {
			return apperrors.NewValidationError(result.Error())
		}
	}

	if err := json.Unmarshal([]byte(variables), input); err != nil {
		return apperrors.NewInvalidInputError(err.Error())
	}
	return nil
}

func (r *Runner) fail(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(r.taskType, string(apperrors.AsStandard(err).Code)).Inc()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	r.errors.HandleJobError(ctx, client, job, err)
}
