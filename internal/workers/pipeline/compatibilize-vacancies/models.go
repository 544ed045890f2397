// internal/workers/pipeline/compatibilize-vacancies/models.go
package compatibilizevacancies

import (
	"context"

	"preschool-admissions/internal/admission/pipeline"
	"preschool-admissions/internal/models"
)

type Input struct {
	Persist *bool `json:"persist,omitempty"`
}

type Output struct {
	Success    bool                        `json:"success"`
	Message    string                      `json:"message"`
	RunID      string                      `json:"runId"`
	Persisted  bool                        `json:"persisted"`
	Deadline   string                      `json:"deadline"`
	Reserved   int                         `json:"reserved"`
	Pending    int                         `json:"pending"`
	Indexed    int                         `json:"indexed"`
	Statistics models.AllocationStatistics `json:"statistics"`
	Pool       []models.PoolEntry          `json:"pool"`
}

type Service interface {
	Compatibilize(ctx context.Context) (*pipeline.Compatibilization, error)
	SavePreview(ctx context.Context, results []models.AllocationResult) error
}

// Indexer stores the allocation results of a run.
type Indexer interface {
	Index(ctx context.Context, runID string, results []models.AllocationResult) (int, error)
}

// Publisher posts the completion notice.
type Publisher interface {
	Publish(ctx context.Context, subject, message string) (string, error)
}
