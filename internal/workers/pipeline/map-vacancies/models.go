// internal/workers/pipeline/map-vacancies/models.go
package mapvacancies

import (
	"context"

	"preschool-admissions/internal/admission/pipeline"
	"preschool-admissions/internal/models"
)

type Input struct {
	Persist *bool `json:"persist,omitempty"`
}

type Output struct {
	Success    bool                     `json:"success"`
	Message    string                   `json:"message"`
	Persisted  bool                     `json:"persisted"`
	Pending    int                      `json:"pending"`
	Statistics models.MappingStatistics `json:"statistics"`
}

type Service interface {
	Pending(ctx context.Context) (*models.PendingSummary, error)
	Map(ctx context.Context, summary *models.PendingSummary) (*pipeline.Mapping, error)
	SaveMapping(ctx context.Context, m *pipeline.Mapping) error
}
