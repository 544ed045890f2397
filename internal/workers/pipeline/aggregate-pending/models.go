// internal/workers/pipeline/aggregate-pending/models.go
package aggregatepending

import (
	"context"

	"preschool-admissions/internal/models"
)

type Input struct{}

type Output struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Summary *models.PendingSummary `json:"summary"`
}

type Service interface {
	Pending(ctx context.Context) (*models.PendingSummary, error)
}
