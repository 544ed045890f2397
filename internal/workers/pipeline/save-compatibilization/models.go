// internal/workers/pipeline/save-compatibilization/models.go
package savecompatibilization

import (
	"context"

	"preschool-admissions/internal/admission/pipeline"
	"preschool-admissions/internal/models"
)

type Input struct{}

type Output struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
	Matched  int      `json:"matched"`
	Updated  int      `json:"updated"`
	NotFound []string `json:"notFound"`
}

type Service interface {
	LoadPreview(ctx context.Context) ([]models.AllocationResult, error)
	SaveToMain(ctx context.Context, results []models.AllocationResult) (*pipeline.SaveResult, error)
}
