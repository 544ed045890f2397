// internal/workers/pipeline/classify-applicants/models.go
package classifyapplicants

import (
	"context"

	"preschool-admissions/internal/admission/classification"
	"preschool-admissions/internal/admission/pipeline"
)

// Input controls whether the ranking is written to the classification tab.
// Persist defaults to true.
type Input struct {
	Persist *bool `json:"persist,omitempty"`
}

type Output struct {
	Success    bool                      `json:"success"`
	Message    string                    `json:"message"`
	Persisted  bool                      `json:"persisted"`
	Statistics classification.Statistics `json:"statistics"`
}

// Service is the part of the pipeline this worker drives.
type Service interface {
	Classify(ctx context.Context) (*pipeline.Classification, error)
	SaveClassification(ctx context.Context, c *pipeline.Classification) error
}
