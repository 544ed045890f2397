// internal/workers/registry/search-enrollments/models.go
package searchenrollments

import (
	"context"

	"preschool-admissions/internal/admission/lookup"
)

type Input struct {
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine"`
}

type Output struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Total   int                    `json:"total"`
	Found   int                    `json:"found"`
	Details []lookup.EnrollmentRow `json:"details"`
}

type Service interface {
	SearchEnrollments(ctx context.Context, start, end int) (*lookup.EnrollmentResult, error)
}
