// internal/workers/registry/search-student-ra/models.go
package searchstudentra

import (
	"context"

	"preschool-admissions/internal/admission/lookup"
)

type Input struct {
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine"`
}

type Output struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Total   int            `json:"total"`
	Found   int            `json:"found"`
	Details []lookup.RARow `json:"details"`
}

type Service interface {
	SearchRA(ctx context.Context, start, end int) (*lookup.RAResult, error)
}
