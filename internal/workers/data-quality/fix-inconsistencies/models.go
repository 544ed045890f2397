// internal/workers/data-quality/fix-inconsistencies/models.go
package fixinconsistencies

import (
	"context"

	"preschool-admissions/internal/admission/quality"
)

type Input struct {
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine"`
}

type Output struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	*quality.FixResult
}

type Service interface {
	Fix(ctx context.Context, start, end int) (*quality.FixResult, error)
}
