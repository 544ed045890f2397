// internal/workers/registry/sync-vacancies/models.go
package syncvacancies

import (
	"context"

	"preschool-admissions/internal/admission/vacancies"
)

type Input struct{}

type Output struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	vacancies.SyncResult
}

type Service interface {
	Sync(ctx context.Context) (*vacancies.SyncResult, error)
}
