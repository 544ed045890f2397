// internal/workers/reporting/dashboard-metrics/models.go
package dashboardmetrics

import (
	"context"

	"preschool-admissions/internal/admission/reporting"
)

type Input struct{}

type Output struct {
	Success bool `json:"success"`
	reporting.Metrics
}

type Service interface {
	Metrics(ctx context.Context) (*reporting.Metrics, error)
}
