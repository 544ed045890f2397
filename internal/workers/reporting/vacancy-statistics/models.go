// internal/workers/reporting/vacancy-statistics/models.go
package vacancystatistics

import (
	"context"

	"preschool-admissions/internal/admission/vacancies"
)

type Input struct{}

type Output struct {
	Success    bool                  `json:"success"`
	Message    string                `json:"message"`
	Statistics *vacancies.Statistics `json:"statistics"`
}

type Service interface {
	Statistics(ctx context.Context) (*vacancies.Statistics, error)
}
