// internal/workers/communication/notify-incompatible/models.go
package notifyincompatible

import (
	"context"

	"preschool-admissions/internal/admission/quality"
)

const (
	ActionList   = "list"
	ActionNotify = "notify"
)

type Input struct {
	Action    string                         `json:"action"`
	Applicant *quality.IncompatibleApplicant `json:"applicant,omitempty"`
}

type Output struct {
	Success    bool                            `json:"success"`
	Message    string                          `json:"message"`
	Count      int                             `json:"count"`
	Applicants []quality.IncompatibleApplicant `json:"applicants,omitempty"`
}

type Service interface {
	List(ctx context.Context) ([]quality.IncompatibleApplicant, error)
	Resolve(ctx context.Context, a quality.IncompatibleApplicant) error
}
