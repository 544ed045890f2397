// internal/workers/data-access/query-stage-runs/models.go
package querystageruns

import "preschool-admissions/internal/runlog"

type Input struct {
	Stage string `json:"stage,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

type Output struct {
	Success bool           `json:"success"`
	Runs    []runlog.Entry `json:"runs"`
	Count   int            `json:"count"`
	Failed  int            `json:"failed"`
}
