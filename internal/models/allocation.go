// internal/models/allocation.go
package models

// AllocationResult is the outcome of placing one ranked applicant.
type AllocationResult struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Preferences         [3]string `json:"preferences"`
	Age                 string    `json:"age"`
	RequestedShift      string    `json:"requestedShift"`
	Matched             bool      `json:"matched"`
	School              string    `json:"school,omitempty"`
	Shift               string    `json:"shift,omitempty"`
	RemainingAfterMatch int       `json:"remainingAfterMatch"`
	Reason              string    `json:"reason"`
	Deadline            string    `json:"deadline,omitempty"`
}

// AgeOutcome counts matched and unmatched applicants of one age cohort.
type AgeOutcome struct {
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
}

// PoolEntry is a snapshot of one capacity pool slot.
type PoolEntry struct {
	School    string `json:"school"`
	Grade     string `json:"grade"`
	Shift     string `json:"shift"`
	Remaining int    `json:"remaining"`
}

type AllocationStatistics struct {
	Matched   int                   `json:"matched"`
	Unmatched int                   `json:"unmatched"`
	BySchool  map[string]int        `json:"bySchool"`
	ByAge     map[string]AgeOutcome `json:"byAge"`
}
