// internal/models/pending.go
package models

// Origin tags which feed a pending reservation came from.
type Origin string

const (
	OriginStandard      Origin = "PADRAO"
	OriginPriorityShift Origin = "INTEGRAL"
)

// PendingReservation is a seat already offered but not yet finalized.
type PendingReservation struct {
	School   string `json:"school"`
	Age      string `json:"age"`
	Deadline string `json:"deadline"`
	Origin   Origin `json:"origin"`
}

// GroupKey identifies a (school, age cohort) pair.
type GroupKey struct {
	School string
	Age    string
}

type PendingGroup struct {
	School   string         `json:"school"`
	Age      string         `json:"age"`
	Total    int            `json:"total"`
	ByOrigin map[Origin]int `json:"byOrigin"`
}

func (g PendingGroup) Standard() int {
	return g.ByOrigin[OriginStandard]
}

func (g PendingGroup) PriorityShift() int {
	return g.ByOrigin[OriginPriorityShift]
}

// PendingSummary is the aggregated view of both pending feeds.
type PendingSummary struct {
	Groups           []PendingGroup `json:"groups"`
	Total            int            `json:"total"`
	Standard         int            `json:"standard"`
	PriorityShift    int            `json:"priorityShift"`
	BySchool         map[string]int `json:"bySchool"`
	ByAge            map[string]int `json:"byAge"`
	VerificationDate string         `json:"verificationDate"`
}
