// internal/models/mapping.go
package models

// SlotKey identifies a capacity pool entry.
type SlotKey struct {
	School string
	Grade  string
	Shift  string
}

// CapacityRow is one class section from the vacancy feed.
type CapacityRow struct {
	School   string `json:"school"`
	Grade    string `json:"grade"`
	Shift    string `json:"shift"`
	Capacity int    `json:"capacity"`
}

type SlotStatus string

const (
	StatusAvailable    SlotStatus = "Disponível"
	StatusFull         SlotStatus = "Lotado"
	StatusOvercapacity SlotStatus = "Sobrecarga"
)

// StatusFor derives the slot status from its remaining capacity.
func StatusFor(remaining int) SlotStatus {
	switch {
	case remaining < 0:
		return StatusOvercapacity
	case remaining == 0:
		return StatusFull
	default:
		return StatusAvailable
	}
}

type MappingRow struct {
	School    string     `json:"school"`
	Grade     string     `json:"grade"`
	Shift     string     `json:"shift"`
	Capacity  int        `json:"capacity"`
	Allocated int        `json:"allocated"`
	Remaining int        `json:"remaining"`
	Status    SlotStatus `json:"status"`
	Occupancy float64    `json:"occupancy"`
}

type MappingStatistics struct {
	TotalSchools     int     `json:"totalSchools"`
	TotalCapacity    int     `json:"totalCapacity"`
	TotalAllocated   int     `json:"totalAllocated"`
	TotalRemaining   int     `json:"totalRemaining"`
	OvercapacityRows int     `json:"overcapacityRows"`
	AvailableRows    int     `json:"availableRows"`
	OverallOccupancy float64 `json:"overallOccupancy"`
}
