package classification

import (
	"strconv"

	"preschool-admissions/internal/models"
)

// Statistics summarizes one classification run.
type Statistics struct {
	Applicants int            `json:"applicants"`
	Rows       int            `json:"rows"`
	ByAge      map[string]int `json:"byAge"`
	BySchool   map[string]int `json:"bySchool"`
}

func Summarize(ranked []models.RankedApplicant, rankings []models.DestinationRanking) Statistics {
	stats := Statistics{
		Applicants: len(ranked),
		Rows:       len(rankings),
		ByAge:      make(map[string]int),
		BySchool:   make(map[string]int),
	}
	for _, r := range ranked {
		stats.ByAge[r.Age]++
	}
	for _, r := range rankings {
		stats.BySchool[r.School]++
	}
	return stats
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
