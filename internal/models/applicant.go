// internal/models/applicant.go
package models

// Applicant is one enrollment request read from the main spreadsheet.
type Applicant struct {
	Row             int       `json:"row"`
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Age             string    `json:"age"`
	Preferences     [3]string `json:"preferences"`
	RequestedShift  string    `json:"requestedShift"`
	Reason          string    `json:"reason"`
	Priority        int       `json:"priority"`
	AddressType     string    `json:"addressType"`
	AddressPriority int       `json:"addressPriority"`
	Email           string    `json:"email"`
	Timestamp       string    `json:"timestamp"`
	City            string    `json:"city"`
}

// RankedApplicant carries the applicant's rank within its age cohort.
type RankedApplicant struct {
	Applicant
	Rank int `json:"rank"`
}

// DestinationRanking is one row of the per-school classification table.
type DestinationRanking struct {
	School        string `json:"school"`
	Age           string `json:"age"`
	Rank          int    `json:"rank"`
	Priority      int    `json:"priority"`
	ID            string `json:"id"`
	Name          string `json:"name"`
	AddressType   string `json:"addressType"`
	Email         string `json:"email"`
	SchoolEmail   string `json:"schoolEmail"`
	PreferenceTag string `json:"preferenceTag"`
}

// GradeForAge maps an age cohort to the preschool grade code.
func GradeForAge(age string) (string, bool) {
	switch age {
	case "4":
		return "1", true
	case "5":
		return "2", true
	default:
		return "", false
	}
}
