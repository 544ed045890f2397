package classification

import (
	"preschool-admissions/internal/common/logger"
	"preschool-admissions/internal/sheets"
)

// Fixed positions of the enrollment form export.
const (
	colTimestamp   = 0  // A
	colEmail       = 1  // B
	colName        = 2  // C
	colAddressType = 13 // N
	colReason      = 15 // P
	colShift       = 17 // R
	colID          = 18 // S
	colAge         = 21 // V
	colCity        = 23 // X
	colPlaced      = 24 // Y
	colPreference1 = 30 // AE
	colPreference2 = 32 // AG
	colPreference3 = 34 // AI
	colSchoolEmail = 18 // S on the school directory
)

var shiftHeaders = []string{"definir período", "definir periodo", "período", "periodo", "turno"}

// columns holds the resolved positions of the header-located fields.
type columns struct {
	age   int
	shift int
}

func resolveColumns(header []string, log logger.Logger) columns {
	shift := sheets.FindColumn(header, shiftHeaders, -1, true)
	if shift == -1 {
		log.Warn("shift column not found, using fixed position", map[string]interface{}{
			"column": sheets.ColumnLetter(colShift),
		})
		shift = colShift
	}
	return columns{
		age:   sheets.FindColumn(header, []string{"IDADE"}, colAge, false),
		shift: shift,
	}
}
