// Package sheets addresses the spreadsheets that act as system of record.
package sheets

import "context"

// Default addresses the spreadsheet's first tab without a title prefix.
const Default = -1

// Update is one range of a batch write.
type Update struct {
	Range  string
	Values [][]string
}

// Store reads and writes rectangular ranges of string cells. sheet is the
// zero-based tab index or Default.
type Store interface {
	Read(ctx context.Context, rng string, sheet int) ([][]string, error)
	Write(ctx context.Context, rng string, rows [][]string, sheet int) error
	Clear(ctx context.Context, sheet int) error
	BatchWrite(ctx context.Context, sheetTitle string, updates []Update) (int, error)
	SheetTitle(ctx context.Context, sheet int) (string, error)
}
