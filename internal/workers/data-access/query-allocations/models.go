// internal/workers/data-access/query-allocations/models.go
package queryallocations

import (
	"context"

	"preschool-admissions/internal/search"
)

type Input struct {
	search.Query
}

type Output struct {
	Success     bool                `json:"success"`
	Allocations []search.Allocation `json:"allocations"`
	TotalHits   int64               `json:"totalHits"`
	Took        int64               `json:"took"` // milliseconds
}

type Searcher interface {
	Search(ctx context.Context, q search.Query) (*search.Result, error)
}
