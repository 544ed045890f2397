package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"

	apperrors "preschool-admissions/internal/common/errors"
	"preschool-admissions/internal/common/logger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 500
)

// Query filters indexed allocations. Empty fields are ignored.
type Query struct {
	ApplicantID string `json:"applicantId,omitempty"`
	Name        string `json:"name,omitempty"`
	School      string `json:"school,omitempty"`
	RunID       string `json:"runId,omitempty"`
	Age         string `json:"age,omitempty"`
	Matched     *bool  `json:"matched,omitempty"`
	From        int    `json:"from,omitempty"`
	Size        int    `json:"size,omitempty"`
}

// Result is one page of matching allocations.
type Result struct {
	Total       int64        `json:"total"`
	Took        int64        `json:"took"`
	Allocations []Allocation `json:"allocations"`
}

type searchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source Allocation `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type AllocationSearcher struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewAllocationSearcher(client *elasticsearch.Client, index string, log logger.Logger) *AllocationSearcher {
	return &AllocationSearcher{client: client, index: index, logger: log}
}

// Body builds the bool query for q: keyword fields become term filters, the
// name a full-text match. Results are sorted by school then applicant.
func (q Query) Body() map[string]interface{} {
	var must, filter []interface{}

	term := func(field, value string) {
		if value != "" {
			filter = append(filter, map[string]interface{}{
				"term": map[string]interface{}{field: value},
			})
		}
	}
	term("applicant_id", q.ApplicantID)
	term("school", q.School)
	term("run_id", q.RunID)
	term("age", q.Age)
	if q.Matched != nil {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"matched": *q.Matched},
		})
	}
	if q.Name != "" {
		must = append(must, map[string]interface{}{
			"match": map[string]interface{}{
				"name": map[string]interface{}{"query": q.Name, "operator": "and"},
			},
		})
	}

	query := map[string]interface{}{"match_all": map[string]interface{}{}}
	if len(must) > 0 || len(filter) > 0 {
		boolQuery := map[string]interface{}{}
		if len(must) > 0 {
			boolQuery["must"] = must
		}
		if len(filter) > 0 {
			boolQuery["filter"] = filter
		}
		query = map[string]interface{}{"bool": boolQuery}
	}

	return map[string]interface{}{
		"query": query,
		"sort": []interface{}{
			map[string]interface{}{"school": "asc"},
			map[string]interface{}{"applicant_id": "asc"},
		},
		"track_total_hits": true,
	}
}

func (q Query) page() (from, size int) {
	from, size = q.From, q.Size
	if from < 0 {
		from = 0
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return from, size
}

// Search runs q against the allocation index.
func (s *AllocationSearcher) Search(ctx context.Context, q Query) (*Result, error) {
	body, err := json.Marshal(q.Body())
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	from, size := q.page()

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(body)),
		s.client.Search.WithFrom(from),
		s.client.Search.WithSize(size),
	)
	if err != nil {
		return nil, apperrors.NewIndexingError(s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		return nil, apperrors.NewIndexingError(s.index, fmt.Errorf("search rejected: %s: %s", res.Status(), raw))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewIndexingError(s.index, fmt.Errorf("decode search response: %w", err))
	}

	out := &Result{
		Total:       parsed.Hits.Total.Value,
		Took:        parsed.Took,
		Allocations: make([]Allocation, 0, len(parsed.Hits.Hits)),
	}
	for _, hit := range parsed.Hits.Hits {
		out.Allocations = append(out.Allocations, hit.Source)
	}

	s.logger.Debug("allocation search", map[string]interface{}{
		"index": s.index,
		"total": out.Total,
		"took":  out.Took,
	})
	return out, nil
}
