// Package search indexes allocation results in Elasticsearch so past runs
// can be queried outside the spreadsheet.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	apperrors "preschool-admissions/internal/common/errors"
	"preschool-admissions/internal/common/logger"
	"preschool-admissions/internal/models"
)

// Mapping is the index mapping for allocation documents.
const Mapping = `{
  "mappings": {
    "properties": {
      "run_id":          {"type": "keyword"},
      "applicant_id":    {"type": "keyword"},
      "name":            {"type": "text"},
      "age":             {"type": "keyword"},
      "requested_shift": {"type": "keyword"},
      "preferences":     {"type": "keyword"},
      "matched":         {"type": "boolean"},
      "school":          {"type": "keyword"},
      "shift":           {"type": "keyword"},
      "remaining":       {"type": "integer"},
      "reason":          {"type": "text"},
      "deadline":        {"type": "keyword"},
      "indexed_at":      {"type": "date"}
    }
  }
}`

// Indexer stores the allocation results of one run.
type Indexer interface {
	Index(ctx context.Context, runID string, results []models.AllocationResult) (int, error)
}

// Allocation is the indexed form of one allocation result.
type Allocation struct {
	RunID          string    `json:"run_id"`
	ApplicantID    string    `json:"applicant_id"`
	Name           string    `json:"name"`
	Age            string    `json:"age"`
	RequestedShift string    `json:"requested_shift"`
	Preferences    []string  `json:"preferences"`
	Matched        bool      `json:"matched"`
	School         string    `json:"school,omitempty"`
	Shift          string    `json:"shift,omitempty"`
	Remaining      int       `json:"remaining"`
	Reason         string    `json:"reason"`
	Deadline       string    `json:"deadline,omitempty"`
	IndexedAt      time.Time `json:"indexed_at"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		Status int `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

type AllocationIndexer struct {
	client *elasticsearch.Client
	index  string
	now    func() time.Time
	logger logger.Logger
}

func NewAllocationIndexer(client *elasticsearch.Client, index string, log logger.Logger) *AllocationIndexer {
	return &AllocationIndexer{client: client, index: index, now: time.Now, logger: log}
}

// Index bulk-indexes results. Each applicant keeps one document, so the
// latest run replaces earlier ones. Returns the number of documents
// accepted.
func (ix *AllocationIndexer) Index(ctx context.Context, runID string, results []models.AllocationResult) (int, error) {
	if len(results) == 0 {
		return 0, nil
	}

	body, err := ix.bulkBody(runID, results)
	if err != nil {
		return 0, apperrors.NewIndexingError(ix.index, err)
	}

	res, err := ix.client.Bulk(bytes.NewReader(body),
		ix.client.Bulk.WithContext(ctx),
		ix.client.Bulk.WithIndex(ix.index),
	)
	if err != nil {
		return 0, apperrors.NewIndexingError(ix.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, apperrors.NewIndexingError(ix.index, fmt.Errorf("bulk request: %s", res.Status()))
	}

	var br bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&br); err != nil {
		return 0, apperrors.NewIndexingError(ix.index, err)
	}

	indexed := 0
	for _, item := range br.Items {
		for _, op := range item {
			if op.Error == nil && op.Status < 300 {
				indexed++
				continue
			}
			if op.Error != nil {
				ix.logger.Warn("allocation document rejected", map[string]interface{}{
					"type":   op.Error.Type,
					"reason": op.Error.Reason,
				})
			}
		}
	}

	ix.logger.Info("allocation results indexed", map[string]interface{}{
		"runId":   runID,
		"index":   ix.index,
		"indexed": indexed,
		"total":   len(results),
	})
	return indexed, nil
}

func (ix *AllocationIndexer) bulkBody(runID string, results []models.AllocationResult) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	indexedAt := ix.now().UTC()

	for _, r := range results {
		meta := map[string]interface{}{"index": map[string]interface{}{"_id": r.ID}}
		if err := enc.Encode(meta); err != nil {
			return nil, err
		}
		doc := Allocation{
			RunID:          runID,
			ApplicantID:    r.ID,
			Name:           r.Name,
			Age:            r.Age,
			RequestedShift: r.RequestedShift,
			Preferences:    preferences(r.Preferences),
			Matched:        r.Matched,
			School:         r.School,
			Shift:          r.Shift,
			Remaining:      r.RemainingAfterMatch,
			Reason:         r.Reason,
			Deadline:       r.Deadline,
			IndexedAt:      indexedAt,
		}
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func preferences(p [3]string) []string {
	out := make([]string, 0, len(p))
	for _, s := range p {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// NoopIndexer accepts nothing. Used when Elasticsearch is disabled.
type NoopIndexer struct{}

func (NoopIndexer) Index(context.Context, string, []models.AllocationResult) (int, error) {
	return 0, nil
}
