// Package pipeline runs the admission stages against the spreadsheets:
// it reads each stage's sources, runs the engines in data-flow order and
// persists the resulting tables.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"preschool-admissions/internal/admission/classification"
	"preschool-admissions/internal/admission/compatibilization"
	"preschool-admissions/internal/admission/mapping"
	"preschool-admissions/internal/admission/pending"
	"preschool-admissions/internal/common/config"
	apperrors "preschool-admissions/internal/common/errors"
	"preschool-admissions/internal/common/logger"
	"preschool-admissions/internal/common/metrics"
	"preschool-admissions/internal/common/observability"
	"preschool-admissions/internal/models"
	"preschool-admissions/internal/sheets"
)

const (
	applicantRange = "A:AL"
	directoryRange = "A:Z"
	capacityRange  = "A:ZZ"
	idRange        = "S:S"
)

// Classification is the output of the classification stage.
type Classification struct {
	Ranked     []models.RankedApplicant    `json:"-"`
	Rankings   []models.DestinationRanking `json:"-"`
	Statistics classification.Statistics   `json:"statistics"`
}

// Mapping is the output of the vacancy mapping stage.
type Mapping struct {
	Rows       []models.MappingRow      `json:"-"`
	Statistics models.MappingStatistics `json:"statistics"`
}

// Compatibilization bundles every stage output of a full run.
type Compatibilization struct {
	Pending        *models.PendingSummary    `json:"pending"`
	Classification classification.Statistics `json:"classification"`
	Mapping        models.MappingStatistics  `json:"mapping"`
	Result         *compatibilization.Result `json:"result"`
}

// SaveResult reports how many main-sheet rows a save touched.
type SaveResult struct {
	Updated  int      `json:"updated"`
	NotFound []string `json:"notFound"`
}

type Service struct {
	main       sheets.Store
	tabs       config.Tabs
	aggregator *pending.Aggregator
	classifier *classification.Engine
	mapper     *mapping.Engine
	compat     *compatibilization.Engine
	obs        *observability.Observability
	logger     logger.Logger
}

// NewService wires the engines to the main spreadsheet. secondary may be
// nil when the all-day reservation feed is not configured.
func NewService(main, secondary sheets.Store, tabs config.Tabs, now func() time.Time, obs *observability.Observability, log logger.Logger) *Service {
	var secondarySource *pending.Source
	if secondary != nil {
		secondarySource = &pending.Source{Store: secondary, Sheet: tabs.PendingSecondary}
	}

	return &Service{
		main:       main,
		tabs:       tabs,
		aggregator: pending.NewAggregator(pending.Source{Store: main, Sheet: tabs.Main}, secondarySource, now, log),
		classifier: classification.NewEngine(log),
		mapper:     mapping.NewEngine(log),
		compat:     compatibilization.NewEngine(now, log),
		obs:        obs,
		logger:     log,
	}
}

func (s *Service) stage(ctx context.Context, name string, fn func() (int, error)) error {
	start := time.Now()
	rows, err := fn()
	s.obs.RecordStage(ctx, name, time.Since(start), rows, err)
	if err != nil {
		s.logger.Error("stage failed", map[string]interface{}{
			"stage": name,
			"error": err.Error(),
		})
	}
	return err
}

// Classify ranks the applicants still waiting for a seat.
func (s *Service) Classify(ctx context.Context) (*Classification, error) {
	var out Classification
	err := s.stage(ctx, "classification", func() (int, error) {
		rows, err := s.main.Read(ctx, applicantRange, s.tabs.Main)
		if err != nil {
			return 0, err
		}
		applicants, err := s.classifier.ParseApplicants(rows)
		if err != nil {
			return 0, err
		}
		out.Ranked = s.classifier.Rank(applicants)

		directoryRows, err := s.main.Read(ctx, directoryRange, s.tabs.SchoolDirectory)
		if err != nil {
			s.logger.Warn("school directory unavailable", map[string]interface{}{"error": err.Error()})
		}
		out.Rankings = s.classifier.Expand(out.Ranked, s.classifier.ParseDirectory(directoryRows))
		out.Statistics = classification.Summarize(out.Ranked, out.Rankings)

		for age, n := range out.Statistics.ByAge {
			metrics.ApplicantsRanked.WithLabelValues(age).Add(float64(n))
		}
		return len(out.Rankings), nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveClassification replaces the classification tab with the per-school
// ranking.
func (s *Service) SaveClassification(ctx context.Context, c *Classification) error {
	return s.replace(ctx, s.tabs.Classification, classification.Rows(c.Rankings))
}

// Pending aggregates reservations still inside their deadline.
func (s *Service) Pending(ctx context.Context) (*models.PendingSummary, error) {
	var summary *models.PendingSummary
	err := s.stage(ctx, "pending", func() (int, error) {
		var err error
		summary, err = s.aggregator.Aggregate(ctx)
		if err != nil {
			return 0, err
		}
		metrics.PendingReservations.WithLabelValues(string(models.OriginStandard)).Set(float64(summary.Standard))
		metrics.PendingReservations.WithLabelValues(string(models.OriginPriorityShift)).Set(float64(summary.PriorityShift))
		return summary.Total, nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// Map distributes pending demand over the vacancy tab's capacity.
func (s *Service) Map(ctx context.Context, summary *models.PendingSummary) (*Mapping, error) {
	var out Mapping
	err := s.stage(ctx, "mapping", func() (int, error) {
		rows, err := s.main.Read(ctx, capacityRange, s.tabs.Vacancies)
		if err != nil {
			return 0, err
		}
		capacity, err := s.mapper.ParseCapacity(rows)
		if err != nil {
			return 0, err
		}

		var groups []models.PendingGroup
		if summary != nil {
			groups = summary.Groups
		}
		out.Rows = s.mapper.Build(capacity, groups)
		out.Statistics = mapping.Summarize(out.Rows)

		byStatus := map[models.SlotStatus]int{
			models.StatusAvailable:    0,
			models.StatusFull:         0,
			models.StatusOvercapacity: 0,
		}
		for _, r := range out.Rows {
			byStatus[r.Status]++
		}
		for status, n := range byStatus {
			metrics.MappingRowsByStatus.WithLabelValues(string(status)).Set(float64(n))
		}
		return len(out.Rows), nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveMapping replaces the mapping tab.
func (s *Service) SaveMapping(ctx context.Context, m *Mapping) error {
	return s.replace(ctx, s.tabs.Mapping, mapping.Rows(m.Rows))
}

// Compatibilize runs the whole pipeline. One pending aggregation feeds both
// the mapping and the pool pre-deduction.
func (s *Service) Compatibilize(ctx context.Context) (*Compatibilization, error) {
	summary, err := s.Pending(ctx)
	if err != nil {
		return nil, err
	}
	m, err := s.Map(ctx, summary)
	if err != nil {
		return nil, err
	}
	c, err := s.Classify(ctx)
	if err != nil {
		return nil, err
	}

	out := &Compatibilization{
		Pending:        summary,
		Classification: c.Statistics,
		Mapping:        m.Statistics,
	}
	err = s.stage(ctx, "compatibilization", func() (int, error) {
		out.Result = s.compat.Run(c.Ranked, m.Rows, summary.Groups)
		metrics.AllocationOutcomes.WithLabelValues("matched").Add(float64(out.Result.Statistics.Matched))
		metrics.AllocationOutcomes.WithLabelValues("unmatched").Add(float64(out.Result.Statistics.Unmatched))
		return len(out.Result.Results), nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SavePreview replaces the preview tab with the allocation results.
func (s *Service) SavePreview(ctx context.Context, results []models.AllocationResult) error {
	return s.replace(ctx, s.tabs.Preview, compatibilization.Rows(results))
}

// LoadPreview reads the saved preview back.
func (s *Service) LoadPreview(ctx context.Context) ([]models.AllocationResult, error) {
	rows, err := s.main.Read(ctx, "A:K", s.tabs.Preview)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, apperrors.NewDataUnavailableError("compatibilization preview")
	}
	return compatibilization.ParsePreview(rows), nil
}

// SaveToMain marks matched applicants as placed on the main tab, writing
// placed flag, deadline and destination.
func (s *Service) SaveToMain(ctx context.Context, results []models.AllocationResult) (*SaveResult, error) {
	out := &SaveResult{NotFound: []string{}}

	err := s.stage(ctx, "save-to-main", func() (int, error) {
		ids, err := s.main.Read(ctx, idRange, s.tabs.Main)
		if err != nil {
			return 0, err
		}
		updates, notFound := compatibilization.MainSheetUpdates(results, ids)
		out.NotFound = notFound
		if len(updates) == 0 {
			return 0, nil
		}

		title, err := s.main.SheetTitle(ctx, s.tabs.Main)
		if err != nil {
			return 0, err
		}
		out.Updated, err = s.main.BatchWrite(ctx, title, updates)
		return out.Updated, err
	})
	if err != nil {
		return nil, err
	}

	if len(out.NotFound) > 0 {
		s.logger.Warn("matched applicants missing from main sheet", map[string]interface{}{
			"ids": out.NotFound,
		})
	}
	return out, nil
}

func (s *Service) replace(ctx context.Context, sheet int, rows [][]string) error {
	if err := s.main.Clear(ctx, sheet); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	rng := fmt.Sprintf("A1:%s%d", sheets.ColumnLetter(len(rows[0])-1), len(rows))
	return s.main.Write(ctx, rng, rows, sheet)
}
