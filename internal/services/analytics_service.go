package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"postpulse/internal/config"
	"postpulse/internal/dataprocessing"
	"postpulse/internal/infrastructure"
)

// EventBroadcaster pushes refresh events to connected dashboard clients
type EventBroadcaster interface {
	BroadcastEvent(eventType string, payload interface{})
}

// Dataset is the in-memory session state for one uploaded spreadsheet
type Dataset struct {
	ID         uuid.UUID
	Filename   string
	UploadedAt time.Time
	Store      *dataprocessing.RecordStore
	Skipped    int
}

// DatasetInfo is the dataset metadata exposed over the API
type DatasetInfo struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
	Records    int       `json:"records"`
	Skipped    int       `json:"skipped"`
}

// FilterOptions lists the selectable values for each filter dimension
type FilterOptions struct {
	Months    []string `json:"months"`
	PostTypes []string `json:"post_types"`
	Weekdays  []string `json:"weekdays"`
}

// FilterState is the active selection together with its option lists
type FilterState struct {
	Selection dataprocessing.Selection `json:"selection"`
	Options   FilterOptions            `json:"options"`
}

// Dashboard is the full aggregate snapshot for the current selection
type Dashboard struct {
	GeneratedAt       time.Time                          `json:"generated_at"`
	Selection         dataprocessing.Selection           `json:"selection"`
	Records           int                                `json:"records"`
	KPI               dataprocessing.KPISummary          `json:"kpi"`
	TimeSeries        []dataprocessing.TimeSeriesPoint   `json:"time_series"`
	WeekdayViews      []dataprocessing.WeekdayViews      `json:"weekday_views"`
	WeekdayEngagement []dataprocessing.WeekdayEngagement `json:"weekday_engagement"`
	Cadence           []dataprocessing.CadenceBucket     `json:"cadence"`
	TimeOfDay         []dataprocessing.TimeOfDayBucket   `json:"time_of_day"`
	PostTypes         []dataprocessing.PostTypeStats     `json:"post_types"`
	Heatmap           dataprocessing.Heatmap             `json:"heatmap"`
}

// AnalyticsService owns the dataset session: one uploaded spreadsheet, the
// active filter selection, and aggregate snapshots computed on demand. All
// state is guarded by a single RWMutex because handlers run concurrently;
// the pipeline itself is pure.
type AnalyticsService struct {
	mu        sync.RWMutex
	dataset   *Dataset
	selection dataprocessing.Selection

	normalizer *dataprocessing.Normalizer
	ingest     config.IngestConfig
	validate   *validator.Validate
	metrics    *infrastructure.Metrics
	hub        EventBroadcaster
	logger     *slog.Logger
}

// NewAnalyticsService creates the service with injected dependencies.
// hub and metrics may be nil in tests.
func NewAnalyticsService(ingest config.IngestConfig, metrics *infrastructure.Metrics, hub EventBroadcaster, logger *slog.Logger) *AnalyticsService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("service", "analytics"))

	columns := dataprocessing.ColumnMap{
		Date:           ingest.Columns.Date,
		Time:           ingest.Columns.Time,
		ViewsDaily:     ingest.Columns.ViewsDaily,
		ViewsTotal:     ingest.Columns.ViewsTotal,
		Reactions:      ingest.Columns.Reactions,
		PostType:       ingest.Columns.PostType,
		EngagementRate: ingest.Columns.EngagementRate,
	}

	return &AnalyticsService{
		selection:  dataprocessing.AllSelection(),
		normalizer: dataprocessing.NewNormalizer(columns, logger),
		ingest:     ingest,
		validate:   validator.New(),
		metrics:    metrics,
		hub:        hub,
		logger:     logger,
	}
}

// Upload ingests a spreadsheet and atomically replaces the current dataset.
// The filter selection resets to "all" on every successful upload.
func (s *AnalyticsService) Upload(ctx context.Context, filename string, r io.Reader) (*DatasetInfo, error) {
	rows, err := dataprocessing.ReadRows(filename, r, dataprocessing.ReadOptions{
		Sheet:     s.ingest.Sheet,
		Delimiter: s.ingest.Delimiter(),
	})
	if err != nil {
		return nil, fmt.Errorf("read upload %q: %w", filename, err)
	}

	store, skipped := dataprocessing.BuildStore(s.normalizer, rows)

	dataset := &Dataset{
		ID:         uuid.New(),
		Filename:   filename,
		UploadedAt: time.Now(),
		Store:      store,
		Skipped:    skipped,
	}

	s.mu.Lock()
	s.dataset = dataset
	s.selection = dataprocessing.AllSelection()
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.UploadsTotal.Inc()
		s.metrics.RowsIngestedTotal.Add(float64(store.Len()))
		s.metrics.RowsSkippedTotal.Add(float64(skipped))
	}

	s.logger.InfoContext(ctx, "dataset replaced",
		slog.String("dataset_id", dataset.ID.String()),
		slog.String("filename", filename),
		slog.Int("records", store.Len()),
		slog.Int("skipped", skipped))

	info := s.infoLocked(dataset)
	if s.hub != nil {
		s.hub.BroadcastEvent("dataset_replaced", info)
	}

	return info, nil
}

// Info returns metadata about the current dataset
func (s *AnalyticsService) Info(ctx context.Context) (*DatasetInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dataset == nil {
		return nil, ErrNoDataset
	}
	return s.infoLocked(s.dataset), nil
}

func (s *AnalyticsService) infoLocked(d *Dataset) *DatasetInfo {
	return &DatasetInfo{
		ID:         d.ID.String(),
		Filename:   d.Filename,
		UploadedAt: d.UploadedAt,
		Records:    d.Store.Len(),
		Skipped:    d.Skipped,
	}
}

// Filters returns the active selection and the option lists derived from the dataset
func (s *AnalyticsService) Filters(ctx context.Context) (*FilterState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dataset == nil {
		return nil, ErrNoDataset
	}
	return s.filterStateLocked(), nil
}

func (s *AnalyticsService) filterStateLocked() *FilterState {
	return &FilterState{
		Selection: s.selection,
		Options: FilterOptions{
			Months:    s.dataset.Store.MonthKeys(),
			PostTypes: s.dataset.Store.PostTypes(),
			Weekdays:  dataprocessing.WeekdayLabels[:],
		},
	}
}

// SetFilters validates and applies a new selection, then notifies clients.
// Each value must be "all" or one of the dataset's option values.
func (s *AnalyticsService) SetFilters(ctx context.Context, sel dataprocessing.Selection) (*FilterState, error) {
	if err := s.validate.Struct(sel); err != nil {
		return nil, fmt.Errorf("validate selection: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dataset == nil {
		return nil, ErrNoDataset
	}

	if err := s.checkSelectionLocked(sel); err != nil {
		return nil, err
	}

	s.selection = sel
	if s.metrics != nil {
		s.metrics.FilterChangesTotal.Inc()
	}

	s.logger.InfoContext(ctx, "filters changed",
		slog.String("month", sel.Month),
		slog.String("post_type", sel.PostType),
		slog.String("weekday", sel.Weekday))

	state := s.filterStateLocked()
	if s.hub != nil {
		s.hub.BroadcastEvent("filters_changed", state.Selection)
	}

	return state, nil
}

func (s *AnalyticsService) checkSelectionLocked(sel dataprocessing.Selection) error {
	if sel.Month != dataprocessing.FilterAll && !contains(s.dataset.Store.MonthKeys(), sel.Month) {
		return fmt.Errorf("%w: month %q", ErrUnknownFilterValue, sel.Month)
	}
	if sel.PostType != dataprocessing.FilterAll && !contains(s.dataset.Store.PostTypes(), sel.PostType) {
		return fmt.Errorf("%w: post type %q", ErrUnknownFilterValue, sel.PostType)
	}
	if sel.Weekday != dataprocessing.FilterAll && !contains(dataprocessing.WeekdayLabels[:], sel.Weekday) {
		return fmt.Errorf("%w: weekday %q", ErrUnknownFilterValue, sel.Weekday)
	}
	return nil
}

// Dashboard computes the full aggregate snapshot for the current selection.
// An empty filtered slice yields the zero-state aggregates, not an error.
func (s *AnalyticsService) Dashboard(ctx context.Context) (*Dashboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dataset == nil {
		return nil, ErrNoDataset
	}

	filtered := s.selection.Apply(s.dataset.Store.Records())

	return &Dashboard{
		GeneratedAt:       time.Now(),
		Selection:         s.selection,
		Records:           len(filtered),
		KPI:               dataprocessing.ComputeKPISummary(filtered),
		TimeSeries:        dataprocessing.ComputeTimeSeries(filtered),
		WeekdayViews:      dataprocessing.ComputeWeekdayViews(filtered),
		WeekdayEngagement: dataprocessing.ComputeWeekdayEngagement(filtered),
		Cadence:           dataprocessing.ComputeCadenceBuckets(filtered),
		TimeOfDay:         dataprocessing.ComputeTimeOfDay(filtered),
		PostTypes:         dataprocessing.ComputePostTypeStats(filtered),
		Heatmap:           dataprocessing.ComputeHeatmap(filtered),
	}, nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
