package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"hostelfees/internal/core"
	"hostelfees/internal/log"
	"hostelfees/internal/sheets"
)

// SampleSize is how many normalized records the sample view returns.
const SampleSize = 5

// SheetListing is the metadata view of the spreadsheet: only tabs with a
// valid calendar name are listed.
type SheetListing struct {
	SpreadsheetID string
	DefaultSheet  string
	Available     []sheets.SheetInfo
	ValidRange    string
}

// Columns is the raw header row of a sheet, exactly as stored.
type Columns struct {
	Sheet   string
	Headers []string
}

// Sample is a peek at the normalized records of a sheet.
type Sample struct {
	Sheet            string
	Rows             []core.PaymentRecord
	PaidDistribution map[string]int
	TotalRows        int
	Columns          []string
}

// ReportService builds report views from a sheet data source. Every call
// re-fetches and re-aggregates; nothing is cached between requests.
type ReportService struct {
	source        sheets.DataSource
	spreadsheetID string
	logger        *log.Logger
	now           func() time.Time
}

// Option configures a ReportService.
type Option func(*ReportService)

// WithClock overrides the clock used to pick the current-month sheet.
func WithClock(now func() time.Time) Option {
	return func(s *ReportService) { s.now = now }
}

// WithSpreadsheetID sets the id reported by ListSheets.
func WithSpreadsheetID(id string) Option {
	return func(s *ReportService) { s.spreadsheetID = id }
}

// WithLogger sets the service logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *ReportService) { s.logger = logger.WithComponent(log.ComponentReport) }
}

// NewReportService wraps source. A nil source is allowed: every data call
// then fails with core.ErrDataSourceUnavailable.
func NewReportService(source sheets.DataSource, opts ...Option) *ReportService {
	s := &ReportService{
		source: source,
		logger: log.New(log.Config{Component: log.ComponentReport, Handler: slog.Default().Handler()}),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Available reports whether a data source has been wired in.
func (s *ReportService) Available() bool {
	return s.source != nil
}

// Ready fails with core.ErrDataSourceUnavailable until a source is wired in.
func (s *ReportService) Ready(context.Context) error {
	if !s.Available() {
		return core.ErrDataSourceUnavailable
	}
	return nil
}

// SpreadsheetID returns the configured spreadsheet id, if any.
func (s *ReportService) SpreadsheetID() string {
	return s.spreadsheetID
}

// Resolve maps an optional sheet argument to a canonical sheet name.
func (s *ReportService) Resolve(sheet string) (string, error) {
	return core.ResolveSheetName(sheet, s.now())
}

// GetSummary returns the sheet-wide totals.
func (s *ReportService) GetSummary(ctx context.Context, sheet string) (core.Summary, error) {
	name, records, err := s.load(ctx, sheet, log.OpSummary)
	if err != nil {
		return core.Summary{}, err
	}
	return core.Summarize(name, records), nil
}

// GetRoomWise returns totals grouped by room.
func (s *ReportService) GetRoomWise(ctx context.Context, sheet string) (core.RoomWise, error) {
	name, records, err := s.load(ctx, sheet, log.OpRoomWise)
	if err != nil {
		return core.RoomWise{}, err
	}
	return core.ByRoom(name, records), nil
}

// GetYearWise returns totals grouped by year label.
func (s *ReportService) GetYearWise(ctx context.Context, sheet string) (core.YearWise, error) {
	name, records, err := s.load(ctx, sheet, log.OpYearWise)
	if err != nil {
		return core.YearWise{}, err
	}
	return core.ByYear(name, records), nil
}

// ListSheets returns the valid tabs of the spreadsheet and the default sheet.
func (s *ReportService) ListSheets(ctx context.Context) (SheetListing, error) {
	if err := s.Ready(ctx); err != nil {
		return SheetListing{}, err
	}
	all, err := s.source.ListSheets(ctx)
	if err != nil {
		s.logger.LogError(ctx, "List sheets failed", err, log.OpList, ErrorType(err))
		return SheetListing{}, err
	}
	available := make([]sheets.SheetInfo, 0, len(all))
	for _, info := range all {
		if core.IsValidSheetName(info.Name) {
			available = append(available, info)
		}
	}
	listing := SheetListing{
		SpreadsheetID: s.spreadsheetID,
		DefaultSheet:  core.CurrentSheetName(s.now()),
		Available:     available,
		ValidRange:    core.ValidRangeLabel(),
	}
	s.logger.InfoContext(ctx, "Listed sheets",
		"total", len(all), "valid", len(available), "default_sheet", listing.DefaultSheet)
	return listing, nil
}

// GetColumns returns the raw header row. An empty sheet yields no columns
// rather than an error.
func (s *ReportService) GetColumns(ctx context.Context, sheet string) (Columns, error) {
	name, err := s.Resolve(sheet)
	if err != nil {
		return Columns{}, err
	}
	if err := s.Ready(ctx); err != nil {
		return Columns{}, err
	}
	values, err := s.source.FetchRange(ctx, name, sheets.HeaderCells)
	if err != nil {
		s.logger.LogError(ctx, "Fetch header failed", err, log.OpColumns, ErrorType(err), log.FieldSheet, name)
		return Columns{}, err
	}
	headers := []string{}
	if len(values) > 0 && values[0] != nil {
		headers = values[0]
	}
	return Columns{Sheet: name, Headers: headers}, nil
}

// GetSample returns the first records of a sheet with its PAID value counts.
func (s *ReportService) GetSample(ctx context.Context, sheet string) (Sample, error) {
	name, records, err := s.load(ctx, sheet, log.OpSample)
	if err != nil {
		return Sample{}, err
	}
	columns := []string{}
	if len(records) > 0 {
		columns = append(columns, core.RecordFields...)
	}
	return Sample{
		Sheet:            name,
		Rows:             records[:min(SampleSize, len(records))],
		PaidDistribution: core.PaidDistribution(records),
		TotalRows:        len(records),
		Columns:          columns,
	}, nil
}

// load resolves the sheet, fetches its report range and normalizes it.
func (s *ReportService) load(ctx context.Context, sheet, op string) (string, []core.PaymentRecord, error) {
	name, err := s.Resolve(sheet)
	if err != nil {
		return "", nil, err
	}
	if err := s.Ready(ctx); err != nil {
		return "", nil, err
	}
	values, err := s.source.FetchRange(ctx, name, sheets.ReportCells)
	if err != nil {
		s.logger.LogError(ctx, "Fetch sheet failed", err, op, ErrorType(err), log.FieldSheet, name)
		return "", nil, err
	}
	if len(values) < 2 {
		err := &core.EmptySheetError{Sheet: name}
		s.logger.LogError(ctx, "Sheet has no data rows", err, op, log.ErrorTypeEmpty, log.FieldSheet, name)
		return "", nil, err
	}
	records := core.Normalize(values)
	s.logger.DebugContext(ctx, "Loaded sheet", log.NewFields().
		WithOperation(op).
		WithSheet(name, len(values)-1, len(records)).
		ToSlice()...)
	return name, records, nil
}

// ErrorType classifies a report failure for the logs. Every class is
// still answered with a 500.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidSheetName):
		return log.ErrorTypeValidation
	case errors.Is(err, core.ErrDataSourceUnavailable):
		return log.ErrorTypeUnavailable
	case errors.Is(err, core.ErrEmptySheet):
		return log.ErrorTypeEmpty
	case errors.Is(err, sheets.ErrSheetNotFound):
		return log.ErrorTypeNotFound
	default:
		return log.ErrorTypeUpstream
	}
}
