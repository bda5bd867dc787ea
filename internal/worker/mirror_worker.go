package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"hostelfees/internal/amqp"
	"hostelfees/internal/core"
	"hostelfees/internal/log"
	"hostelfees/internal/sheets"
	"hostelfees/internal/storage"

	"golang.org/x/sync/errgroup"
	"google.golang.org/api/googleapi"
)

// SnapshotStore receives mirrored sheets.
type SnapshotStore interface {
	ReplaceSheet(ctx context.Context, snap storage.Snapshot) error
}

// MirrorWorker copies valid sheets from the live spreadsheet into local
// storage, on request or on a schedule.
type MirrorWorker struct {
	source      sheets.DataSource
	store       SnapshotStore
	concurrency int
	now         func() time.Time
}

// MirrorReport lists the outcome of a mirror run.
type MirrorReport struct {
	RequestID string
	Mirrored  []string
	Failed    map[string]error
}

func NewMirrorWorker(source sheets.DataSource, store SnapshotStore, concurrency int) *MirrorWorker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &MirrorWorker{
		source:      source,
		store:       store,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// MirrorSheet copies one sheet's report range.
func (w *MirrorWorker) MirrorSheet(ctx context.Context, info sheets.SheetInfo, requestID string) error {
	rows, err := w.source.FetchRange(ctx, info.Name, sheets.ReportCells)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", info.Name, err)
	}
	if err := w.store.ReplaceSheet(ctx, storage.Snapshot{
		Sheet:      info,
		Rows:       rows,
		RequestID:  requestID,
		MirroredAt: w.now(),
	}); err != nil {
		return fmt.Errorf("store %s: %w", info.Name, err)
	}
	return nil
}

// MirrorAll copies every valid sheet the source lists, a bounded number at
// a time. A failing sheet does not stop the others; the returned error
// joins every failure.
func (w *MirrorWorker) MirrorAll(ctx context.Context, requestID string) (MirrorReport, error) {
	report := MirrorReport{RequestID: requestID, Failed: map[string]error{}}

	infos, err := w.source.ListSheets(ctx)
	if err != nil {
		return report, fmt.Errorf("list sheets: %w", err)
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(w.concurrency)
	for _, info := range infos {
		if !core.IsValidSheetName(info.Name) {
			continue
		}
		g.Go(func() error {
			err := w.MirrorSheet(ctx, info, requestID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed[info.Name] = err
				return err
			}
			report.Mirrored = append(report.Mirrored, info.Name)
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(report.Mirrored, compareSheetNames)

	slog.InfoContext(ctx, "Mirror run completed",
		log.FieldOperation, log.OpMirror,
		log.FieldRequestID, requestID,
		"mirrored", len(report.Mirrored),
		"errors", len(report.Failed))

	if len(report.Failed) == 0 {
		return report, nil
	}
	errs := make([]error, 0, len(report.Failed))
	for _, name := range sortedNames(report.Failed) {
		errs = append(errs, report.Failed[name])
	}
	return report, errors.Join(errs...)
}

// HandleMirrorRequest processes one AMQP mirror request. Requests for
// sheets outside the calendar, or absent from the spreadsheet, are
// permanent failures, as are Sheets API client errors other than 429.
func (w *MirrorWorker) HandleMirrorRequest(ctx context.Context, req *amqp.MirrorRequest) error {
	if req.Sheet == "" {
		_, err := w.MirrorAll(ctx, req.ID)
		return classify(err)
	}

	name := core.CanonicalSheetName(req.Sheet)
	if !core.IsValidSheetName(name) {
		return amqp.Permanent(&core.InvalidSheetNameError{Input: req.Sheet})
	}

	infos, err := w.source.ListSheets(ctx)
	if err != nil {
		return classify(fmt.Errorf("list sheets: %w", err))
	}
	idx := slices.IndexFunc(infos, func(s sheets.SheetInfo) bool { return s.Name == name })
	if idx < 0 {
		return amqp.Permanent(fmt.Errorf("sheet '%s': %w", name, sheets.ErrSheetNotFound))
	}

	if err := w.MirrorSheet(ctx, infos[idx], req.ID); err != nil {
		return classify(err)
	}
	slog.InfoContext(ctx, "Sheet mirrored",
		log.FieldOperation, log.OpMirror, log.FieldRequestID, req.ID, log.FieldSheet, name)
	return nil
}

// Run mirrors everything once, then again every interval until ctx is done.
func (w *MirrorWorker) Run(ctx context.Context, interval time.Duration) error {
	if _, err := w.MirrorAll(ctx, "startup"); err != nil {
		slog.ErrorContext(ctx, "Startup mirror failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-ticker.C:
			if _, err := w.MirrorAll(ctx, "scheduled-"+t.UTC().Format(time.RFC3339)); err != nil {
				slog.ErrorContext(ctx, "Periodic mirror failed", "error", err)
			}
		}
	}
}

// classify marks Sheets API client errors, except rate limiting, as
// permanent.
func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 &&
		apiErr.Code != http.StatusTooManyRequests {
		return amqp.Permanent(err)
	}
	return err
}

// compareSheetNames orders calendar names chronologically.
func compareSheetNames(a, b string) int {
	return core.SheetOrdinal(a) - core.SheetOrdinal(b)
}

func sortedNames(m map[string]error) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.SortFunc(names, compareSheetNames)
	return names
}
