package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	ports "hostelfees/internal/sheets"

	_ "modernc.org/sqlite"
)

// SQLiteRepository keeps a local copy of spreadsheet tabs. It serves the
// same ranges as the live spreadsheet, so reports can run against it.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ ports.DataSource = (*SQLiteRepository)(nil)

// Snapshot is a full copy of one tab as fetched from the source.
type Snapshot struct {
	Sheet      ports.SheetInfo
	Rows       [][]string
	RequestID  string
	MirroredAt time.Time
}

// SheetStatus describes the last mirror of a tab.
type SheetStatus struct {
	Sheet      ports.SheetInfo
	RowCount   int
	RequestID  string
	MirroredAt time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ReplaceSheet stores snap as the current copy of its tab, atomically
// replacing any earlier copy.
func (r *SQLiteRepository) ReplaceSheet(ctx context.Context, snap Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	name := snap.Sheet.Name
	if err := q.UpsertSheet(ctx, UpsertSheetParams{
		Name:       name,
		SheetID:    snap.Sheet.ID,
		RowCount:   int64(len(snap.Rows)),
		RequestID:  snap.RequestID,
		MirroredAt: snap.MirroredAt.UTC().Format(time.RFC3339Nano),
	}); err != nil {
		return fmt.Errorf("upsert sheet %s: %w", name, err)
	}
	if err := q.DeleteRows(ctx, name); err != nil {
		return fmt.Errorf("delete rows of %s: %w", name, err)
	}
	for i, row := range snap.Rows {
		if row == nil {
			row = []string{}
		}
		cells, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("encode row %d of %s: %w", i+1, name, err)
		}
		if err := q.InsertRow(ctx, name, int64(i+1), string(cells)); err != nil {
			return fmt.Errorf("insert row %d of %s: %w", i+1, name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sheet %s: %w", name, err)
	}

	slog.InfoContext(ctx, "Sheet mirrored to SQLite",
		"sheet", name,
		"rows", len(snap.Rows),
		"request_id", snap.RequestID)
	return nil
}

// FetchRange implements ports.RangeFetcher over the mirrored copy.
func (r *SQLiteRepository) FetchRange(ctx context.Context, sheet, cells string) ([][]string, error) {
	rng, err := ports.ParseA1Range(cells)
	if err != nil {
		return nil, err
	}
	if _, err := r.queries.GetSheet(ctx, sheet); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("read %s: %w", ports.QualifiedRange(sheet, cells), ports.ErrSheetNotFound)
		}
		return nil, fmt.Errorf("get sheet %s: %w", sheet, err)
	}

	encoded, err := r.queries.ListRowCells(ctx, sheet, int64(rng.StartRow), int64(rng.EndRow))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ports.QualifiedRange(sheet, cells), err)
	}
	grid := make([][]string, len(encoded))
	for i, raw := range encoded {
		if err := json.Unmarshal([]byte(raw), &grid[i]); err != nil {
			return nil, fmt.Errorf("decode row %d of %s: %w", rng.StartRow+i, sheet, err)
		}
	}

	// rows are already cut to the requested window
	cols := rng
	cols.StartRow, cols.EndRow = 1, 0
	return cols.Apply(grid), nil
}

// ListSheets implements ports.SheetLister with the tabs mirrored so far.
func (r *SQLiteRepository) ListSheets(ctx context.Context) ([]ports.SheetInfo, error) {
	items, err := r.queries.ListSheets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list mirrored sheets: %w", err)
	}
	out := make([]ports.SheetInfo, 0, len(items))
	for _, s := range items {
		out = append(out, ports.SheetInfo{Name: s.Name, ID: s.SheetID})
	}
	return out, nil
}

// Status reports when sheet was last mirrored.
func (r *SQLiteRepository) Status(ctx context.Context, sheet string) (SheetStatus, error) {
	s, err := r.queries.GetSheet(ctx, sheet)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SheetStatus{}, fmt.Errorf("status %s: %w", sheet, ports.ErrSheetNotFound)
		}
		return SheetStatus{}, fmt.Errorf("status %s: %w", sheet, err)
	}
	at, err := time.Parse(time.RFC3339Nano, s.MirroredAt)
	if err != nil {
		return SheetStatus{}, fmt.Errorf("parse mirrored_at of %s: %w", sheet, err)
	}
	return SheetStatus{
		Sheet:      ports.SheetInfo{Name: s.Name, ID: s.SheetID},
		RowCount:   int(s.RowCount),
		RequestID:  s.RequestID,
		MirroredAt: at,
	}, nil
}
