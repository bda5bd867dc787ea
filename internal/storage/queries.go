package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the SQL used by the repository.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// MirroredSheet is one row of mirrored_sheets.
type MirroredSheet struct {
	Name       string
	SheetID    int64
	RowCount   int64
	RequestID  string
	MirroredAt string
}

const upsertSheet = `
INSERT INTO mirrored_sheets (name, sheet_id, row_count, request_id, mirrored_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
    sheet_id = excluded.sheet_id,
    row_count = excluded.row_count,
    request_id = excluded.request_id,
    mirrored_at = excluded.mirrored_at`

type UpsertSheetParams struct {
	Name       string
	SheetID    int64
	RowCount   int64
	RequestID  string
	MirroredAt string
}

func (q *Queries) UpsertSheet(ctx context.Context, arg UpsertSheetParams) error {
	_, err := q.db.ExecContext(ctx, upsertSheet, arg.Name, arg.SheetID, arg.RowCount, arg.RequestID, arg.MirroredAt)
	return err
}

const deleteRows = `DELETE FROM mirrored_rows WHERE sheet_name = ?`

func (q *Queries) DeleteRows(ctx context.Context, sheetName string) error {
	_, err := q.db.ExecContext(ctx, deleteRows, sheetName)
	return err
}

const insertRow = `INSERT INTO mirrored_rows (sheet_name, row_index, cells) VALUES (?, ?, ?)`

func (q *Queries) InsertRow(ctx context.Context, sheetName string, rowIndex int64, cells string) error {
	_, err := q.db.ExecContext(ctx, insertRow, sheetName, rowIndex, cells)
	return err
}

const getSheet = `
SELECT name, sheet_id, row_count, request_id, mirrored_at
FROM mirrored_sheets WHERE name = ?`

func (q *Queries) GetSheet(ctx context.Context, name string) (MirroredSheet, error) {
	var s MirroredSheet
	err := q.db.QueryRowContext(ctx, getSheet, name).
		Scan(&s.Name, &s.SheetID, &s.RowCount, &s.RequestID, &s.MirroredAt)
	return s, err
}

const listSheets = `
SELECT name, sheet_id, row_count, request_id, mirrored_at
FROM mirrored_sheets ORDER BY sheet_id, name`

func (q *Queries) ListSheets(ctx context.Context) ([]MirroredSheet, error) {
	rows, err := q.db.QueryContext(ctx, listSheets)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MirroredSheet
	for rows.Next() {
		var s MirroredSheet
		if err := rows.Scan(&s.Name, &s.SheetID, &s.RowCount, &s.RequestID, &s.MirroredAt); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const listRowCells = `
SELECT cells FROM mirrored_rows
WHERE sheet_name = ? AND row_index >= ? AND (? = 0 OR row_index <= ?)
ORDER BY row_index`

// ListRowCells returns the JSON encoded cells of rows [fromRow, toRow],
// both one-based; toRow 0 reads to the end.
func (q *Queries) ListRowCells(ctx context.Context, sheetName string, fromRow, toRow int64) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listRowCells, sheetName, fromRow, toRow, toRow)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var cells string
		if err := rows.Scan(&cells); err != nil {
			return nil, err
		}
		items = append(items, cells)
	}
	return items, rows.Err()
}
