package sheets

import (
	"context"
	"errors"
)

// Ranges read by the reporting paths.
const (
	// ReportCells covers every data column; row 1 is the header.
	ReportCells = "A1:M"
	// HeaderCells is the header row alone.
	HeaderCells = "A1:M1"
)

// SheetInfo identifies one tab of the spreadsheet.
type SheetInfo struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
}

// Ports for outbound adapters.
type (
	// RangeFetcher returns the cells of an A1 range (for example "A1:M") on
	// the named sheet. Rows and cells may be ragged: trailing empty cells and
	// trailing empty rows are omitted, as the Sheets API does.
	RangeFetcher interface {
		FetchRange(ctx context.Context, sheet, cells string) ([][]string, error)
	}

	// SheetLister lists every tab of the spreadsheet, valid or not.
	SheetLister interface {
		ListSheets(ctx context.Context) ([]SheetInfo, error)
	}

	// DataSource is what the report service needs from a backend.
	DataSource interface {
		RangeFetcher
		SheetLister
	}
)

// ErrSheetNotFound is returned by local sources for an unknown sheet name.
var ErrSheetNotFound = errors.New("sheet not found")
