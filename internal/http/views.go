package http

import (
	"github.com/shopspring/decimal"

	"hostelfees/internal/core"
	"hostelfees/internal/services"
	"hostelfees/internal/sheets"
)

// JSON shapes of the report routes. Amounts leave the service as decimals
// and are rendered as plain JSON numbers.

type rootView struct {
	Message           string `json:"message"`
	Status            string `json:"status"`
	CredentialsLoaded bool   `json:"credentials_loaded"`
}

type healthView struct {
	Status      string `json:"status"`
	Credentials string `json:"credentials,omitempty"`
	SheetsAPI   string `json:"sheets_api,omitempty"`
	Error       string `json:"error,omitempty"`
}

type sheetsView struct {
	SpreadsheetID   string             `json:"spreadsheet_id"`
	DefaultSheet    string             `json:"default_sheet"`
	AvailableSheets []sheets.SheetInfo `json:"available_sheets"`
	ValidRange      string             `json:"valid_range"`
	TotalSheets     int                `json:"total_sheets"`
}

type summaryView struct {
	Sheet           string  `json:"sheet"`
	TotalStudents   int     `json:"total_students"`
	PaidCount       int     `json:"paid_count"`
	UnpaidCount     int     `json:"unpaid_count"`
	TotalPaidAmount float64 `json:"total_paid_amount"`
	PendingAmount   float64 `json:"pending_amount"`
	ExpectedTotal   float64 `json:"expected_total"`
}

type roomBucketView struct {
	PaidCount      int     `json:"paid_count"`
	UnpaidCount    int     `json:"unpaid_count"`
	PaidAmount     float64 `json:"paid_amount"`
	PendingAmount  float64 `json:"pending_amount"`
	ExpectedAmount float64 `json:"expected_amount"`
}

type yearBucketView struct {
	PaidCount       int     `json:"paid_count"`
	UnpaidCount     int     `json:"unpaid_count"`
	CollectedAmount float64 `json:"collected_amount"`
	PendingAmount   float64 `json:"pending_amount"`
	ExpectedAmount  float64 `json:"expected_amount"`
}

type roomWiseView struct {
	Sheet    string                    `json:"sheet"`
	RoomWise map[string]roomBucketView `json:"room_wise"`
}

type yearWiseView struct {
	Sheet    string                    `json:"sheet"`
	YearWise map[string]yearBucketView `json:"year_wise"`
}

type columnsView struct {
	Sheet       string   `json:"sheet"`
	Columns     []string `json:"columns"`
	ColumnCount int      `json:"column_count"`
}

type sampleRowView struct {
	Room   string  `json:"ROOM"`
	Paid   string  `json:"PAID"`
	Amount float64 `json:"AMOUNT"`
	Year   string  `json:"YEAR"`
}

type sampleView struct {
	Sheet            string          `json:"sheet"`
	SampleRows       []sampleRowView `json:"sample_rows"`
	PaidDistribution map[string]int  `json:"paid_distribution"`
	TotalRows        int             `json:"total_rows"`
	Columns          []string        `json:"columns"`
}

type notFoundView struct {
	Error           string   `json:"error"`
	Message         string   `json:"message"`
	AvailableRoutes []string `json:"availableRoutes"`
}

func amount(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func newSummaryView(s core.Summary) summaryView {
	return summaryView{
		Sheet:           s.Sheet,
		TotalStudents:   s.TotalStudents,
		PaidCount:       s.PaidCount,
		UnpaidCount:     s.UnpaidCount,
		TotalPaidAmount: amount(s.TotalPaid),
		PendingAmount:   amount(s.Pending),
		ExpectedTotal:   amount(s.Expected),
	}
}

func newRoomWiseView(rw core.RoomWise) roomWiseView {
	rooms := make(map[string]roomBucketView, len(rw.Rooms))
	for room, b := range rw.Rooms {
		rooms[room] = roomBucketView{
			PaidCount:      b.PaidCount,
			UnpaidCount:    b.UnpaidCount,
			PaidAmount:     amount(b.Collected),
			PendingAmount:  amount(b.Pending),
			ExpectedAmount: amount(b.Expected),
		}
	}
	return roomWiseView{Sheet: rw.Sheet, RoomWise: rooms}
}

func newYearWiseView(yw core.YearWise) yearWiseView {
	years := make(map[string]yearBucketView, len(yw.Years))
	for year, b := range yw.Years {
		years[year] = yearBucketView{
			PaidCount:       b.PaidCount,
			UnpaidCount:     b.UnpaidCount,
			CollectedAmount: amount(b.Collected),
			PendingAmount:   amount(b.Pending),
			ExpectedAmount:  amount(b.Expected),
		}
	}
	return yearWiseView{Sheet: yw.Sheet, YearWise: years}
}

func newSheetsView(l services.SheetListing) sheetsView {
	available := l.Available
	if available == nil {
		available = []sheets.SheetInfo{}
	}
	return sheetsView{
		SpreadsheetID:   l.SpreadsheetID,
		DefaultSheet:    l.DefaultSheet,
		AvailableSheets: available,
		ValidRange:      l.ValidRange,
		TotalSheets:     len(available),
	}
}

func newColumnsView(c services.Columns) columnsView {
	return columnsView{Sheet: c.Sheet, Columns: c.Headers, ColumnCount: len(c.Headers)}
}

func newSampleView(s services.Sample) sampleView {
	rows := make([]sampleRowView, 0, len(s.Rows))
	for _, r := range s.Rows {
		rows = append(rows, sampleRowView{Room: r.Room, Paid: r.Paid, Amount: amount(r.Amount), Year: r.Year})
	}
	return sampleView{
		Sheet:            s.Sheet,
		SampleRows:       rows,
		PaidDistribution: s.PaidDistribution,
		TotalRows:        s.TotalRows,
		Columns:          s.Columns,
	}
}

// SummaryPayload returns the /summary JSON shape for s.
func SummaryPayload(s core.Summary) any { return newSummaryView(s) }

// RoomWisePayload returns the /roomwise JSON shape for rw.
func RoomWisePayload(rw core.RoomWise) any { return newRoomWiseView(rw) }

// YearWisePayload returns the /yearwise JSON shape for yw.
func YearWisePayload(yw core.YearWise) any { return newYearWiseView(yw) }

// SheetsPayload returns the /sheets JSON shape for l.
func SheetsPayload(l services.SheetListing) any { return newSheetsView(l) }
