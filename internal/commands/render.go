package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"hostelfees/internal/core"
	"hostelfees/internal/services"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func writeSummaryTable(w io.Writer, s core.Summary) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "SHEET\t%s\n", s.Sheet)
	fmt.Fprintf(tw, "STUDENTS\t%d\n", s.TotalStudents)
	fmt.Fprintf(tw, "PAID\t%d\n", s.PaidCount)
	fmt.Fprintf(tw, "UNPAID\t%d\n", s.UnpaidCount)
	fmt.Fprintf(tw, "COLLECTED\t%s\n", money(s.TotalPaid))
	fmt.Fprintf(tw, "PENDING\t%s\n", money(s.Pending))
	fmt.Fprintf(tw, "EXPECTED\t%s\n", money(s.Expected))
	fmt.Fprintf(tw, "COLLECTION RATE\t%.1f%%\n", s.CollectionRate())
	return tw.Flush()
}

func writeBreakdownTable(w io.Writer, sheet, label, collected string, b core.Breakdown) error {
	fmt.Fprintf(w, "%s\n", sheet)
	tw := newTable(w)
	fmt.Fprintf(tw, "%s\tPAID\tUNPAID\t%s\tPENDING\tEXPECTED\n", label, collected)
	for _, key := range b.SortedKeys() {
		bucket := b[key]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\n",
			key, bucket.PaidCount, bucket.UnpaidCount,
			money(bucket.Collected), money(bucket.Pending), money(bucket.Expected))
	}
	return tw.Flush()
}

func writeSheetsTable(w io.Writer, l services.SheetListing) error {
	fmt.Fprintf(w, "spreadsheet %s, default %s, valid %s\n", l.SpreadsheetID, l.DefaultSheet, l.ValidRange)
	tw := newTable(w)
	fmt.Fprintln(tw, "SHEET\tID")
	for _, s := range l.Available {
		fmt.Fprintf(tw, "%s\t%d\n", s.Name, s.ID)
	}
	return tw.Flush()
}

func writeDashboardTable(w io.Writer, d dashboard) error {
	if err := writeSummaryTable(w, d.Summary); err != nil {
		return err
	}
	fmt.Fprintln(w)
	if err := writeBreakdownTable(w, "Rooms", "ROOM", "PAID AMOUNT", d.RoomWise.Rooms); err != nil {
		return err
	}
	fmt.Fprintln(w)
	if err := writeBreakdownTable(w, "Years", "YEAR", "COLLECTED", d.YearWise.Years); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return writeSheetsTable(w, d.Sheets)
}
