package core

import (
	"iter"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Column names looked up in the (uppercased) header row.
const (
	ColumnRoom   = "ROOM"
	ColumnPaid   = "PAID"
	ColumnAmount = "AMOUNT"
	ColumnYear   = "YEAR"
)

// PaidMarker is the only PAID cell value, after uppercasing, that counts as paid.
const PaidMarker = "PAID"

// RecordFields lists the normalized fields in presentation order.
var RecordFields = []string{ColumnRoom, ColumnPaid, ColumnAmount, ColumnYear}

var (
	roomColumns   = []string{ColumnRoom}
	paidColumns   = []string{ColumnPaid}
	amountColumns = []string{ColumnAmount}
	yearColumns   = []string{ColumnYear}
)

// PaymentRecord is one student's fee row after normalization.
type PaymentRecord struct {
	Room   string
	Paid   string // uppercased
	Amount decimal.Decimal
	Year   string // free-form label such as "1st Year"; may be empty
}

// IsPaid reports whether the record is marked exactly PAID.
func (r PaymentRecord) IsPaid() bool {
	return r.Paid == PaidMarker
}

// Header maps uppercased, trimmed column names to their positions.
// When a name repeats, the first column wins.
type Header struct {
	names []string
	index map[string]int
}

// NewHeader builds the lookup table for a raw header row.
func NewHeader(raw []string) Header {
	upper := cases.Upper(language.English)
	h := Header{
		names: make([]string, len(raw)),
		index: make(map[string]int, len(raw)),
	}
	for i, col := range raw {
		name := upper.String(strings.TrimSpace(col))
		h.names[i] = name
		if _, seen := h.index[name]; !seen {
			h.index[name] = i
		}
	}
	return h
}

// Names returns the normalized column names in sheet order.
func (h Header) Names() []string {
	return slices.Clone(h.names)
}

// Index returns the position of column name.
func (h Header) Index(name string) (int, bool) {
	i, ok := h.index[name]
	return i, ok
}

// Value returns the trimmed cell of the first alias that exists in the
// header and has a non-blank cell in row, or def otherwise. Short rows are
// fine: Sheets drops trailing empty cells.
func (h Header) Value(row []string, aliases []string, def string) string {
	for _, alias := range aliases {
		i, ok := h.index[alias]
		if !ok || i >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[i]); v != "" {
			return v
		}
	}
	return def
}

// RowNormalizer turns raw rows into PaymentRecords for one fetched range.
// It is not safe for concurrent use.
type RowNormalizer struct {
	header Header
	upper  cases.Caser
}

// NewRowNormalizer prepares a normalizer for rows under headerRow.
func NewRowNormalizer(headerRow []string) *RowNormalizer {
	return &RowNormalizer{
		header: NewHeader(headerRow),
		upper:  cases.Upper(language.English),
	}
}

// Header returns the header the normalizer was built from.
func (n *RowNormalizer) Header() Header {
	return n.header
}

// Normalize converts one data row. ok is false when the row has no room,
// which is the only reason a row is skipped.
func (n *RowNormalizer) Normalize(row []string) (rec PaymentRecord, ok bool) {
	rec = PaymentRecord{
		Room:   n.header.Value(row, roomColumns, ""),
		Paid:   n.upper.String(n.header.Value(row, paidColumns, "")),
		Amount: ParseAmount(n.header.Value(row, amountColumns, "0")),
		Year:   n.header.Value(row, yearColumns, ""),
	}
	if rec.Room == "" {
		return PaymentRecord{}, false
	}
	return rec, true
}

// Records lazily yields the normalized records of a fetched range whose
// first row is the header. Row order is preserved; roomless rows are skipped.
func Records(values [][]string) iter.Seq[PaymentRecord] {
	return func(yield func(PaymentRecord) bool) {
		if len(values) == 0 {
			return
		}
		n := NewRowNormalizer(values[0])
		for _, row := range values[1:] {
			rec, ok := n.Normalize(row)
			if !ok {
				continue
			}
			if !yield(rec) {
				return
			}
		}
	}
}

// Normalize collects Records into a slice.
func Normalize(values [][]string) []PaymentRecord {
	return slices.Collect(Records(values))
}
