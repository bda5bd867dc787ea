package core

import (
	"cmp"
	"maps"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"
)

// Bucket accumulates the payments of one group (a room or a year label).
// Collected is named paid_amount for rooms and collected_amount for years.
type Bucket struct {
	PaidCount   int
	UnpaidCount int
	Collected   decimal.Decimal
	Pending     decimal.Decimal
	Expected    decimal.Decimal
}

func (b *Bucket) add(r PaymentRecord) {
	b.Expected = b.Expected.Add(r.Amount)
	if r.IsPaid() {
		b.PaidCount++
		b.Collected = b.Collected.Add(r.Amount)
		return
	}
	b.UnpaidCount++
}

// settle derives Pending once all records are in; it never goes below zero.
func (b *Bucket) settle() {
	b.Pending = clampZero(b.Expected.Sub(b.Collected))
}

// Summary is the sheet-wide view.
type Summary struct {
	Sheet         string
	TotalStudents int
	PaidCount     int
	UnpaidCount   int
	TotalPaid     decimal.Decimal
	Pending       decimal.Decimal
	Expected      decimal.Decimal
}

// CollectionRate is the percentage of students marked paid, 0 for an empty sheet.
func (s Summary) CollectionRate() float64 {
	if s.TotalStudents == 0 {
		return 0
	}
	return float64(s.PaidCount) * 100 / float64(s.TotalStudents)
}

// Summarize counts every record, paid or not, with or without a year.
func Summarize(sheet string, records []PaymentRecord) Summary {
	s := Summary{Sheet: sheet, TotalStudents: len(records)}
	for _, r := range records {
		s.Expected = s.Expected.Add(r.Amount)
		if r.IsPaid() {
			s.PaidCount++
			s.TotalPaid = s.TotalPaid.Add(r.Amount)
		}
	}
	s.UnpaidCount = s.TotalStudents - s.PaidCount
	s.Pending = clampZero(s.Expected.Sub(s.TotalPaid))
	return s
}

// Breakdown maps a group label to its bucket.
type Breakdown map[string]Bucket

// SortedKeys returns the labels in display order: numeric labels first in
// numeric order, then the rest lexically.
func (b Breakdown) SortedKeys() []string {
	keys := slices.Collect(maps.Keys(b))
	slices.SortFunc(keys, compareLabels)
	return keys
}

// Expected sums the expected amount of every bucket.
func (b Breakdown) Expected() decimal.Decimal {
	total := decimal.Zero
	for _, bucket := range b {
		total = total.Add(bucket.Expected)
	}
	return total
}

func compareLabels(a, b string) int {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	switch {
	case aerr == nil && berr == nil:
		if c := cmp.Compare(ai, bi); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	default:
		return cmp.Compare(a, b)
	}
}

// GroupBy builds one bucket per non-empty key. Records whose key is empty
// are left out of the breakdown.
func GroupBy(records []PaymentRecord, key func(PaymentRecord) string) Breakdown {
	acc := make(map[string]*Bucket)
	for _, r := range records {
		k := key(r)
		if k == "" {
			continue
		}
		b, ok := acc[k]
		if !ok {
			b = &Bucket{}
			acc[k] = b
		}
		b.add(r)
	}
	out := make(Breakdown, len(acc))
	for k, b := range acc {
		b.settle()
		out[k] = *b
	}
	return out
}

// RoomWise is the per-room view of a sheet.
type RoomWise struct {
	Sheet string
	Rooms Breakdown
}

// YearWise is the per-year view of a sheet. Records without a year label
// are counted in the Summary but not here.
type YearWise struct {
	Sheet string
	Years Breakdown
}

func ByRoom(sheet string, records []PaymentRecord) RoomWise {
	return RoomWise{
		Sheet: sheet,
		Rooms: GroupBy(records, func(r PaymentRecord) string { return r.Room }),
	}
}

func ByYear(sheet string, records []PaymentRecord) YearWise {
	return YearWise{
		Sheet: sheet,
		Years: GroupBy(records, func(r PaymentRecord) string { return r.Year }),
	}
}

// PaidDistribution counts records per normalized PAID value, including "".
func PaidDistribution(records []PaymentRecord) map[string]int {
	dist := make(map[string]int)
	for _, r := range records {
		dist[r.Paid]++
	}
	return dist
}
