// Package core holds the reporting domain: sheet naming, row normalization
// and the aggregate views built from hostel food-fee payment rows.
//
// This file contains the sheet calendar. Every addressable sheet is named
// "<MONTH> <YEAR>" with the month in uppercase English, and only years in
// [FirstYear, LastYear] are accepted from callers.
package core

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	FirstYear = 2023
	LastYear  = 2025
)

// MonthNames lists the canonical month spellings in calendar order.
var MonthNames = [12]string{
	"JANUARY", "FEBRUARY", "MARCH", "APRIL", "MAY", "JUNE",
	"JULY", "AUGUST", "SEPTEMBER", "OCTOBER", "NOVEMBER", "DECEMBER",
}

var (
	validOnce  sync.Once
	validNames []string
	validSet   map[string]struct{}
)

func buildValidNames() {
	validNames = make([]string, 0, 12*(LastYear-FirstYear+1))
	validSet = make(map[string]struct{}, cap(validNames))
	for year := FirstYear; year <= LastYear; year++ {
		for _, month := range MonthNames {
			name := fmt.Sprintf("%s %d", month, year)
			validNames = append(validNames, name)
			validSet[name] = struct{}{}
		}
	}
}

// ValidSheetNames returns every accepted sheet name, year-major and
// month-minor: "JANUARY 2023" through "DECEMBER 2025".
// The returned slice is a copy.
func ValidSheetNames() []string {
	validOnce.Do(buildValidNames)
	return slices.Clone(validNames)
}

// IsValidSheetName reports whether name is exactly one of the canonical names.
func IsValidSheetName(name string) bool {
	validOnce.Do(buildValidNames)
	_, ok := validSet[name]
	return ok
}

// ValidRangeLabel describes the accepted range for humans.
func ValidRangeLabel() string {
	return fmt.Sprintf("JANUARY %d - DECEMBER %d", FirstYear, LastYear)
}

// CurrentSheetName derives the sheet name for the month containing now.
// The result is not checked against the valid range.
func CurrentSheetName(now time.Time) string {
	return fmt.Sprintf("%s %d", MonthNames[now.Month()-1], now.Year())
}

// CanonicalSheetName trims and uppercases a user supplied sheet name.
func CanonicalSheetName(input string) string {
	return cases.Upper(language.English).String(strings.TrimSpace(input))
}

// ResolveSheetName maps a requested sheet name to its canonical form.
// Blank input resolves to the current month; anything else must be one of
// ValidSheetNames after trimming and uppercasing.
func ResolveSheetName(input string, now time.Time) (string, error) {
	name := CanonicalSheetName(input)
	if name == "" {
		return CurrentSheetName(now), nil
	}
	if !IsValidSheetName(name) {
		return "", &InvalidSheetNameError{Input: input}
	}
	return name, nil
}

// SheetOrdinal returns the position of name in ValidSheetNames, or -1.
func SheetOrdinal(name string) int {
	validOnce.Do(buildValidNames)
	return slices.Index(validNames, name)
}
