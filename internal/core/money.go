package core

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// amountPrefix is the plain decimal number a fee cell starts with.
var amountPrefix = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)`)

// ParseAmount converts a fee cell into a non-negative amount.
//
// Amounts are parsed leniently: a rupee sign and digit-group commas are
// stripped ("₹2,750" is 2750) and the leading number is read, ignoring any
// trailing text ("2750/-" is 2750). Anything without a leading number,
// scientific notation, and negative values are treated as zero. A bad cell
// never fails a report.
//
// Examples:
//
//	ParseAmount("2750")   -> 2750
//	ParseAmount(" 1,500 ") -> 1500
//	ParseAmount("2750/-") -> 2750
//	ParseAmount("N/A")    -> 0
//	ParseAmount("1e3")    -> 0
//	ParseAmount("-20")    -> 0
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "₹")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	num := amountPrefix.FindString(s)
	if num == "" {
		return decimal.Zero
	}
	if rest := s[len(num):]; rest != "" && (rest[0] == 'e' || rest[0] == 'E') {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(num)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// clampZero returns d, or zero when d is negative.
func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
