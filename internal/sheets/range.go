package sheets

import (
	"fmt"
	"strconv"
	"strings"
)

// CellRange is a parsed A1 range without a sheet prefix. Columns are
// zero-based and inclusive; rows are one-based and inclusive, with
// EndRow 0 meaning "to the last row".
type CellRange struct {
	StartCol int
	EndCol   int
	StartRow int
	EndRow   int
}

// ParseA1Range parses ranges such as "A1:M", "A1:M1" or "B2:D10".
// Whole-column ranges ("A:M") start at row 1.
func ParseA1Range(s string) (CellRange, error) {
	start, end, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		end = start
	}
	sc, sr, err := parseCell(start)
	if err != nil {
		return CellRange{}, fmt.Errorf("range %q: %w", s, err)
	}
	ec, er, err := parseCell(end)
	if err != nil {
		return CellRange{}, fmt.Errorf("range %q: %w", s, err)
	}
	if sr == 0 {
		sr = 1
	}
	r := CellRange{StartCol: sc, EndCol: ec, StartRow: sr, EndRow: er}
	if r.EndCol < r.StartCol || (r.EndRow != 0 && r.EndRow < r.StartRow) {
		return CellRange{}, fmt.Errorf("range %q: end before start", s)
	}
	return r, nil
}

// parseCell splits "M12" into column index 12 and row 12. The row is 0
// when absent.
func parseCell(s string) (col, row int, err error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	i := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		col = col*26 + int(s[i]-'A'+1)
		i++
	}
	if i == 0 {
		return 0, 0, fmt.Errorf("cell %q: missing column", s)
	}
	if i < len(s) {
		row, err = strconv.Atoi(s[i:])
		if err != nil || row < 1 {
			return 0, 0, fmt.Errorf("cell %q: invalid row", s)
		}
	}
	return col - 1, row, nil
}

// Apply cuts the range out of a full sheet grid, shaping the result the
// way the Sheets API returns values: trailing blank cells of each row and
// trailing blank rows are dropped.
func (r CellRange) Apply(grid [][]string) [][]string {
	if r.StartRow > len(grid) {
		return nil
	}
	last := len(grid)
	if r.EndRow != 0 && r.EndRow < last {
		last = r.EndRow
	}
	out := make([][]string, 0, last-r.StartRow+1)
	for _, row := range grid[r.StartRow-1 : last] {
		var cells []string
		if r.StartCol < len(row) {
			end := min(r.EndCol+1, len(row))
			cells = trimTrailingBlank(row[r.StartCol:end])
		}
		out = append(out, cells)
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func trimTrailingBlank(cells []string) []string {
	n := len(cells)
	for n > 0 && strings.TrimSpace(cells[n-1]) == "" {
		n--
	}
	if n == 0 {
		return nil
	}
	out := make([]string, n)
	copy(out, cells[:n])
	return out
}

// QualifiedRange prefixes cells with a quoted sheet name, as in 'MARCH 2024'!A1:M.
func QualifiedRange(sheet, cells string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(sheet, "'", "''"), cells)
}
