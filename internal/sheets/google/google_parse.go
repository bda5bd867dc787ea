package google

import (
	"fmt"

	ports "hostelfees/internal/sheets"

	gsheet "google.golang.org/api/sheets/v4"
)

// valuesToStrings converts an API values matrix into strings. Cells are
// formatted values, so numbers arrive as "2,750" when the sheet shows them
// that way; callers parse leniently.
func valuesToStrings(values [][]interface{}) [][]string {
	if len(values) == 0 {
		return nil
	}
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = toStrings(row)
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		if v == nil {
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}

func sheetInfos(sheets []*gsheet.Sheet) []ports.SheetInfo {
	out := make([]ports.SheetInfo, 0, len(sheets))
	for _, s := range sheets {
		if s == nil || s.Properties == nil {
			continue
		}
		out = append(out, ports.SheetInfo{Name: s.Properties.Title, ID: s.Properties.SheetId})
	}
	return out
}
