package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostelfees/internal/log"
	"hostelfees/internal/services"
	"hostelfees/internal/sheets"
	"hostelfees/internal/sheets/memory"
)

var testNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func testConfig() ServerConfig {
	return ServerConfig{
		Addr:              ":0",
		AllowedOrigins:    []string{"http://localhost:5173", "https://hostel-fees-insight.vercel.app"},
		RequestsPerMinute: 1000,
		RequestTimeout:    5 * time.Second,
	}
}

func testLogger(buf *bytes.Buffer) *log.Logger {
	return log.New(log.Config{Format: "json", Output: buf, Level: -8})
}

func newTestServer(t *testing.T, source sheets.DataSource) *Server {
	t.Helper()
	reports := services.NewReportService(source,
		services.WithClock(func() time.Time { return testNow }),
		services.WithSpreadsheetID("sheet-123"))
	return NewServer(testConfig(), reports, true, testLogger(&bytes.Buffer{}))
}

func marchStore() *memory.Store {
	return memory.New(map[string][][]string{
		"MARCH 2024": {
			{"ROOM", "PAID", "AMOUNT", "YEAR"},
			{"101", "Paid", "2750", "1st Year"},
			{"102", "pending", "0", "2nd Year"},
			{"", "Paid", "500", "1st Year"},
		},
		"Notes": {{"anything"}},
	})
}

func get(t *testing.T, srv *Server, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return rr, body
}

func TestRoot(t *testing.T) {
	srv := newTestServer(t, marchStore())

	rr, body := get(t, srv, "/")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, RootMessage, body["message"])
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, true, body["credentials_loaded"])
}

func TestHealth(t *testing.T) {
	rr, body := get(t, newTestServer(t, marchStore()), "/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]any{"status": "healthy", "credentials": "valid", "sheets_api": "connected"}, body)

	rr, body = get(t, newTestServer(t, nil), "/health")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, map[string]any{"status": "unhealthy", "error": "sheets API not initialized"}, body)
}

func TestSummary(t *testing.T) {
	rr, body := get(t, newTestServer(t, marchStore()), "/summary?sheet=march%202024")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]any{
		"sheet":             "MARCH 2024",
		"total_students":    float64(2),
		"paid_count":        float64(1),
		"unpaid_count":      float64(1),
		"total_paid_amount": float64(2750),
		"pending_amount":    float64(0),
		"expected_total":    float64(2750),
	}, body)
}

func TestSummaryDefaultsToCurrentMonth(t *testing.T) {
	rr, body := get(t, newTestServer(t, marchStore()), "/summary")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "MARCH 2024", body["sheet"])
}

func TestRoutesIgnoreTrailingSlashAndCase(t *testing.T) {
	srv := newTestServer(t, marchStore())

	for _, target := range []string{"/summary/", "/SUMMARY", "/Summary/?sheet=march%202024", "/DEBUG/Columns"} {
		rr, body := get(t, srv, target)
		assert.Equal(t, http.StatusOK, rr.Code, target)
		assert.NotContains(t, body, "error", target)
	}

	_, body := get(t, srv, "/SUMMARY?sheet=March%202024")
	assert.Equal(t, "MARCH 2024", body["sheet"])
}

func TestRoomWise(t *testing.T) {
	rr, body := get(t, newTestServer(t, marchStore()), "/roomwise?sheet=MARCH%202024")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "MARCH 2024", body["sheet"])

	rooms := body["room_wise"].(map[string]any)
	require.Len(t, rooms, 2)
	assert.Equal(t, map[string]any{
		"paid_count":      float64(1),
		"unpaid_count":    float64(0),
		"paid_amount":     float64(2750),
		"pending_amount":  float64(0),
		"expected_amount": float64(2750),
	}, rooms["101"])
	assert.Equal(t, float64(1), rooms["102"].(map[string]any)["unpaid_count"])
}

func TestYearWise(t *testing.T) {
	rr, body := get(t, newTestServer(t, marchStore()), "/yearwise?sheet=MARCH%202024")
	require.Equal(t, http.StatusOK, rr.Code)

	years := body["year_wise"].(map[string]any)
	require.Len(t, years, 2)
	first := years["1st Year"].(map[string]any)
	assert.Equal(t, float64(2750), first["collected_amount"])
	assert.NotContains(t, first, "paid_amount")
}

func TestReportErrorsArePrefixed500s(t *testing.T) {
	srv := newTestServer(t, marchStore())
	tests := []struct {
		target string
		want   string
	}{
		{"/summary?sheet=MARCH%202026", "Summary error: invalid sheet name 'MARCH 2026': must be between JANUARY 2023 and DECEMBER 2025"},
		{"/roomwise?sheet=foo", "Roomwise error: invalid sheet name 'foo': must be between JANUARY 2023 and DECEMBER 2025"},
		{"/yearwise?sheet=APRIL%202024", "Yearwise error: read 'APRIL 2024'!A1:M: sheet not found"},
		{"/debug/sample?sheet=APRIL%202024", "read 'APRIL 2024'!A1:M: sheet not found"},
		{"/debug/columns?sheet=JUNE%202030", "invalid sheet name 'JUNE 2030': must be between JANUARY 2023 and DECEMBER 2025"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rr, body := get(t, srv, tt.target)
			assert.Equal(t, http.StatusInternalServerError, rr.Code)
			assert.Equal(t, map[string]any{"error": tt.want}, body)
		})
	}
}

func TestEmptySheetIs500(t *testing.T) {
	store := memory.New(map[string][][]string{"MARCH 2024": {{"ROOM", "PAID", "AMOUNT", "YEAR"}}})

	rr, body := get(t, newTestServer(t, store), "/summary")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Summary error: no data found in 'MARCH 2024'", body["error"])
}

func TestUnavailableSource(t *testing.T) {
	rr, body := get(t, newTestServer(t, nil), "/sheets")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Metadata error: sheets API not initialized", body["error"])
}

func TestSheets(t *testing.T) {
	rr, body := get(t, newTestServer(t, marchStore()), "/sheets")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "sheet-123", body["spreadsheet_id"])
	assert.Equal(t, "MARCH 2024", body["default_sheet"])
	assert.Equal(t, "JANUARY 2023 - DECEMBER 2025", body["valid_range"])
	assert.Equal(t, float64(1), body["total_sheets"])
	assert.Equal(t, []any{map[string]any{"name": "MARCH 2024", "id": float64(0)}}, body["available_sheets"])
}

func TestDebugColumns(t *testing.T) {
	store := memory.New(map[string][][]string{
		"MARCH 2024": {{" Room", "paid", "AMOUNT", "Year "}, {"1", "PAID", "5", "x"}},
	})

	rr, body := get(t, newTestServer(t, store), "/debug/columns")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "MARCH 2024", body["sheet"])
	assert.Equal(t, []any{" Room", "paid", "AMOUNT", "Year "}, body["columns"])
	assert.Equal(t, float64(4), body["column_count"])
}

func TestDebugColumnsEmptySheet(t *testing.T) {
	store := memory.New(map[string][][]string{"MARCH 2024": {}})

	rr, body := get(t, newTestServer(t, store), "/debug/columns")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []any{}, body["columns"])
	assert.Equal(t, float64(0), body["column_count"])
}

func TestDebugSample(t *testing.T) {
	rr, body := get(t, newTestServer(t, marchStore()), "/debug/sample")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(2), body["total_rows"])
	assert.Equal(t, []any{"ROOM", "PAID", "AMOUNT", "YEAR"}, body["columns"])
	assert.Equal(t, map[string]any{"PAID": float64(1), "PENDING": float64(1)}, body["paid_distribution"])

	rows := body["sample_rows"].([]any)
	require.Len(t, rows, 2)
	assert.Equal(t, map[string]any{"ROOM": "101", "PAID": "PAID", "AMOUNT": float64(2750), "YEAR": "1st Year"}, rows[0])
}

func TestNotFound(t *testing.T) {
	srv := newTestServer(t, marchStore())
	for _, tc := range []struct{ method, target, message string }{
		{http.MethodGet, "/nope?x=1", "Cannot GET /nope"},
		{http.MethodPost, "/summary", "Cannot POST /summary"},
		{http.MethodDelete, "/debug/other", "Cannot DELETE /debug/other"},
	} {
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.target, nil))
		assert.Equal(t, http.StatusNotFound, rr.Code, tc.target)

		var body notFoundView
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "Route not found", body.Error)
		assert.Equal(t, tc.message, body.Message)
		assert.Equal(t, AvailableRoutes, body.AvailableRoutes)
	}
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, marchStore())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://hostel-fees-insight.vercel.app")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	assert.Equal(t, "https://hostel-fees-insight.vercel.app", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestPreflight(t *testing.T) {
	srv := newTestServer(t, marchStore())

	req := httptest.NewRequest(http.MethodOptions, "/summary", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Less(t, rr.Code, 300)
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	rr, _ := get(t, newTestServer(t, marchStore()), "/")
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rr.Header().Get("Content-Security-Policy"))
	assert.Len(t, rr.Header().Get("X-Request-ID"), 36)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RequestsPerMinute = 2
	srv := NewServer(cfg, services.NewReportService(marchStore()), false, testLogger(&bytes.Buffer{}))

	codes := make([]int, 0, 3)
	for range 3 {
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestRequestsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	srv := NewServer(testConfig(), services.NewReportService(nil), false, testLogger(&buf))

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/summary", nil))
	require.Equal(t, http.StatusInternalServerError, rr.Code)

	out := buf.String()
	assert.Contains(t, out, `"msg":"HTTP request completed"`)
	assert.Contains(t, out, `"status_code":500`)
	assert.Contains(t, out, `"error_type":"unavailable_error"`)
	assert.Contains(t, out, `"request_id":"`+rr.Header().Get("X-Request-ID")+`"`)
	assert.Equal(t, int64(1), srv.TotalRequests())
}
