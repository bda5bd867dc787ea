package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostelfees/internal/amqp"
	"hostelfees/internal/core"
	"hostelfees/internal/services"
	"hostelfees/internal/sheets"
	"hostelfees/internal/sheets/memory"
	"hostelfees/internal/storage"
	"hostelfees/internal/worker"
)

func march2024() time.Time { return time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC) }

func testReports() *services.ReportService {
	store := memory.New(map[string][][]string{
		"MARCH 2024": {
			{"ROOM", "PAID", "AMOUNT", "YEAR"},
			{"10", "Paid", "2750", "1st Year"},
			{"2", "pending", "1000", "2nd Year"},
		},
		"FEBRUARY 2024": {
			{"ROOM", "PAID", "AMOUNT", "YEAR"},
			{"5", "PAID", "100", "1st Year"},
		},
	})
	return services.NewReportService(store,
		services.WithClock(march2024),
		services.WithSpreadsheetID("sheet-123"))
}

func reportDeps() Dependencies {
	reports := testReports()
	return Dependencies{
		Reports: func(context.Context) (Reports, func() error, error) {
			return reports, nil, nil
		},
	}
}

func run(t *testing.T, deps Dependencies, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(deps)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSummaryTable(t *testing.T) {
	out, err := run(t, reportDeps(), "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "MARCH 2024")
	assert.Contains(t, out, "2750.00")
	assert.Contains(t, out, "1000.00")
	assert.Contains(t, out, "50.0%")
}

func TestSummaryJSONMatchesAPI(t *testing.T) {
	out, err := run(t, reportDeps(), "summary", "--sheet", "february 2024", "-o", "json")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "FEBRUARY 2024", got["sheet"])
	assert.Equal(t, float64(1), got["total_students"])
	assert.Equal(t, float64(100), got["total_paid_amount"])
	assert.Equal(t, float64(0), got["pending_amount"])
}

func TestInvalidOutputFormat(t *testing.T) {
	_, err := run(t, reportDeps(), "summary", "--output", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --output")
}

func TestInvalidSheet(t *testing.T) {
	_, err := run(t, reportDeps(), "summary", "--sheet", "MARCH 2026")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInvalidSheetName))
}

func TestRoomWiseTableIsNaturallyOrdered(t *testing.T) {
	out, err := run(t, reportDeps(), "roomwise")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "MARCH 2024", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "ROOM"))
	assert.True(t, strings.HasPrefix(lines[2], "2 "))
	assert.True(t, strings.HasPrefix(lines[3], "10 "))
}

func TestYearWiseJSON(t *testing.T) {
	out, err := run(t, reportDeps(), "yearwise", "-o", "json")
	require.NoError(t, err)

	var got struct {
		Sheet    string                    `json:"sheet"`
		YearWise map[string]map[string]any `json:"year_wise"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "MARCH 2024", got.Sheet)
	assert.Equal(t, float64(2750), got.YearWise["1st Year"]["collected_amount"])
	assert.Equal(t, float64(1000), got.YearWise["2nd Year"]["pending_amount"])
}

func TestSheetsJSON(t *testing.T) {
	out, err := run(t, reportDeps(), "sheets", "-o", "json")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "sheet-123", got["spreadsheet_id"])
	assert.Equal(t, "MARCH 2024", got["default_sheet"])
	assert.Equal(t, float64(2), got["total_sheets"])
}

func TestDashboardJSON(t *testing.T) {
	out, err := run(t, reportDeps(), "dashboard", "-o", "json")
	require.NoError(t, err)

	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	for _, key := range []string{"summary", "room_wise", "year_wise", "sheets"} {
		assert.Contains(t, got, key)
	}
	assert.JSONEq(t, "50", string(got["collection_rate"]))
}

func TestDashboardTable(t *testing.T) {
	out, err := run(t, reportDeps(), "dashboard", "--sheet", "MARCH 2024")
	require.NoError(t, err)
	assert.Contains(t, out, "COLLECTION RATE")
	assert.Contains(t, out, "Rooms")
	assert.Contains(t, out, "Years")
	assert.Contains(t, out, "FEBRUARY 2024")
}

func TestDashboardFailsWhenAnyViewFails(t *testing.T) {
	deps := Dependencies{
		Reports: func(context.Context) (Reports, func() error, error) {
			return services.NewReportService(memory.New(nil), services.WithClock(march2024)), nil, nil
		},
	}
	_, err := run(t, deps, "dashboard")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dashboard error")
}

func TestReportsWithoutSource(t *testing.T) {
	_, err := run(t, Dependencies{}, "summary")
	assert.ErrorIs(t, err, core.ErrDataSourceUnavailable)
}

func TestReportsCleanupRuns(t *testing.T) {
	closed := false
	reports := testReports()
	deps := Dependencies{
		Reports: func(context.Context) (Reports, func() error, error) {
			return reports, func() error { closed = true; return nil }, nil
		},
	}
	_, err := run(t, deps, "sheets")
	require.NoError(t, err)
	assert.True(t, closed)
}

type fakeMirror struct {
	report worker.MirrorReport
	err    error
}

func (f *fakeMirror) MirrorAll(context.Context, string) (worker.MirrorReport, error) {
	return f.report, f.err
}

func TestMirrorRun(t *testing.T) {
	failure := errors.New("quota exceeded")
	mirror := &fakeMirror{
		report: worker.MirrorReport{
			Mirrored: []string{"JANUARY 2024", "FEBRUARY 2024"},
			Failed:   map[string]error{"MARCH 2024": failure},
		},
		err: failure,
	}
	deps := Dependencies{
		Mirror: func(context.Context) (Mirrorer, func() error, error) { return mirror, nil, nil },
	}

	out, err := run(t, deps, "mirror", "run")
	require.ErrorIs(t, err, failure)
	assert.Contains(t, out, "mirrored JANUARY 2024")
	assert.Contains(t, out, "mirrored FEBRUARY 2024")
	assert.Contains(t, out, "failed   MARCH 2024: quota exceeded")
}

type fakePublisher struct {
	published []*amqp.MirrorRequest
}

func (f *fakePublisher) PublishMirrorRequest(_ context.Context, req *amqp.MirrorRequest) error {
	f.published = append(f.published, req)
	return nil
}

func publisherDeps(pub *fakePublisher) Dependencies {
	return Dependencies{
		Publisher: func(context.Context) (Publisher, func() error, error) { return pub, nil, nil },
	}
}

func TestMirrorRequest(t *testing.T) {
	pub := &fakePublisher{}

	out, err := run(t, publisherDeps(pub), "mirror", "request", "--sheet", " march 2024 ")
	require.NoError(t, err)
	require.Len(t, pub.published, 1)
	assert.Equal(t, "MARCH 2024", pub.published[0].Sheet)
	assert.NotEmpty(t, pub.published[0].ID)
	assert.Contains(t, out, "requested mirror of MARCH 2024")

	out, err = run(t, publisherDeps(pub), "mirror", "request")
	require.NoError(t, err)
	require.Len(t, pub.published, 2)
	assert.Empty(t, pub.published[1].Sheet)
	assert.Contains(t, out, "of all sheets")
}

func TestMirrorRequestRejectsInvalidSheet(t *testing.T) {
	pub := &fakePublisher{}
	_, err := run(t, publisherDeps(pub), "mirror", "request", "--sheet", "Notes")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInvalidSheetName))
	assert.Empty(t, pub.published)
}

func TestMirrorRequestWithoutAMQP(t *testing.T) {
	_, err := run(t, Dependencies{}, "mirror", "request")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AMQP_URL")
}

type fakeStatus struct {
	statuses map[string]storage.SheetStatus
	asked    []string
}

func (f *fakeStatus) Status(_ context.Context, sheet string) (storage.SheetStatus, error) {
	f.asked = append(f.asked, sheet)
	st, ok := f.statuses[sheet]
	if !ok {
		return storage.SheetStatus{}, sheets.ErrSheetNotFound
	}
	return st, nil
}

func statusDeps(st *fakeStatus) Dependencies {
	return Dependencies{
		Status: func(context.Context) (MirrorStatus, func() error, error) { return st, nil, nil },
	}
}

func TestMirrorStatus(t *testing.T) {
	st := &fakeStatus{statuses: map[string]storage.SheetStatus{
		"MARCH 2024": {
			Sheet:      sheets.SheetInfo{Name: "MARCH 2024", ID: 7},
			RowCount:   42,
			RequestID:  "req-1",
			MirroredAt: time.Date(2024, time.March, 11, 8, 30, 0, 0, time.UTC),
		},
	}}

	out, err := run(t, statusDeps(st), "mirror", "status", "march 2024")
	require.NoError(t, err)
	assert.Equal(t, []string{"MARCH 2024"}, st.asked)
	assert.Contains(t, out, "MARCH 2024: 42 rows mirrored at 2024-03-11T08:30:00Z (request req-1)")

	_, err = run(t, statusDeps(st), "mirror", "status", "APRIL 2024")
	assert.ErrorIs(t, err, sheets.ErrSheetNotFound)
}

func TestMirrorStatusRejectsInvalidSheet(t *testing.T) {
	st := &fakeStatus{}
	_, err := run(t, statusDeps(st), "mirror", "status", "Notes")
	assert.ErrorIs(t, err, core.ErrInvalidSheetName)
	assert.Empty(t, st.asked)

	_, err = run(t, Dependencies{}, "mirror", "status", "MARCH 2024")
	assert.EqualError(t, err, "mirror is not configured")
}
