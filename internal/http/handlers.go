package http

import (
	"context"
	"fmt"
	"net/http"

	"hostelfees/internal/core"
	"hostelfees/internal/log"
	"hostelfees/internal/services"
)

// RootMessage is the banner returned by GET /.
const RootMessage = "KBH Food Report Backend Running ✅"

// AvailableRoutes is listed in every 404 response.
var AvailableRoutes = []string{
	"/",
	"/health",
	"/sheets",
	"/summary",
	"/roomwise",
	"/yearwise",
	"/debug/columns",
	"/debug/sample",
}

// Reporter is the report service as seen by the handlers.
type Reporter interface {
	Ready(ctx context.Context) error
	GetSummary(ctx context.Context, sheet string) (core.Summary, error)
	GetRoomWise(ctx context.Context, sheet string) (core.RoomWise, error)
	GetYearWise(ctx context.Context, sheet string) (core.YearWise, error)
	ListSheets(ctx context.Context) (services.SheetListing, error)
	GetColumns(ctx context.Context, sheet string) (services.Columns, error)
	GetSample(ctx context.Context, sheet string) (services.Sample, error)
}

// Handlers serves the report routes.
type Handlers struct {
	reports           Reporter
	credentialsLoaded bool
}

// NewHandlers creates the route handlers. credentialsLoaded is reported
// by GET / as is.
func NewHandlers(reports Reporter, credentialsLoaded bool) *Handlers {
	return &Handlers{reports: reports, credentialsLoaded: credentialsLoaded}
}

func (h *Handlers) handleRoot(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(rootView{
		Message:           RootMessage,
		Status:            "healthy",
		CredentialsLoaded: h.credentialsLoaded,
	}).Write(w)
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.reports.Ready(r.Context()); err != nil {
		logRouteError(r, "Health check failed", err, log.OpHealth)
		NewJSONResponse().
			Status(http.StatusInternalServerError).
			Body(healthView{Status: "unhealthy", Error: err.Error()}).
			Write(w)
		return
	}
	NewJSONResponse().Body(healthView{
		Status:      "healthy",
		Credentials: "valid",
		SheetsAPI:   "connected",
	}).Write(w)
}

func (h *Handlers) handleSheets(w http.ResponseWriter, r *http.Request) {
	listing, err := h.reports.ListSheets(r.Context())
	if err != nil {
		routeError(w, r, "Metadata error", err, log.OpList)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Available valid sheets",
		"count", len(listing.Available), "default_sheet", listing.DefaultSheet)
	NewJSONResponse().Body(newSheetsView(listing)).Write(w)
}

func (h *Handlers) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reports.GetSummary(r.Context(), sheetParam(r))
	if err != nil {
		routeError(w, r, "Summary error", err, log.OpSummary)
		return
	}
	logReport(r, log.OpSummary, summary.Sheet, summary.TotalStudents)
	NewJSONResponse().Body(newSummaryView(summary)).Write(w)
}

func (h *Handlers) handleRoomWise(w http.ResponseWriter, r *http.Request) {
	rw, err := h.reports.GetRoomWise(r.Context(), sheetParam(r))
	if err != nil {
		routeError(w, r, "Roomwise error", err, log.OpRoomWise)
		return
	}
	logReport(r, log.OpRoomWise, rw.Sheet, len(rw.Rooms))
	NewJSONResponse().Body(newRoomWiseView(rw)).Write(w)
}

func (h *Handlers) handleYearWise(w http.ResponseWriter, r *http.Request) {
	yw, err := h.reports.GetYearWise(r.Context(), sheetParam(r))
	if err != nil {
		routeError(w, r, "Yearwise error", err, log.OpYearWise)
		return
	}
	logReport(r, log.OpYearWise, yw.Sheet, len(yw.Years))
	NewJSONResponse().Body(newYearWiseView(yw)).Write(w)
}

func (h *Handlers) handleDebugColumns(w http.ResponseWriter, r *http.Request) {
	cols, err := h.reports.GetColumns(r.Context(), sheetParam(r))
	if err != nil {
		routeError(w, r, "", err, log.OpColumns)
		return
	}
	NewJSONResponse().Body(newColumnsView(cols)).Write(w)
}

func (h *Handlers) handleDebugSample(w http.ResponseWriter, r *http.Request) {
	sample, err := h.reports.GetSample(r.Context(), sheetParam(r))
	if err != nil {
		routeError(w, r, "", err, log.OpSample)
		return
	}
	NewJSONResponse().Body(newSampleView(sample)).Write(w)
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().
		Status(http.StatusNotFound).
		Body(notFoundView{
			Error:           "Route not found",
			Message:         fmt.Sprintf("Cannot %s %s", r.Method, r.URL.Path),
			AvailableRoutes: AvailableRoutes,
		}).
		Write(w)
}

// sheetParam returns the raw sheet query parameter. Resolution, trimming
// and case folding happen in the service.
func sheetParam(r *http.Request) string {
	return r.URL.Query().Get("sheet")
}

// routeError logs err and answers 500 with the error message, prefixed
// when prefix is not empty.
func routeError(w http.ResponseWriter, r *http.Request, prefix string, err error, op string) {
	msg := err.Error()
	if prefix != "" {
		msg = prefix + ": " + msg
	}
	logRouteError(r, "Request failed", err, op)
	InternalServerError(msg).Write(w)
}

func logRouteError(r *http.Request, msg string, err error, op string) {
	log.FromContext(r.Context()).LogError(r.Context(), msg, err, op, services.ErrorType(err),
		log.FieldPath, r.URL.Path)
}

func logReport(r *http.Request, op, sheet string, groups int) {
	log.NewStructuredLogger(log.FromContext(r.Context())).LogReport(r.Context(), op, sheet, groups)
}
