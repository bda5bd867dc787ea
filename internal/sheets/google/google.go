package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"hostelfees/internal/core"
	ports "hostelfees/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client reads the fee spreadsheet through the Sheets v4 API with a
// read-only service account.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	clientEmail   string
}

// Ensure interface conformance
var _ ports.DataSource = (*Client)(nil)

// Options selects the spreadsheet and the service account credentials.
// CredentialsJSON wins over CredentialsFile.
type Options struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets client from explicit options.
func New(ctx context.Context, opts Options) (*Client, error) {
	id := strings.TrimSpace(opts.SpreadsheetID)
	if id == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := loadCredentials(opts)
	if err != nil {
		return nil, err
	}
	email, err := serviceAccountEmail(creds)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"client_email", email,
		"scope", gsheet.SpreadsheetsReadonlyScope)

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created successfully", "spreadsheet_id", id)
	return &Client{svc: svc, spreadsheetID: id, clientEmail: email}, nil
}

// NewWithService wraps an already configured service. Tests point it at a
// local endpoint.
func NewWithService(svc *gsheet.Service, spreadsheetID string) *Client {
	return &Client{svc: svc, spreadsheetID: spreadsheetID}
}

func loadCredentials(opts Options) ([]byte, error) {
	if inline := strings.TrimSpace(opts.CredentialsJSON); inline != "" {
		return []byte(inline), nil
	}
	if opts.CredentialsFile == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_CREDENTIALS, GOOGLE_CREDENTIALS_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	b, err := os.ReadFile(opts.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}

func serviceAccountEmail(creds []byte) (string, error) {
	var key struct {
		Type        string `json:"type"`
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(creds, &key); err != nil {
		return "", fmt.Errorf("parse service account credentials: %w", err)
	}
	if key.Type != "" && key.Type != "service_account" {
		return "", fmt.Errorf("unsupported credentials type %q: expected service_account", key.Type)
	}
	return key.ClientEmail, nil
}

// SpreadsheetID returns the spreadsheet the client reads from.
func (c *Client) SpreadsheetID() string { return c.spreadsheetID }

// ClientEmail returns the service account identity, empty when unknown.
func (c *Client) ClientEmail() string { return c.clientEmail }

// FetchRange implements ports.RangeFetcher.
func (c *Client) FetchRange(ctx context.Context, sheet, cells string) ([][]string, error) {
	if c == nil || c.svc == nil {
		return nil, core.ErrDataSourceUnavailable
	}
	rng := ports.QualifiedRange(sheet, cells)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return valuesToStrings(resp.Values), nil
}

// ListSheets implements ports.SheetLister.
func (c *Client) ListSheets(ctx context.Context) ([]ports.SheetInfo, error) {
	if c == nil || c.svc == nil {
		return nil, core.ErrDataSourceUnavailable
	}
	resp, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties(sheetId,title)").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet %s: %w", c.spreadsheetID, err)
	}
	return sheetInfos(resp.Sheets), nil
}
