// Package google implements the sheets ports against a Google Spreadsheet.
// Each channel and kind pair lives in its own worksheet named
// "<kind>_<channel>" (e.g. "expenses_user1"); rows are addressed by their
// 1-based sheet row number.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"tally/internal/core"
	ports "tally/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	expenseRange = "A2:F"
	incomeRange  = "A2:D"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

// Ensure interface conformance
var (
	_ ports.ExpenseAppender = (*Client)(nil)
	_ ports.IncomeAppender  = (*Client)(nil)
	_ ports.ExpenseLister   = (*Client)(nil)
	_ ports.IncomeLister    = (*Client)(nil)
	_ ports.ExpenseUpdater  = (*Client)(nil)
	_ ports.ExpenseDeleter  = (*Client)(nil)
	_ ports.IncomeUpdater   = (*Client)(nil)
	_ ports.IncomeDeleter   = (*Client)(nil)
)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID.
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created")
	return service, nil
}

func worksheetName(kind core.Kind, ch core.Channel) string {
	return fmt.Sprintf("%s_%s", kind, ch)
}

func (c *Client) AppendExpense(ctx context.Context, ch core.Channel, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	row := []any{e.Date.String(), e.Amount.Euros(), e.Store, e.Category, e.PaymentOption, e.Card}
	return c.appendRow(ctx, worksheetName(core.KindExpenses, ch), row)
}

func (c *Client) AppendIncome(ctx context.Context, ch core.Channel, in core.Income) (string, error) {
	if err := in.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	row := []any{in.Date.String(), in.Amount.Euros(), in.Source, in.PaymentOption}
	return c.appendRow(ctx, worksheetName(core.KindIncome, ch), row)
}

func (c *Client) appendRow(ctx context.Context, sheet string, row []any) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	resp, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, fmt.Sprintf("%s!A:A", sheet), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", sheet, err)
	}
	if resp.Updates == nil || resp.Updates.UpdatedRange == "" {
		return "", fmt.Errorf("append to %s: no updated range in response", sheet)
	}
	rowNum, err := rowFromRange(resp.Updates.UpdatedRange)
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", sheet, err)
	}
	return strconv.Itoa(rowNum), nil
}

func (c *Client) ListExpenses(ctx context.Context, ch core.Channel) ([]core.Expense, error) {
	rows, err := c.readRows(ctx, worksheetName(core.KindExpenses, ch), expenseRange)
	if err != nil {
		return nil, err
	}
	var out []core.Expense
	for i, row := range rows {
		e, ok := parseExpenseRow(toStrings(row))
		if !ok {
			continue
		}
		e.RowID = strconv.Itoa(i + 2)
		out = append(out, e)
	}
	return out, nil
}

func (c *Client) ListIncome(ctx context.Context, ch core.Channel) ([]core.Income, error) {
	rows, err := c.readRows(ctx, worksheetName(core.KindIncome, ch), incomeRange)
	if err != nil {
		return nil, err
	}
	var out []core.Income
	for i, row := range rows {
		in, ok := parseIncomeRow(toStrings(row))
		if !ok {
			continue
		}
		in.RowID = strconv.Itoa(i + 2)
		out = append(out, in)
	}
	return out, nil
}

func (c *Client) readRows(ctx context.Context, sheet, rng string) ([][]any, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	full := fmt.Sprintf("%s!%s", sheet, rng)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, full).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", full, err)
	}
	return resp.Values, nil
}

func (c *Client) UpdateExpense(ctx context.Context, ch core.Channel, rowID string, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	row := []any{e.Date.String(), e.Amount.Euros(), e.Store, e.Category, e.PaymentOption, e.Card}
	return c.updateRow(ctx, worksheetName(core.KindExpenses, ch), rowID, "F", row)
}

func (c *Client) UpdateIncome(ctx context.Context, ch core.Channel, rowID string, in core.Income) error {
	if err := in.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	row := []any{in.Date.String(), in.Amount.Euros(), in.Source, in.PaymentOption}
	return c.updateRow(ctx, worksheetName(core.KindIncome, ch), rowID, "D", row)
}

func (c *Client) updateRow(ctx context.Context, sheet, rowID, lastCol string, row []any) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rowNum, err := parseRowID(rowID)
	if err != nil {
		return err
	}
	rng := fmt.Sprintf("%s!A%d:%s%d", sheet, rowNum, lastCol, rowNum)
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

func (c *Client) DeleteExpense(ctx context.Context, ch core.Channel, rowID string) error {
	return c.deleteRow(ctx, worksheetName(core.KindExpenses, ch), rowID)
}

func (c *Client) DeleteIncome(ctx context.Context, ch core.Channel, rowID string) error {
	return c.deleteRow(ctx, worksheetName(core.KindIncome, ch), rowID)
}

// deleteRow removes the sheet row entirely so later appends do not land in a
// gap. Row numbers below the deleted row shift up, so callers holding other
// row ids for the same worksheet must re-list after a delete.
func (c *Client) deleteRow(ctx context.Context, sheet, rowID string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rowNum, err := parseRowID(rowID)
	if err != nil {
		return err
	}
	sheetID, err := c.sheetID(ctx, sheet)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(rowNum - 1),
					EndIndex:   int64(rowNum),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d from %s: %w", rowNum, sheet, err)
	}
	return nil
}

// sheetID resolves a worksheet title to its numeric sheet id.
func (c *Client) sheetID(ctx context.Context, title string) (int64, error) {
	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets(properties(sheetId,title))").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("spreadsheet metadata: %w", err)
	}
	for _, s := range meta.Sheets {
		if s.Properties != nil && strings.EqualFold(s.Properties.Title, title) {
			return s.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("worksheet %q not found: %w", title, ports.ErrRowNotFound)
}

// parseRowID converts a stored row id back into a sheet row number. Row 1 is
// the header, so anything below 2 cannot address a data row.
func parseRowID(rowID string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(rowID))
	if err != nil || n < 2 {
		return 0, fmt.Errorf("row id %q: %w", rowID, ports.ErrRowNotFound)
	}
	return n, nil
}
