// Package google exports project expense reports to a Google Spreadsheet
// using Service Account credentials.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"outlay/internal/core"
	"outlay/internal/export"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ export.ReportWriter = (*Client)(nil)

// New creates a Sheets exporter for the given spreadsheet.
// Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID, sheetName string) (*Client, error) {
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if sheetName == "" {
		sheetName = "Expenses"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing Google service account credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// AppendReport appends one header row for the project followed by one row
// per expense, and returns the number of expense rows written.
func (c *Client) AppendReport(ctx context.Context, project core.Project, status core.BudgetStatus, expenses []core.Expense) (int, error) {
	values := make([][]any, 0, len(expenses)+1)
	values = append(values, []any{
		fmt.Sprintf("Project: %s", project.Name),
		fmt.Sprintf("Budget: %s", project.Budget.Decimal()),
		fmt.Sprintf("Spent: %s", status.TotalSpent.Decimal()),
		fmt.Sprintf("Remaining: %s", status.Remaining.Decimal()),
		fmt.Sprintf("Exported: %s", time.Now().Format("2006-01-02")),
	})
	for _, e := range expenses {
		values = append(values, []any{
			e.Date.Format("2006-01-02"),
			e.Description,
			string(e.Category),
			e.Amount.Decimal(),
			e.CreatedBy,
		})
	}

	cctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	rng := fmt.Sprintf("%s!A:E", c.sheetName)
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{
		Values: values,
	}).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(cctx).Do()
	if err != nil {
		return 0, fmt.Errorf("append report rows: %w", err)
	}

	slog.InfoContext(ctx, "Exported project report to Google Sheets",
		"project_id", project.ID,
		"rows", len(expenses),
		"spreadsheet_id", c.spreadsheetID,
		"sheet", c.sheetName)

	return len(expenses), nil
}
