package transcript

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsWriter appends transcript rows to a Google spreadsheet, one tab per
// conversation destination.
type SheetsWriter struct {
	svc           *sheets.Service
	spreadsheetID string

	mu   sync.Mutex
	tabs map[string]struct{}
}

// NewSheetsWriter builds a writer authenticated with a service-account
// credentials file.
func NewSheetsWriter(ctx context.Context, credentialsFile, spreadsheetID string) (*SheetsWriter, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("transcript: spreadsheet id required")
	}
	svc, err := sheets.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("transcript: sheets client init failed: %w", err)
	}
	return &SheetsWriter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		tabs:          make(map[string]struct{}),
	}, nil
}

// Write appends one row to the record's destination tab, creating the tab on
// first use.
func (w *SheetsWriter) Write(ctx context.Context, rec Record) error {
	if rec.Destination == "" {
		return fmt.Errorf("transcript: record destination required")
	}
	if err := w.ensureTab(ctx, rec.Destination); err != nil {
		return err
	}

	row := []interface{}{
		rec.When.Format("02.01.2006"),
		rec.When.Format("15:04"),
		"",
		rec.Role,
		rec.Text,
		"",
	}
	rangeRef := fmt.Sprintf("'%s'!A:F", rec.Destination)
	_, err := w.svc.Spreadsheets.Values.
		Append(w.spreadsheetID, rangeRef, &sheets.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("transcript: append to %q failed: %w", rec.Destination, err)
	}
	return nil
}

func (w *SheetsWriter) ensureTab(ctx context.Context, title string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.tabs[title]; ok {
		return nil
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: title},
			},
		}},
	}
	_, err := w.svc.Spreadsheets.BatchUpdate(w.spreadsheetID, req).Context(ctx).Do()
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("transcript: create tab %q failed: %w", title, err)
	}
	w.tabs[title] = struct{}{}
	return nil
}

// Destination builds the per-conversation tab name from a chat id and an
// optional username.
func Destination(chatID, username string) string {
	if username == "" {
		return chatID
	}
	return chatID + " - @" + username
}
