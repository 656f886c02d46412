package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/report"
)

// ReportWriter publishes an enriched ledger and returns where it went.
type ReportWriter interface {
	Write(ctx context.Context, rows []model.EnrichedTransaction, summary report.Summary) (string, error)
}

// spreadsheetAPI is the subset of the Sheets API the writer drives.
type spreadsheetAPI interface {
	Create(ctx context.Context, title, timeZone string, tabs []string) (string, error)
	EnsureTabs(ctx context.Context, spreadsheetID string, tabs []string) (map[string]int64, error)
	Clear(ctx context.Context, spreadsheetID, tab string) error
	Update(ctx context.Context, spreadsheetID, rng string, values [][]any) error
	BatchUpdate(ctx context.Context, spreadsheetID string, requests []*sheets.Request) error
}

// Writer implements ReportWriter for Google Sheets.
type Writer struct {
	api    spreadsheetAPI
	logger *slog.Logger
	config Config
}

var _ ReportWriter = (*Writer)(nil)

// NewWriter creates a new Google Sheets report writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	srv, err := newService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return newWriter(&googleAPI{srv: srv}, config, logger), nil
}

func newWriter(api spreadsheetAPI, config Config, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{api: api, config: config, logger: logger.With("component", "sheets")}
}

// Write replaces the ledger tabs of the configured spreadsheet, creating the
// spreadsheet when no id is configured. It returns the spreadsheet id.
func (w *Writer) Write(ctx context.Context, rows []model.EnrichedTransaction, summary report.Summary) (string, error) {
	w.logger.Info("starting sheets export",
		"rows", len(rows),
		"date_range", fmt.Sprintf("%s to %s", summary.Period.Start.Format("2006-01-02"), summary.Period.End.Format("2006-01-02")))

	tabs := BuildTabs(rows, summary)
	titles := make([]string, len(tabs))
	for i, tab := range tabs {
		titles[i] = tab.Title
	}

	retryOpts := common.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	spreadsheetID := w.config.SpreadsheetID
	if spreadsheetID == "" {
		err := common.WithRetry(ctx, func() error {
			id, err := w.api.Create(ctx, w.config.SpreadsheetName, w.config.TimeZone, titles)
			spreadsheetID = id
			return classifyError(err)
		}, retryOpts)
		if err != nil {
			return "", fmt.Errorf("failed to create spreadsheet: %w", err)
		}
		w.logger.Info("created new spreadsheet", "id", spreadsheetID)
	}

	var sheetIDs map[string]int64
	err := common.WithRetry(ctx, func() error {
		ids, err := w.api.EnsureTabs(ctx, spreadsheetID, titles)
		sheetIDs = ids
		return classifyError(err)
	}, retryOpts)
	if err != nil {
		return "", fmt.Errorf("unable to access spreadsheet %s: %w", spreadsheetID, err)
	}

	for _, tab := range tabs {
		if err := w.writeTab(ctx, spreadsheetID, tab, retryOpts); err != nil {
			return "", err
		}
	}

	if w.config.EnableFormatting {
		requests := formatRequests(tabs, sheetIDs)
		err = common.WithRetry(ctx, func() error {
			return classifyError(w.api.BatchUpdate(ctx, spreadsheetID, requests))
		}, retryOpts)
		if err != nil {
			// Data is already written; formatting is cosmetic.
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("sheets export completed", "spreadsheet_id", spreadsheetID, "rows_written", len(rows))
	return spreadsheetID, nil
}

func (w *Writer) writeTab(ctx context.Context, spreadsheetID string, tab Tab, retryOpts common.RetryOptions) error {
	err := common.WithRetry(ctx, func() error {
		return classifyError(w.api.Clear(ctx, spreadsheetID, tab.Title))
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", tab.Title, err)
	}

	for i := 0; i < len(tab.Rows); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(tab.Rows))
		batch := tab.Rows[i:end]
		rng := fmt.Sprintf("'%s'!A%d", tab.Title, i+1)

		err := common.WithRetry(ctx, func() error {
			return classifyError(w.api.Update(ctx, spreadsheetID, rng, batch))
		}, retryOpts)
		if err != nil {
			return fmt.Errorf("failed to write %s batch starting at row %d: %w", tab.Title, i+1, err)
		}
		w.logger.Debug("wrote batch", "tab", tab.Title, "start_row", i+1, "rows", len(batch))
	}
	return nil
}

// classifyError marks client errors as permanent so retries stop early.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		retryable := apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
		return &common.RetryableError{Err: err, Retryable: retryable}
	}
	return err
}

// formatRequests bolds and freezes each header row, formats amount
// columns as currency and sizes columns to their contents.
func formatRequests(tabs []Tab, sheetIDs map[string]int64) []*sheets.Request {
	var requests []*sheets.Request
	for _, tab := range tabs {
		sheetID, ok := sheetIDs[tab.Title]
		if !ok || len(tab.Rows) == 0 {
			continue
		}

		requests = append(requests,
			&sheets.Request{
				RepeatCell: &sheets.RepeatCellRequest{
					Range: &sheets.GridRange{SheetId: sheetID, StartRowIndex: 0, EndRowIndex: 1},
					Cell: &sheets.CellData{
						UserEnteredFormat: &sheets.CellFormat{
							TextFormat:      &sheets.TextFormat{Bold: true},
							BackgroundColor: &sheets.Color{Red: 0.9, Green: 0.9, Blue: 0.9},
						},
					},
					Fields: "userEnteredFormat(textFormat,backgroundColor)",
				},
			},
			&sheets.Request{
				UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
					Properties: &sheets.SheetProperties{
						SheetId:        sheetID,
						GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
					},
					Fields: "gridProperties.frozenRowCount",
				},
			},
		)

		for _, col := range tab.AmountColumns {
			requests = append(requests, &sheets.Request{
				RepeatCell: &sheets.RepeatCellRequest{
					Range: &sheets.GridRange{
						SheetId:          sheetID,
						StartRowIndex:    1,
						EndRowIndex:      int64(len(tab.Rows)),
						StartColumnIndex: int64(col),
						EndColumnIndex:   int64(col + 1),
					},
					Cell: &sheets.CellData{
						UserEnteredFormat: &sheets.CellFormat{
							NumberFormat: &sheets.NumberFormat{Type: "CURRENCY", Pattern: "$#,##0.00"},
						},
					},
					Fields: "userEnteredFormat.numberFormat",
				},
			})
		}

		requests = append(requests, &sheets.Request{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   int64(len(tab.Rows[0])),
				},
			},
		})
	}
	return requests
}

// googleAPI adapts the generated Sheets client to spreadsheetAPI.
type googleAPI struct {
	srv *sheets.Service
}

func (g *googleAPI) Create(ctx context.Context, title, timeZone string, tabs []string) (string, error) {
	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: title, TimeZone: timeZone},
	}
	for _, tab := range tabs {
		spreadsheet.Sheets = append(spreadsheet.Sheets, &sheets.Sheet{
			Properties: &sheets.SheetProperties{Title: tab},
		})
	}

	created, err := g.srv.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	slog.Info("Spreadsheet created", "url", created.SpreadsheetUrl)
	return created.SpreadsheetId, nil
}

func (g *googleAPI) EnsureTabs(ctx context.Context, spreadsheetID string, tabs []string) (map[string]int64, error) {
	existing, err := g.srv.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	ids := make(map[string]int64, len(tabs))
	for _, sheet := range existing.Sheets {
		ids[sheet.Properties.Title] = sheet.Properties.SheetId
	}

	var add []*sheets.Request
	for _, tab := range tabs {
		if _, ok := ids[tab]; !ok {
			add = append(add, &sheets.Request{
				AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: tab}},
			})
		}
	}
	if len(add) == 0 {
		return ids, nil
	}

	resp, err := g.srv.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: add}).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	for _, reply := range resp.Replies {
		if reply.AddSheet != nil {
			ids[reply.AddSheet.Properties.Title] = reply.AddSheet.Properties.SheetId
		}
	}
	return ids, nil
}

func (g *googleAPI) Clear(ctx context.Context, spreadsheetID, tab string) error {
	_, err := g.srv.Spreadsheets.Values.Clear(spreadsheetID, fmt.Sprintf("'%s'", tab), &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (g *googleAPI) Update(ctx context.Context, spreadsheetID, rng string, values [][]any) error {
	_, err := g.srv.Spreadsheets.Values.Update(spreadsheetID, rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	return err
}

func (g *googleAPI) BatchUpdate(ctx context.Context, spreadsheetID string, requests []*sheets.Request) error {
	if len(requests) == 0 {
		return nil
	}
	_, err := g.srv.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).Context(ctx).Do()
	return err
}
