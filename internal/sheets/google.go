package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	apperrors "preschool-admissions/internal/common/errors"
	"preschool-admissions/internal/common/logger"
)

// GoogleStore is a Store backed by one Google Sheets spreadsheet.
type GoogleStore struct {
	service       *gsheets.Service
	spreadsheetID string
	logger        logger.Logger
}

// Credentials selects the service-account key: inline JSON wins over a
// file path.
type Credentials struct {
	JSON string
	File string
}

func NewGoogleStore(ctx context.Context, spreadsheetID string, creds Credentials, log logger.Logger) (*GoogleStore, error) {
	opts := []option.ClientOption{option.WithScopes(gsheets.SpreadsheetsScope)}
	switch {
	case creds.JSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(creds.JSON)))
	case creds.File != "":
		opts = append(opts, option.WithCredentialsFile(creds.File))
	default:
		return nil, apperrors.NewConfigurationError("google service account credentials are not configured")
	}

	service, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &GoogleStore{
		service:       service,
		spreadsheetID: spreadsheetID,
		logger: log.WithFields(map[string]interface{}{
			"spreadsheetId": spreadsheetID,
		}),
	}, nil
}

func (g *GoogleStore) SheetTitle(ctx context.Context, sheet int) (string, error) {
	if sheet == Default {
		sheet = 0
	}
	resp, err := g.service.Spreadsheets.Get(g.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return "", apperrors.NewSheetAccessError("get sheet title", err)
	}
	if sheet < 0 || sheet >= len(resp.Sheets) || resp.Sheets[sheet].Properties == nil {
		return "", apperrors.NewSheetAccessError("get sheet title", fmt.Errorf("sheet with index %d not found", sheet))
	}
	return resp.Sheets[sheet].Properties.Title, nil
}

func (g *GoogleStore) Read(ctx context.Context, rng string, sheet int) ([][]string, error) {
	target, err := g.qualify(ctx, rng, sheet)
	if err != nil {
		return nil, err
	}

	resp, err := g.service.Spreadsheets.Values.Get(g.spreadsheetID, target).Context(ctx).Do()
	if err != nil {
		return nil, apperrors.NewSheetAccessError("read "+target, err)
	}

	rows := make([][]string, len(resp.Values))
	for i, values := range resp.Values {
		row := make([]string, len(values))
		for j, v := range values {
			row[j] = fmt.Sprint(v)
		}
		rows[i] = row
	}

	g.logger.Debug("sheet range read", map[string]interface{}{
		"range": target,
		"rows":  len(rows),
	})
	return rows, nil
}

func (g *GoogleStore) Write(ctx context.Context, rng string, rows [][]string, sheet int) error {
	target, err := g.qualify(ctx, rng, sheet)
	if err != nil {
		return err
	}

	_, err = g.service.Spreadsheets.Values.
		Update(g.spreadsheetID, target, &gsheets.ValueRange{Values: toValues(rows)}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return apperrors.NewSheetAccessError("write "+target, err)
	}

	g.logger.Debug("sheet range written", map[string]interface{}{
		"range": target,
		"rows":  len(rows),
	})
	return nil
}

// Clear empties every cell of the tab.
func (g *GoogleStore) Clear(ctx context.Context, sheet int) error {
	title, err := g.SheetTitle(ctx, sheet)
	if err != nil {
		return err
	}

	_, err = g.service.Spreadsheets.Values.
		Clear(g.spreadsheetID, quoteTitle(title), &gsheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return apperrors.NewSheetAccessError("clear "+title, err)
	}
	return nil
}

func (g *GoogleStore) BatchWrite(ctx context.Context, sheetTitle string, updates []Update) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	data := make([]*gsheets.ValueRange, 0, len(updates))
	for _, u := range updates {
		data = append(data, &gsheets.ValueRange{
			Range:  quoteTitle(sheetTitle) + "!" + u.Range,
			Values: toValues(u.Values),
		})
	}

	_, err := g.service.Spreadsheets.Values.
		BatchUpdate(g.spreadsheetID, &gsheets.BatchUpdateValuesRequest{
			ValueInputOption: "RAW",
			Data:             data,
		}).
		Context(ctx).
		Do()
	if err != nil {
		return 0, apperrors.NewSheetAccessError("batch update "+sheetTitle, err)
	}
	return len(updates), nil
}

func (g *GoogleStore) qualify(ctx context.Context, rng string, sheet int) (string, error) {
	if sheet == Default {
		return rng, nil
	}
	title, err := g.SheetTitle(ctx, sheet)
	if err != nil {
		return "", err
	}
	return quoteTitle(title) + "!" + rng, nil
}

func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// toValues keeps integer cells numeric so RAW writes do not store them as
// text.
func toValues(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		values := make([]interface{}, len(row))
		for j, cell := range row {
			if n, err := strconv.Atoi(cell); err == nil && strconv.Itoa(n) == cell {
				values[j] = n
			} else {
				values[j] = cell
			}
		}
		out[i] = values
	}
	return out
}
