// Package tabular is a thin wrapper over the Google Sheets v4 values API.
//
// The backend has no primary key, locking or compare-and-swap primitive.
// Positional writes and structural deletes address rows by number only, so
// callers own row-location resolution and must accept last-writer-wins
// semantics.
package tabular

import (
	"context"
	"fmt"

	"google.golang.org/api/sheets/v4"

	"releasedesk/internal/credentials"
	"releasedesk/internal/gapi"
	"releasedesk/internal/pkg/apperr"
)

// Cells are written verbatim so ISO dates and codes with leading zeros
// survive a round trip.
const valueInputOption = "RAW"

// Client issues range reads, appends, positional writes and row deletes.
// Credentials are acquired from the provider on every call.
type Client struct {
	provider credentials.Provider
	endpoint string
}

// NewClient creates a Sheets client. endpoint overrides the API base URL
// and is empty in production.
func NewClient(provider credentials.Provider, endpoint string) *Client {
	return &Client{provider: provider, endpoint: endpoint}
}

func (c *Client) service(ctx context.Context, op string) (*sheets.Service, error) {
	hc := c.provider.AcquireClient(ctx)
	svc, err := sheets.NewService(ctx, gapi.ClientOptions(hc, c.endpoint)...)
	if err != nil {
		return nil, apperr.New(op, "", apperr.ErrRemoteUnavailable, fmt.Errorf("init sheets service: %w", err))
	}
	return svc, nil
}

// ReadRange returns every row in rng as text cells. Trailing empty cells
// are omitted by the backend, so rows may be shorter than the range.
func (c *Client) ReadRange(ctx context.Context, spreadsheetID, rng string) ([][]string, error) {
	svc, err := c.service(ctx, "sheets.read")
	if err != nil {
		return nil, err
	}

	resp, err := svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, gapi.Classify("sheets.read", rng, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, len(raw))
		for i, v := range raw {
			row[i] = cellText(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// AppendRow appends row after the last occupied row of rng. The new row's
// position is not reported; re-read to find it.
func (c *Client) AppendRow(ctx context.Context, spreadsheetID, rng string, row []string) error {
	svc, err := c.service(ctx, "sheets.append")
	if err != nil {
		return err
	}

	_, err = svc.Spreadsheets.Values.Append(spreadsheetID, rng, valueRange(row)).
		ValueInputOption(valueInputOption).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return gapi.Classify("sheets.append", rng, err)
}

// WriteRow overwrites exactRange (for example "Releases!A7:J7").
func (c *Client) WriteRow(ctx context.Context, spreadsheetID, exactRange string, row []string) error {
	svc, err := c.service(ctx, "sheets.write")
	if err != nil {
		return err
	}

	_, err = svc.Spreadsheets.Values.Update(spreadsheetID, exactRange, valueRange(row)).
		ValueInputOption(valueInputOption).
		Context(ctx).
		Do()
	return gapi.Classify("sheets.write", exactRange, err)
}

// SheetID resolves the numeric id of the tab titled sheetName. Structural
// requests address tabs by this id, never by title.
func (c *Client) SheetID(ctx context.Context, spreadsheetID, sheetName string) (int64, error) {
	svc, err := c.service(ctx, "sheets.metadata")
	if err != nil {
		return 0, err
	}

	resp, err := svc.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, gapi.Classify("sheets.metadata", sheetName, err)
	}

	for _, sh := range resp.Sheets {
		if sh.Properties != nil && sh.Properties.Title == sheetName {
			return sh.Properties.SheetId, nil
		}
	}
	return 0, apperr.New("sheets.metadata", sheetName, apperr.ErrNotFound, fmt.Errorf("no tab titled %q", sheetName))
}

// DeleteRows removes count rows starting at the zero-based structural index
// start (index 0 is the header row).
func (c *Client) DeleteRows(ctx context.Context, spreadsheetID string, sheetID, start, count int64) error {
	if count <= 0 {
		return apperr.Validation("sheets.delete", "row count must be > 0, got %d", count)
	}

	svc, err := c.service(ctx, "sheets.delete")
	if err != nil {
		return err
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: start,
					EndIndex:   start + count,
					// zero is a valid tab id and a valid index
					ForceSendFields: []string{"SheetId", "StartIndex", "EndIndex"},
				},
			},
		}},
	}

	_, err = svc.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
	return gapi.Classify("sheets.delete", fmt.Sprintf("sheet=%d rows=%d+%d", sheetID, start, count), err)
}

func valueRange(row []string) *sheets.ValueRange {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return &sheets.ValueRange{MajorDimension: "ROWS", Values: [][]interface{}{cells}}
}

func cellText(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
