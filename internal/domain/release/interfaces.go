package release

import (
	"context"

	"releasedesk/internal/blob"
	"releasedesk/internal/domain/feed"
)

// TabularClient is the subset of the Sheets wrapper the store needs.
type TabularClient interface {
	ReadRange(ctx context.Context, spreadsheetID, rng string) ([][]string, error)
	AppendRow(ctx context.Context, spreadsheetID, rng string, row []string) error
	WriteRow(ctx context.Context, spreadsheetID, exactRange string, row []string) error
	SheetID(ctx context.Context, spreadsheetID, sheetName string) (int64, error)
	DeleteRows(ctx context.Context, spreadsheetID string, sheetID, start, count int64) error
}

// BlobClient uploads one attachment and returns its file id.
type BlobClient interface {
	Upload(ctx context.Context, f blob.File, folderID string) (string, error)
}

// ReleaseStore is what the HTTP handler needs from Store.
type ReleaseStore interface {
	List(ctx context.Context) ([]Release, error)
	GetByID(ctx context.Context, id string) (*Release, error)
	Create(ctx context.Context, in Input, files Attachments) (*Release, error)
	Update(ctx context.Context, id string, in Input, files Attachments) (*Release, error)
	Delete(ctx context.Context, id string) error
}

// EventPublisher receives change events after successful mutations.
type EventPublisher interface {
	Publish(event feed.Event)
}
