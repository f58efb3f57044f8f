package release

import (
	"fmt"
	"strings"
	"time"

	"releasedesk/internal/blob"
)

type Status string

const (
	StatusUpload   Status = "Upload"
	StatusPending  Status = "Pending"
	StatusReleased Status = "Released"
	StatusTakedown Status = "Takedown"
)

var statuses = []Status{StatusUpload, StatusPending, StatusReleased, StatusTakedown}

// ParseStatus accepts any casing of the four known statuses.
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	for _, st := range statuses {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Release is one catalog entry, stored as one spreadsheet row.
//
// CoverArtRef and AudioRef hold bare Drive file ids. CoverArtURL and
// AudioLink are derived from them when a row is read and are never stored.
type Release struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist"`
	UPC         string    `json:"upc"`
	ISRC        string    `json:"isrc"`
	ReleaseDate time.Time `json:"release_date"`
	Status      Status    `json:"status"`
	CoverArtRef string    `json:"cover_art_ref,omitempty"`
	AudioRef    string    `json:"audio_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	CoverArtURL string `json:"cover_art_url,omitempty"`
	AudioLink   string `json:"audio_link,omitempty"`
}

// Managed reports whether the record can be updated or deleted.
func (r *Release) Managed() bool {
	return r.ID != ""
}

// Input carries the user-editable fields for create and update.
type Input struct {
	Title       string `validate:"required,max=200"`
	Artist      string `validate:"required,max=200"`
	UPC         string `validate:"omitempty,max=32"`
	ISRC        string `validate:"omitempty,max=32"`
	ReleaseDate time.Time
	Status      Status `validate:"required,oneof=Upload Pending Released Takedown"`
}

// Attachments are the optional files sent with create or update. A nil
// field means "keep what is stored".
type Attachments struct {
	Cover *blob.File
	Audio *blob.File
}
