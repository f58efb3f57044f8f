package release

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"releasedesk/internal/blob"
)

// ReleaseForm is the multipart body of create and update. Files travel in
// the "cover" and "audio" parts.
type ReleaseForm struct {
	Title       string `form:"title"`
	Artist      string `form:"artist"`
	UPC         string `form:"upc"`
	ISRC        string `form:"isrc"`
	ReleaseDate string `form:"release_date"`
	Status      string `form:"status"`
}

// ToInput converts the form. An unreadable release date is reported as a
// field error; the store rejects the zero date.
func (f ReleaseForm) ToInput() (Input, error) {
	in := Input{
		Title:  f.Title,
		Artist: f.Artist,
		UPC:    f.UPC,
		ISRC:   f.ISRC,
		Status: Status(strings.TrimSpace(f.Status)),
	}
	raw := strings.TrimSpace(f.ReleaseDate)
	if raw == "" {
		return in, nil
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		in.ReleaseDate = t
		return in, nil
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return in, fmt.Errorf("release_date %q is not a date", raw)
	}
	in.ReleaseDate = calendarDate(t)
	return in, nil
}

// ReleaseResponse is the JSON shape returned to the dashboard.
type ReleaseResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist"`
	UPC         string    `json:"upc"`
	ISRC        string    `json:"isrc"`
	ReleaseDate string    `json:"release_date"`
	Status      Status    `json:"status"`
	CoverArtRef string    `json:"cover_art_ref,omitempty"`
	AudioRef    string    `json:"audio_ref,omitempty"`
	CoverArtURL string    `json:"cover_art_url,omitempty"`
	AudioLink   string    `json:"audio_link,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Managed     bool      `json:"managed"`
}

func ToResponse(r *Release) ReleaseResponse {
	return ReleaseResponse{
		ID:          r.ID,
		Title:       r.Title,
		Artist:      r.Artist,
		UPC:         r.UPC,
		ISRC:        r.ISRC,
		ReleaseDate: r.ReleaseDate.Format(dateLayout),
		Status:      r.Status,
		CoverArtRef: r.CoverArtRef,
		AudioRef:    r.AudioRef,
		CoverArtURL: r.CoverArtURL,
		AudioLink:   r.AudioLink,
		CreatedAt:   r.CreatedAt,
		Managed:     r.Managed(),
	}
}

func ToResponses(list []Release) []ReleaseResponse {
	out := make([]ReleaseResponse, 0, len(list))
	for i := range list {
		out = append(out, ToResponse(&list[i]))
	}
	return out
}

// readPart loads one uploaded part into memory. Reads stop one byte past
// the blob size limit so the blob client can reject oversize files.
func readPart(fh *multipart.FileHeader) (*blob.File, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, blob.MaxFileSize+1))
	if err != nil {
		return nil, err
	}
	return &blob.File{
		Name:     fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Data:     data,
	}, nil
}
