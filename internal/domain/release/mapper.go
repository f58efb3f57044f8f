package release

import (
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Column layout of the Releases tab. Sheets with fewer columns are legacy
// layouts; missing trailing cells read as empty.
const (
	colID = iota
	colCreatedAt
	colTitle
	colArtist
	colCoverRef
	colAudioRef
	colUPC
	colISRC
	colReleaseDate
	colStatus

	columnCount
)

const dateLayout = "2006-01-02"

// Parsed is the outcome of reading one loosely-typed cell: either the value
// found in the cell, or a substitute plus the reason the cell was rejected.
type Parsed[T any] struct {
	Value    T
	Fallback bool
	Reason   string
}

func parsedValue[T any](v T) Parsed[T] {
	return Parsed[T]{Value: v}
}

func fallbackValue[T any](v T, reason string) Parsed[T] {
	return Parsed[T]{Value: v, Fallback: true, Reason: reason}
}

// RowToRecord maps one data row to a Release. index is the zero-based data
// index of the row. ok is false for structural rows with neither id nor
// title. Unparseable dates and statuses never reject a row.
func RowToRecord(row []string, index int, now time.Time) (Release, bool) {
	id := cell(row, colID)
	title := cell(row, colTitle)
	if id == "" && title == "" {
		return Release{}, false
	}

	date := ParseReleaseDate(cell(row, colReleaseDate), now)
	if date.Fallback {
		log.Printf("release_row_fallback row=%d id=%q field=release_date reason=%q", sheetRowForIndex(index), id, date.Reason)
	}
	status := parseStatusCell(cell(row, colStatus))
	if status.Fallback {
		log.Printf("release_row_fallback row=%d id=%q field=status reason=%q", sheetRowForIndex(index), id, status.Reason)
	}

	r := Release{
		ID:          id,
		Title:       title,
		Artist:      cell(row, colArtist),
		UPC:         cell(row, colUPC),
		ISRC:        cell(row, colISRC),
		ReleaseDate: date.Value,
		Status:      status.Value,
		CoverArtRef: ExtractBlobID(cell(row, colCoverRef)),
		AudioRef:    ExtractBlobID(cell(row, colAudioRef)),
		CreatedAt:   parseCreatedAt(cell(row, colCreatedAt)).Value,
	}
	return withDisplayLinks(r), true
}

// RecordToRow is the inverse of RowToRecord. Blob columns hold bare ids so
// a stored row reads back unchanged.
func RecordToRow(r Release) []string {
	row := make([]string, columnCount)
	row[colID] = r.ID
	if !r.CreatedAt.IsZero() {
		row[colCreatedAt] = r.CreatedAt.UTC().Format(time.RFC3339)
	}
	row[colTitle] = r.Title
	row[colArtist] = r.Artist
	row[colCoverRef] = r.CoverArtRef
	row[colAudioRef] = r.AudioRef
	row[colUPC] = r.UPC
	row[colISRC] = r.ISRC
	if !r.ReleaseDate.IsZero() {
		row[colReleaseDate] = r.ReleaseDate.Format(dateLayout)
	}
	row[colStatus] = string(r.Status)
	return row
}

// ParseReleaseDate tries a strict ISO date, then a lenient parse, then
// falls back to the calendar date of now.
func ParseReleaseDate(raw string, now time.Time) Parsed[time.Time] {
	today := calendarDate(now)
	if raw == "" {
		return fallbackValue(today, "empty")
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return parsedValue(t)
	}
	if t, err := dateparse.ParseIn(raw, time.UTC); err == nil {
		return parsedValue(calendarDate(t))
	}
	return fallbackValue(today, "unparseable: "+raw)
}

func parseCreatedAt(raw string) Parsed[time.Time] {
	if raw == "" {
		return fallbackValue(time.Time{}, "empty")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsedValue(t.UTC())
	}
	if t, err := dateparse.ParseIn(raw, time.UTC); err == nil {
		return parsedValue(t.UTC())
	}
	return fallbackValue(time.Time{}, "unparseable: "+raw)
}

func parseStatusCell(raw string) Parsed[Status] {
	st, err := ParseStatus(raw)
	if err != nil {
		return fallbackValue(StatusPending, err.Error())
	}
	return parsedValue(st)
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Known Drive link shapes, tried in order.
var blobIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/file/d/([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`/d/([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`[?&]id=([A-Za-z0-9_-]+)`),
}

// Drive ids are long; shorter bare text is more likely a stray label.
const minBareIDLength = 25

// ExtractBlobID returns the bare file id referenced by raw, which may be an
// id or any known Drive link. Unrecognized text yields "".
func ExtractBlobID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, re := range blobIDPatterns {
		if m := re.FindStringSubmatch(raw); m != nil {
			return m[1]
		}
	}
	if looksLikeBareID(raw) {
		return raw
	}
	return ""
}

func looksLikeBareID(s string) bool {
	if len(s) < minBareIDLength {
		return false
	}
	if strings.Contains(s, "://") || strings.ContainsAny(s, "/ \t\r\n") {
		return false
	}
	return true
}

// CoverArtURL is the direct-view link for a stored cover id.
func CoverArtURL(id string) string {
	if id == "" {
		return ""
	}
	return "https://drive.google.com/uc?export=view&id=" + id
}

// AudioLink is the Drive preview page for a stored audio id.
func AudioLink(id string) string {
	if id == "" {
		return ""
	}
	return "https://drive.google.com/file/d/" + id + "/view"
}

func withDisplayLinks(r Release) Release {
	r.CoverArtURL = CoverArtURL(r.CoverArtRef)
	r.AudioLink = AudioLink(r.AudioRef)
	return r
}

func cell(row []string, i int) string {
	return strings.TrimSpace(rawCell(row, i))
}

func rawCell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
