package release

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"releasedesk/internal/blob"
	"releasedesk/internal/pkg/apperr"
	"releasedesk/internal/pkg/validator"
)

// Row 1 of the tab is a header and is never read or written by the store.
const (
	headerRows   = 1
	firstDataRow = headerRows + 1
	lastColumn   = "J"
)

// Config names the remote objects the store works against.
type Config struct {
	SpreadsheetID string
	SheetName     string
	FolderID      string
}

// Store implements release CRUD on top of a spreadsheet tab and a Drive
// folder.
//
// Consistency: the backend has no primary key, no transactions and no
// compare-and-swap. Update and Delete locate their row with a linear scan
// (O(n) per call) and then address it by position. A concurrent insert or
// delete between the scan and the write shifts rows, so two writers racing
// on the same tab can lose an update or remove a neighbouring row. The store
// is last-writer-wins and not linearizable. Failed writes are never retried:
// the backend has no idempotency key.
type Store struct {
	tables TabularClient
	blobs  BlobClient
	cfg    Config
	now    func() time.Time
	newID  func() string
}

func NewStore(tables TabularClient, blobs BlobClient, cfg Config) *Store {
	if cfg.SheetName == "" {
		cfg.SheetName = "Releases"
	}
	return &Store{
		tables: tables,
		blobs:  blobs,
		cfg:    cfg,
		now:    time.Now,
		newID:  newReleaseID,
	}
}

// newReleaseID returns a UUIDv7: millisecond timestamp plus random bits.
// Collisions are not checked against stored rows.
func newReleaseID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// sheetRowForIndex converts a zero-based data index into the 1-based sheet
// row used by range notation.
func sheetRowForIndex(k int) int {
	return k + firstDataRow
}

// structuralIndexForIndex converts a zero-based data index into the
// zero-based row index used by structural requests, where index 0 is the
// header row.
func structuralIndexForIndex(k int) int64 {
	return int64(k + headerRows)
}

// List returns every managed or titled row. A backend failure is returned
// as an error, never as an empty list.
func (s *Store) List(ctx context.Context) ([]Release, error) {
	const op = "release.list"
	if err := s.requireSheet(op, ""); err != nil {
		return nil, err
	}

	rows, err := s.tables.ReadRange(ctx, s.cfg.SpreadsheetID, s.dataRange())
	if err != nil {
		return nil, apperr.Wrap(op, "", err)
	}

	now := s.now()
	out := make([]Release, 0, len(rows))
	for k, row := range rows {
		if r, ok := RowToRecord(row, k, now); ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// GetByID returns the first release whose id matches.
func (s *Store) GetByID(ctx context.Context, id string) (*Release, error) {
	const op = "release.get"
	if id == "" {
		return nil, apperr.New(op, id, apperr.ErrNotFound, nil)
	}

	all, err := s.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(op, id, err)
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, apperr.New(op, id, apperr.ErrNotFound, nil)
}

// Create uploads the attachments, then appends one row with a fresh id. An
// upload failure aborts before anything is written to the sheet.
func (s *Store) Create(ctx context.Context, in Input, files Attachments) (*Release, error) {
	const op = "release.create"
	in = normalizeInput(in)
	if err := validateInput(op, in); err != nil {
		return nil, err
	}
	if err := s.requireSheet(op, ""); err != nil {
		return nil, err
	}
	if err := s.requireFolder(op, "", files); err != nil {
		return nil, err
	}
	if err := validateAttachments(op, "", files); err != nil {
		return nil, err
	}

	coverRef, err := s.upload(ctx, op, "", files.Cover)
	if err != nil {
		return nil, err
	}
	audioRef, err := s.upload(ctx, op, "", files.Audio)
	if err != nil {
		return nil, err
	}

	rec := Release{
		ID:          s.newID(),
		Title:       in.Title,
		Artist:      in.Artist,
		UPC:         in.UPC,
		ISRC:        in.ISRC,
		ReleaseDate: calendarDate(in.ReleaseDate),
		Status:      in.Status,
		CoverArtRef: coverRef,
		AudioRef:    audioRef,
		CreatedAt:   s.now().UTC().Truncate(time.Second),
	}

	if err := s.tables.AppendRow(ctx, s.cfg.SpreadsheetID, s.dataRange(), RecordToRow(rec)); err != nil {
		return nil, apperr.Wrap(op, rec.ID, err)
	}

	log.Printf("release_created id=%s title=%q cover=%t audio=%t", rec.ID, rec.Title, coverRef != "", audioRef != "")
	rec = withDisplayLinks(rec)
	return &rec, nil
}

// Update replaces the whole row of id. Attachments not sent are carried
// forward from the stored row; createdAt is kept verbatim.
func (s *Store) Update(ctx context.Context, id string, in Input, files Attachments) (*Release, error) {
	const op = "release.update"
	in = normalizeInput(in)
	if err := validateInput(op, in); err != nil {
		return nil, err
	}
	if err := s.requireSheet(op, id); err != nil {
		return nil, err
	}
	if err := s.requireFolder(op, id, files); err != nil {
		return nil, err
	}
	if err := validateAttachments(op, id, files); err != nil {
		return nil, err
	}

	k, stored, err := s.locate(ctx, op, id)
	if err != nil {
		return nil, err
	}

	coverRef := carriedRef(cell(stored, colCoverRef))
	if files.Cover != nil {
		if coverRef, err = s.upload(ctx, op, id, files.Cover); err != nil {
			return nil, err
		}
	}
	audioRef := carriedRef(cell(stored, colAudioRef))
	if files.Audio != nil {
		if audioRef, err = s.upload(ctx, op, id, files.Audio); err != nil {
			return nil, err
		}
	}

	row := RecordToRow(Release{
		ID:          id,
		Title:       in.Title,
		Artist:      in.Artist,
		UPC:         in.UPC,
		ISRC:        in.ISRC,
		ReleaseDate: calendarDate(in.ReleaseDate),
		Status:      in.Status,
		CoverArtRef: coverRef,
		AudioRef:    audioRef,
	})
	row[colCreatedAt] = rawCell(stored, colCreatedAt)

	if err := s.tables.WriteRow(ctx, s.cfg.SpreadsheetID, s.rowRange(sheetRowForIndex(k)), row); err != nil {
		return nil, apperr.Wrap(op, id, err)
	}

	log.Printf("release_updated id=%s row=%d cover_replaced=%t audio_replaced=%t", id, sheetRowForIndex(k), files.Cover != nil, files.Audio != nil)
	rec, _ := RowToRecord(row, k, s.now())
	return &rec, nil
}

// Delete physically removes the row of id.
func (s *Store) Delete(ctx context.Context, id string) error {
	const op = "release.delete"
	if err := s.requireSheet(op, id); err != nil {
		return err
	}

	k, _, err := s.locate(ctx, op, id)
	if err != nil {
		return err
	}

	sheetID, err := s.tables.SheetID(ctx, s.cfg.SpreadsheetID, s.cfg.SheetName)
	if err != nil {
		return apperr.Wrap(op, id, err)
	}

	if err := s.tables.DeleteRows(ctx, s.cfg.SpreadsheetID, sheetID, structuralIndexForIndex(k), 1); err != nil {
		return apperr.Wrap(op, id, err)
	}

	log.Printf("release_deleted id=%s row=%d", id, sheetRowForIndex(k))
	return nil
}

// locate reads the tab and returns the data index and cells of the first
// row whose id column equals id. Rows without an id never match.
func (s *Store) locate(ctx context.Context, op, id string) (int, []string, error) {
	if id == "" {
		return 0, nil, apperr.New(op, id, apperr.ErrNotFound, fmt.Errorf("empty release id"))
	}

	rows, err := s.tables.ReadRange(ctx, s.cfg.SpreadsheetID, s.dataRange())
	if err != nil {
		return 0, nil, apperr.Wrap(op, id, err)
	}
	for k, row := range rows {
		if cell(row, colID) == id {
			return k, row, nil
		}
	}
	return 0, nil, apperr.New(op, id, apperr.ErrNotFound, fmt.Errorf("no row with id %q", id))
}

func (s *Store) upload(ctx context.Context, op, id string, f *blob.File) (string, error) {
	if f == nil {
		return "", nil
	}
	ref, err := s.blobs.Upload(ctx, *f, s.cfg.FolderID)
	if err != nil {
		return "", apperr.Wrap(op, id, err)
	}
	return ref, nil
}

// carriedRef normalizes a stored blob cell to its bare id. Text that is not a
// recognizable id or link is written back unchanged so an update without a
// new file never clears the cell.
func carriedRef(stored string) string {
	if id := ExtractBlobID(stored); id != "" {
		return id
	}
	return stored
}

// validateAttachments checks every sent file before the first upload, so an
// invalid second file never leaves the first one behind in the folder.
func validateAttachments(op, id string, files Attachments) error {
	for _, f := range []*blob.File{files.Cover, files.Audio} {
		if f == nil {
			continue
		}
		if _, err := blob.Validate(*f); err != nil {
			return apperr.New(op, id, apperr.ErrValidationFailed, err)
		}
	}
	return nil
}

func (s *Store) requireSheet(op, id string) error {
	if s.cfg.SpreadsheetID == "" {
		return apperr.New(op, id, apperr.ErrConfigurationMissing, fmt.Errorf("RELEASES_SPREADSHEET_ID is not set"))
	}
	return nil
}

func (s *Store) requireFolder(op, id string, files Attachments) error {
	if (files.Cover != nil || files.Audio != nil) && s.cfg.FolderID == "" {
		return apperr.New(op, id, apperr.ErrConfigurationMissing, fmt.Errorf("RELEASES_DRIVE_FOLDER_ID is not set"))
	}
	return nil
}

func (s *Store) dataRange() string {
	return fmt.Sprintf("%s!A%d:%s", quoteSheetName(s.cfg.SheetName), firstDataRow, lastColumn)
}

func (s *Store) rowRange(sheetRow int) string {
	return fmt.Sprintf("%s!A%d:%s%d", quoteSheetName(s.cfg.SheetName), sheetRow, lastColumn, sheetRow)
}

// quoteSheetName quotes tab titles that A1 notation cannot take bare.
func quoteSheetName(name string) string {
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_') {
			return "'" + strings.ReplaceAll(name, "'", "''") + "'"
		}
	}
	return name
}

func normalizeInput(in Input) Input {
	in.Title = strings.TrimSpace(in.Title)
	in.Artist = strings.TrimSpace(in.Artist)
	in.UPC = strings.TrimSpace(in.UPC)
	in.ISRC = strings.TrimSpace(in.ISRC)
	if st, err := ParseStatus(string(in.Status)); err == nil {
		in.Status = st
	}
	return in
}

func validateInput(op string, in Input) error {
	fields := validator.Validate(in)
	if in.ReleaseDate.IsZero() {
		if fields == nil {
			fields = map[string]string{}
		}
		fields["ReleaseDate"] = "required"
	}
	if len(fields) == 0 {
		return nil
	}
	return apperr.Validation(op, "invalid fields: %s", validator.Describe(fields))
}
