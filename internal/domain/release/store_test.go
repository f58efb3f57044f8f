package release

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"releasedesk/internal/blob"
	"releasedesk/internal/pkg/apperr"
)

type MockTabularClient struct {
	mock.Mock
}

func (m *MockTabularClient) ReadRange(ctx context.Context, spreadsheetID, rng string) ([][]string, error) {
	args := m.Called(ctx, spreadsheetID, rng)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]string), args.Error(1)
}

func (m *MockTabularClient) AppendRow(ctx context.Context, spreadsheetID, rng string, row []string) error {
	args := m.Called(ctx, spreadsheetID, rng, row)
	return args.Error(0)
}

func (m *MockTabularClient) WriteRow(ctx context.Context, spreadsheetID, exactRange string, row []string) error {
	args := m.Called(ctx, spreadsheetID, exactRange, row)
	return args.Error(0)
}

func (m *MockTabularClient) SheetID(ctx context.Context, spreadsheetID, sheetName string) (int64, error) {
	args := m.Called(ctx, spreadsheetID, sheetName)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTabularClient) DeleteRows(ctx context.Context, spreadsheetID string, sheetID, start, count int64) error {
	args := m.Called(ctx, spreadsheetID, sheetID, start, count)
	return args.Error(0)
}

type MockBlobClient struct {
	mock.Mock
}

func (m *MockBlobClient) Upload(ctx context.Context, f blob.File, folderID string) (string, error) {
	args := m.Called(ctx, f, folderID)
	return args.String(0), args.Error(1)
}

const (
	testSheet  = "sheet-1"
	testRange  = "Releases!A2:J"
	testFolder = "folder-1"
)

func newTestStore(tables *MockTabularClient, blobs *MockBlobClient) *Store {
	s := NewStore(tables, blobs, Config{SpreadsheetID: testSheet, SheetName: "Releases", FolderID: testFolder})
	s.now = func() time.Time { return fixedNow }
	s.newID = func() string { return "new-id" }
	return s
}

func storedRow(id, title string) []string {
	return []string{id, "2025-01-02T09:30:00Z", title, "Artist", "", "", "", "", "2025-02-01", "Pending"}
}

func rowsWithTargetAt(k int, id string) [][]string {
	rows := make([][]string, 0, k+2)
	for i := 0; i < k; i++ {
		rows = append(rows, storedRow(fmt.Sprintf("other-%d", i), fmt.Sprintf("Other %d", i)))
	}
	rows = append(rows, storedRow(id, "Target"))
	rows = append(rows, storedRow("after", "After"))
	return rows
}

func pngFile(name string) *blob.File {
	return &blob.File{Name: name, MimeType: "image/png", Data: []byte("png")}
}

func validInput() Input {
	return Input{
		Title:       "Song A",
		Artist:      "Artist A",
		ReleaseDate: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		Status:      StatusPending,
	}
}

func TestRowLocationArithmetic(t *testing.T) {
	for _, k := range []int{0, 1, 10} {
		assert.Equal(t, k+2, sheetRowForIndex(k), "sheet row for k=%d", k)
		assert.Equal(t, int64(k+1), structuralIndexForIndex(k), "structural index for k=%d", k)
	}
}

func TestStore_Update_WritesAtSheetRow(t *testing.T) {
	for _, k := range []int{0, 1, 10} {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			tables := new(MockTabularClient)
			blobs := new(MockBlobClient)
			store := newTestStore(tables, blobs)

			tables.On("ReadRange", mock.Anything, testSheet, testRange).Return(rowsWithTargetAt(k, "target"), nil)
			wantRange := fmt.Sprintf("Releases!A%d:J%d", k+2, k+2)
			tables.On("WriteRow", mock.Anything, testSheet, wantRange, mock.Anything).Return(nil)

			_, err := store.Update(context.Background(), "target", validInput(), Attachments{})

			require.NoError(t, err)
			tables.AssertExpectations(t)
		})
	}
}

func TestStore_Delete_UsesStructuralIndex(t *testing.T) {
	for _, k := range []int{0, 1, 10} {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			tables := new(MockTabularClient)
			store := newTestStore(tables, new(MockBlobClient))

			tables.On("ReadRange", mock.Anything, testSheet, testRange).Return(rowsWithTargetAt(k, "target"), nil)
			tables.On("SheetID", mock.Anything, testSheet, "Releases").Return(int64(77), nil)
			tables.On("DeleteRows", mock.Anything, testSheet, int64(77), int64(k+1), int64(1)).Return(nil)

			err := store.Delete(context.Background(), "target")

			require.NoError(t, err)
			tables.AssertExpectations(t)
		})
	}
}

func TestStore_List_DropsBlankRows(t *testing.T) {
	tables := new(MockTabularClient)
	store := newTestStore(tables, new(MockBlobClient))

	tables.On("ReadRange", mock.Anything, testSheet, testRange).Return([][]string{
		storedRow("id-1", "One"),
		{},
		{"", "", ""},
		{"", "", "Title Only"},
		storedRow("id-2", "Two"),
	}, nil)

	list, err := store.List(context.Background())

	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "id-1", list[0].ID)
	assert.Equal(t, "Title Only", list[1].Title)
	assert.Equal(t, "id-2", list[2].ID)
}

func TestStore_List_EmptyIsNotAnError(t *testing.T) {
	tables := new(MockTabularClient)
	store := newTestStore(tables, new(MockBlobClient))
	tables.On("ReadRange", mock.Anything, testSheet, testRange).Return([][]string{}, nil)

	list, err := store.List(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestStore_List_PropagatesBackendFailure(t *testing.T) {
	tables := new(MockTabularClient)
	store := newTestStore(tables, new(MockBlobClient))
	cause := apperr.New("sheets.read", testRange, apperr.ErrPermissionDenied, errors.New("403"))
	tables.On("ReadRange", mock.Anything, testSheet, testRange).Return(nil, cause)

	list, err := store.List(context.Background())

	assert.Nil(t, list)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	assert.Contains(t, err.Error(), "release.list")
}

func TestStore_GetByID(t *testing.T) {
	tables := new(MockTabularClient)
	store := newTestStore(tables, new(MockBlobClient))
	tables.On("ReadRange", mock.Anything, testSheet, testRange).Return([][]string{
		storedRow("id-1", "One"),
		storedRow("id-2", "Two"),
	}, nil)

	r, err := store.GetByID(context.Background(), "id-2")
	require.NoError(t, err)
	assert.Equal(t, "Two", r.Title)

	_, err = store.GetByID(context.Background(), "id-3")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = store.GetByID(context.Background(), "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStore_Create_WithoutFiles(t *testing.T) {
	tables := new(MockTabularClient)
	blobs := new(MockBlobClient)
	store := newTestStore(tables, blobs)

	wantRow := []string{"new-id", "2026-03-14T15:09:26Z", "Song A", "Artist A", "", "", "", "", "2025-01-10", "Pending"}
	tables.On("AppendRow", mock.Anything, testSheet, testRange, wantRow).Return(nil)

	r, err := store.Create(context.Background(), validInput(), Attachments{})

	require.NoError(t, err)
	assert.Equal(t, "new-id", r.ID)
	assert.Empty(t, r.CoverArtRef)
	assert.Empty(t, r.AudioRef)
	tables.AssertExpectations(t)
	blobs.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestStore_Create_GeneratesDistinctIDs(t *testing.T) {
	tables := new(MockTabularClient)
	store := NewStore(tables, new(MockBlobClient), Config{SpreadsheetID: testSheet})
	tables.On("AppendRow", mock.Anything, testSheet, testRange, mock.Anything).Return(nil)

	a, err := store.Create(context.Background(), validInput(), Attachments{})
	require.NoError(t, err)
	b, err := store.Create(context.Background(), validInput(), Attachments{})
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestStore_Create_UploadsBeforeAppend(t *testing.T) {
	tables := new(MockTabularClient)
	blobs := new(MockBlobClient)
	store := newTestStore(tables, blobs)

	cover := pngFile("cover.png")
	audio := &blob.File{Name: "song.mp3", MimeType: "audio/mpeg", Data: []byte("mp3")}
	blobs.On("Upload", mock.Anything, *cover, testFolder).Return("cover-id", nil).Once()
	blobs.On("Upload", mock.Anything, *audio, testFolder).Return("audio-id", nil).Once()
	tables.On("AppendRow", mock.Anything, testSheet, testRange, mock.MatchedBy(func(row []string) bool {
		return row[colCoverRef] == "cover-id" && row[colAudioRef] == "audio-id"
	})).Return(nil)

	r, err := store.Create(context.Background(), validInput(), Attachments{Cover: cover, Audio: audio})

	require.NoError(t, err)
	assert.Equal(t, "cover-id", r.CoverArtRef)
	assert.Equal(t, CoverArtURL("cover-id"), r.CoverArtURL)
	assert.Equal(t, AudioLink("audio-id"), r.AudioLink)
	blobs.AssertExpectations(t)
	tables.AssertExpectations(t)
}

func TestStore_Create_UploadFailureWritesNothing(t *testing.T) {
	tables := new(MockTabularClient)
	blobs := new(MockBlobClient)
	store := newTestStore(tables, blobs)

	cover := pngFile("cover.png")
	audio := &blob.File{Name: "song.mp3", MimeType: "audio/mpeg", Data: []byte("mp3")}
	blobs.On("Upload", mock.Anything, *cover, testFolder).Return("cover-id", nil)
	blobs.On("Upload", mock.Anything, *audio, testFolder).
		Return("", apperr.New("drive.upload", "song.mp3", apperr.ErrRemoteUnavailable, errors.New("502")))

	_, err := store.Create(context.Background(), validInput(), Attachments{Cover: cover, Audio: audio})

	assert.ErrorIs(t, err, apperr.ErrRemoteUnavailable)
	assert.Contains(t, err.Error(), "release.create")
	tables.AssertNotCalled(t, "AppendRow", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStore_Create_ValidationBeforeRemoteCalls(t *testing.T) {
	tables := new(MockTabularClient)
	blobs := new(MockBlobClient)
	store := newTestStore(tables, blobs)

	in := validInput()
	in.Title = "   "
	in.ReleaseDate = time.Time{}
	in.Status = "Archived"

	_, err := store.Create(context.Background(), in, Attachments{Cover: &blob.File{Name: "c.png", Data: []byte("x")}})

	require.ErrorIs(t, err, apperr.ErrValidationFailed)
	assert.Contains(t, err.Error(), "Title=required")
	assert.Contains(t, err.Error(), "ReleaseDate=required")
	assert.Contains(t, err.Error(), "Status=oneof")
	tables.AssertNotCalled(t, "AppendRow", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	blobs.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestStore_Create_InvalidAttachmentUploadsNothing(t *testing.T) {
	tables := new(MockTabularClient)
	blobs := new(MockBlobClient)
	store := newTestStore(tables, blobs)

	notes := &blob.File{Name: "notes.txt", MimeType: "text/plain", Data: []byte("liner notes")}
	_, err := store.Create(context.Background(), validInput(), Attachments{Cover: pngFile("cover.png"), Audio: notes})

	require.ErrorIs(t, err, apperr.ErrValidationFailed)
	assert.ErrorIs(t, err, blob.ErrInvalidMimeType)
	assert.Contains(t, err.Error(), "notes.txt")
	assert.Equal(t, 1, strings.Count(err.Error(), apperr.ErrValidationFailed.Error()), err.Error())
	blobs.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
	tables.AssertNotCalled(t, "AppendRow", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStore_Update_InvalidAttachmentBeforeRemoteCalls(t *testing.T) {
	tables := new(MockTabularClient)
	blobs := new(MockBlobClient)
	store := newTestStore(tables, blobs)

	empty := &blob.File{Name: "song.mp3", MimeType: "audio/mpeg"}
	_, err := store.Update(context.Background(), "id-1", validInput(), Attachments{Cover: pngFile("cover.png"), Audio: empty})

	require.ErrorIs(t, err, apperr.ErrValidationFailed)
	assert.ErrorIs(t, err, blob.ErrEmptyFile)
	tables.AssertNotCalled(t, "ReadRange", mock.Anything, mock.Anything, mock.Anything)
	tables.AssertNotCalled(t, "WriteRow", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	blobs.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestStore_Create_NormalizesStatusCase(t *testing.T) {
	tables := new(MockTabularClient)
	store := newTestStore(tables, new(MockBlobClient))
	tables.On("AppendRow", mock.Anything, testSheet, testRange, mock.MatchedBy(func(row []string) bool {
		return row[colStatus] == "Released"
	})).Return(nil)

	in := validInput()
	in.Status = "released"
	_, err := store.Create(context.Background(), in, Attachments{})

	require.NoError(t, err)
	tables.AssertExpectations(t)
}

func TestStore_ConfigurationMissing(t *testing.T) {
	tables := new(MockTabularClient)
	blobs := new(MockBlobClient)

	noSheet := NewStore(tables, blobs, Config{FolderID: testFolder})
	_, err := noSheet.List(context.Background())
	assert.ErrorIs(t, err, apperr.ErrConfigurationMissing)
	err = noSheet.Delete(context.Background(), "id-1")
	assert.ErrorIs(t, err, apperr.ErrConfigurationMissing)

	noFolder := NewStore(tables, blobs, Config{SpreadsheetID: testSheet})
	_, err = noFolder.Create(context.Background(), validInput(), Attachments{Cover: pngFile("c.png")})
	assert.ErrorIs(t, err, apperr.ErrConfigurationMissing)

	tables.AssertNotCalled(t, "ReadRange", mock.Anything, mock.Anything, mock.Anything)
	blobs.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestStore_Update_PreservesUnsentAttachments(t *testing.T) {
	tables := new(MockTabularClient)
	blobs := new(MockBlobClient)
	store := newTestStore(tables, blobs)

	row := storedRow("id-1", "Old")
	row[colCoverRef] = "X"
	row[colAudioRef] = "https://drive.google.com/file/d/1AudioAbCdEfGhIjKlMnOpQr/view?usp=sharing"
	tables.On("ReadRange", mock.Anything, testSheet, testRange).Return([][]string{row}, nil)

	var written []string
	tables.On("WriteRow", mock.Anything, testSheet, "Releases!A2:J2", mock.Anything).
		Run(func(args mock.Arguments) { written = args.Get(3).([]string) }).
		Return(nil)

	_, err := store.Update(context.Background(), "id-1", validInput(), Attachments{})

	require.NoError(t, err)
	require.Len(t, written, columnCount)
	assert.Equal(t, "X", written[colCoverRef])
	assert.Equal(t, "1AudioAbCdEfGhIjKlMnOpQr", written[colAudioRef])
	blobs.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestStore_Update_ReplacesSentAttachment(t *testing.T) {
	tables := new(MockTabularClient)
	blobs := new(MockBlobClient)
	store := newTestStore(tables, blobs)

	row := storedRow("id-1", "Old")
	row[colCoverRef] = "1OldCoverAbCdEfGhIjKlMnOpQr"
	row[colAudioRef] = "1OldAudioAbCdEfGhIjKlMnOpQr"
	tables.On("ReadRange", mock.Anything, testSheet, testRange).Return([][]string{row}, nil)

	cover := pngFile("new.png")
	blobs.On("Upload", mock.Anything, *cover, testFolder).Return("1NewCoverAbCdEfGhIjKlMnOpQr", nil)
	tables.On("WriteRow", mock.Anything, testSheet, "Releases!A2:J2", mock.MatchedBy(func(w []string) bool {
		return w[colCoverRef] == "1NewCoverAbCdEfGhIjKlMnOpQr" && w[colAudioRef] == "1OldAudioAbCdEfGhIjKlMnOpQr"
	})).Return(nil)

	r, err := store.Update(context.Background(), "id-1", validInput(), Attachments{Cover: cover})

	require.NoError(t, err)
	assert.Equal(t, "1NewCoverAbCdEfGhIjKlMnOpQr", r.CoverArtRef)
	tables.AssertExpectations(t)
}

func TestStore_Update_KeepsCreatedAtVerbatim(t *testing.T) {
	tables := new(MockTabularClient)
	store := newTestStore(tables, new(MockBlobClient))

	row := storedRow("id-1", "Old")
	row[colCreatedAt] = " 12/01/2024 10:00 "
	tables.On("ReadRange", mock.Anything, testSheet, testRange).Return([][]string{row}, nil)
	tables.On("WriteRow", mock.Anything, testSheet, "Releases!A2:J2", mock.MatchedBy(func(w []string) bool {
		return w[colCreatedAt] == " 12/01/2024 10:00 " && w[colID] == "id-1" && w[colTitle] == "Song A"
	})).Return(nil)

	_, err := store.Update(context.Background(), "id-1", validInput(), Attachments{})

	require.NoError(t, err)
	tables.AssertExpectations(t)
}

func TestStore_Update_NotFoundNeverAppends(t *testing.T) {
	tables := new(MockTabularClient)
	blobs := new(MockBlobClient)
	store := newTestStore(tables, blobs)

	tables.On("ReadRange", mock.Anything, testSheet, testRange).Return([][]string{
		storedRow("id-1", "One"),
		{"", "", "Title Only"},
	}, nil)

	cover := pngFile("c.png")
	_, err := store.Update(context.Background(), "missing", validInput(), Attachments{Cover: cover})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// rows without an id are never matched
	_, err = store.Update(context.Background(), "", validInput(), Attachments{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	tables.AssertNotCalled(t, "WriteRow", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	tables.AssertNotCalled(t, "AppendRow", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	blobs.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestStore_Update_WriteFailureIsReported(t *testing.T) {
	tables := new(MockTabularClient)
	store := newTestStore(tables, new(MockBlobClient))

	tables.On("ReadRange", mock.Anything, testSheet, testRange).Return([][]string{storedRow("id-1", "One")}, nil)
	tables.On("WriteRow", mock.Anything, testSheet, "Releases!A2:J2", mock.Anything).
		Return(apperr.New("sheets.write", "Releases!A2:J2", apperr.ErrUnauthenticated, errors.New("401"))).Once()

	_, err := store.Update(context.Background(), "id-1", validInput(), Attachments{})

	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	assert.Contains(t, err.Error(), "release.update id-1")
	tables.AssertNumberOfCalls(t, "WriteRow", 1)
}

func TestStore_Delete_MissingIDLeavesRows(t *testing.T) {
	tables := new(MockTabularClient)
	store := newTestStore(tables, new(MockBlobClient))

	tables.On("ReadRange", mock.Anything, testSheet, testRange).Return([][]string{
		storedRow("id-1", "One"),
		storedRow("id-2", "Two"),
		storedRow("id-3", "Three"),
	}, nil)

	err := store.Delete(context.Background(), "missing-id")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	tables.AssertNotCalled(t, "SheetID", mock.Anything, mock.Anything, mock.Anything)
	tables.AssertNotCalled(t, "DeleteRows", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestStore_Delete_MetadataFailure(t *testing.T) {
	tables := new(MockTabularClient)
	store := newTestStore(tables, new(MockBlobClient))

	tables.On("ReadRange", mock.Anything, testSheet, testRange).Return([][]string{storedRow("id-1", "One")}, nil)
	tables.On("SheetID", mock.Anything, testSheet, "Releases").
		Return(int64(0), apperr.New("sheets.metadata", "Releases", apperr.ErrNotFound, errors.New("no tab")))

	err := store.Delete(context.Background(), "id-1")

	assert.ErrorIs(t, err, apperr.ErrNotFound)
	tables.AssertNotCalled(t, "DeleteRows", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestQuoteSheetName(t *testing.T) {
	assert.Equal(t, "Releases", quoteSheetName("Releases"))
	assert.Equal(t, "'Release Log'", quoteSheetName("Release Log"))
	assert.Equal(t, "'Bob''s'", quoteSheetName("Bob's"))

	store := NewStore(nil, nil, Config{SpreadsheetID: "x", SheetName: "Release Log"})
	assert.Equal(t, "'Release Log'!A2:J", store.dataRange())
	assert.Equal(t, "'Release Log'!A12:J12", store.rowRange(12))
}
