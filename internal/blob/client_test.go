package blob

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"releasedesk/internal/credentials"
	"releasedesk/internal/pkg/apperr"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type uploadSeen struct {
	Path     string
	Auth     string
	Metadata map[string]any
	Media    []byte
}

func setupDrive(t *testing.T, status int, body string) (*Client, *uploadSeen) {
	t.Helper()
	seen := &uploadSeen{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Path = r.URL.Path
		seen.Auth = r.Header.Get("Authorization")

		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err == nil && params["boundary"] != "" {
			mr := multipart.NewReader(r.Body, params["boundary"])
			if part, err := mr.NextPart(); err == nil {
				_ = json.NewDecoder(part).Decode(&seen.Metadata)
			}
			if part, err := mr.NextPart(); err == nil {
				seen.Media, _ = io.ReadAll(part)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(credentials.NewStaticProvider("drive-token", srv.Client()), srv.URL+"/")
	client.now = func() time.Time { return time.Date(2025, 1, 10, 9, 30, 0, 0, time.UTC) }
	return client, seen
}

func TestUpload_Success(t *testing.T) {
	client, seen := setupDrive(t, http.StatusOK, `{"id":"1AbCdEfGhIjKlMnOpQrStUvWxYz"}`)

	id, err := client.Upload(context.Background(), File{Name: "cover final.png", Data: pngHeader}, "folder-9")

	require.NoError(t, err)
	assert.Equal(t, "1AbCdEfGhIjKlMnOpQrStUvWxYz", id)
	assert.True(t, strings.HasSuffix(seen.Path, "/files"))
	assert.Equal(t, "Bearer drive-token", seen.Auth)
	assert.Equal(t, []any{"folder-9"}, seen.Metadata["parents"])
	assert.Equal(t, "image/png", seen.Metadata["mimeType"])
	assert.Regexp(t, regexp.MustCompile(`^20250110T093000Z_[0-9a-f-]{8}_cover_final\.png$`), seen.Metadata["name"])
	assert.Equal(t, pngHeader, seen.Media)
}

func TestUpload_RemoteErrors(t *testing.T) {
	client, _ := setupDrive(t, http.StatusForbidden, `{"error":{"code":403,"message":"Insufficient Permission"}}`)

	_, err := client.Upload(context.Background(), File{Name: "a.png", Data: pngHeader}, "folder-9")

	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	assert.Contains(t, err.Error(), "drive.upload a.png")
}

func TestUpload_ValidationBeforeRemoteCall(t *testing.T) {
	client, seen := setupDrive(t, http.StatusOK, `{"id":"x"}`)

	_, err := client.Upload(context.Background(), File{Name: "empty.png"}, "folder-9")
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = client.Upload(context.Background(), File{Name: "notes.txt", MimeType: "text/plain", Data: []byte("hi")}, "folder-9")
	assert.ErrorIs(t, err, ErrInvalidMimeType)
	assert.Equal(t, 1, strings.Count(err.Error(), apperr.ErrValidationFailed.Error()), err.Error())

	_, err = client.Upload(context.Background(), File{Name: "a.png", Data: pngHeader}, "")
	assert.ErrorIs(t, err, apperr.ErrConfigurationMissing)

	assert.Empty(t, seen.Path)
}

func TestValidate_SniffsOctetStream(t *testing.T) {
	mimeType, err := Validate(File{MimeType: "application/octet-stream", Data: []byte("ID3\x03\x00\x00\x00\x00\x00\x00")})
	require.NoError(t, err)
	assert.Equal(t, "audio/mpeg", mimeType)

	mimeType, err = Validate(File{MimeType: "audio/wav; codecs=1", Data: []byte("RIFF")})
	require.NoError(t, err)
	assert.Equal(t, "audio/wav", mimeType)
}

func TestDisplayName(t *testing.T) {
	now := time.Date(2025, 4, 11, 23, 59, 1, 0, time.FixedZone("X", 3600))

	name := DisplayName("../../Master Mix (v2)", "audio/mpeg", now)
	assert.Regexp(t, `^20250411T225901Z_[0-9a-f-]{8}_Master_Mix__v2_\.mp3$`, name)

	assert.NotEqual(t, DisplayName("a.jpg", "image/jpeg", now), DisplayName("a.jpg", "image/jpeg", now))
	assert.True(t, strings.HasSuffix(DisplayName("", "image/webp", now), "_file.webp"))
}
