// Package blob uploads cover art and audio files into a Google Drive folder.
// Only the returned file id is kept by callers; download and delete are not
// offered, so files replaced on update stay in the folder.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"releasedesk/internal/credentials"
	"releasedesk/internal/gapi"
	"releasedesk/internal/pkg/apperr"
)

const MaxFileSize = 50 * 1024 * 1024 // 50 MB

// AllowedMimeTypes defines which file types are accepted
var AllowedMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"audio/mpeg":      true,
	"audio/mp4":       true,
	"audio/aac":       true,
	"audio/wav":       true,
	"audio/wave":      true,
	"audio/x-wav":     true,
	"audio/flac":      true,
	"audio/x-flac":    true,
	"audio/ogg":       true,
	"application/ogg": true,
}

var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrFileTooLarge    = errors.New("file exceeds maximum allowed size")
	ErrInvalidMimeType = errors.New("file type is not allowed")
	ErrNoFolder        = errors.New("destination folder id is empty")
)

// File is one attachment to upload.
type File struct {
	Name     string
	MimeType string
	Data     []byte
}

// Client creates files in a Drive folder.
type Client struct {
	provider credentials.Provider
	endpoint string
	now      func() time.Time
}

func NewClient(provider credentials.Provider, endpoint string) *Client {
	return &Client{provider: provider, endpoint: endpoint, now: time.Now}
}

// Upload validates f, stores it in folderID and returns the Drive file id.
func (c *Client) Upload(ctx context.Context, f File, folderID string) (string, error) {
	if folderID == "" {
		return "", apperr.New("drive.upload", f.Name, apperr.ErrConfigurationMissing, ErrNoFolder)
	}

	mimeType, err := Validate(f)
	if err != nil {
		return "", err
	}

	hc := c.provider.AcquireClient(ctx)
	svc, err := drive.NewService(ctx, gapi.ClientOptions(hc, c.endpoint)...)
	if err != nil {
		return "", apperr.New("drive.upload", f.Name, apperr.ErrRemoteUnavailable, fmt.Errorf("init drive service: %w", err))
	}

	meta := &drive.File{
		Name:     DisplayName(f.Name, mimeType, c.now()),
		Parents:  []string{folderID},
		MimeType: mimeType,
	}
	created, err := svc.Files.Create(meta).
		Media(bytes.NewReader(f.Data), googleapi.ContentType(mimeType)).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", gapi.Classify("drive.upload", f.Name, err)
	}

	log.Printf("blob_uploaded id=%s name=%q mime=%s size=%d", created.Id, meta.Name, mimeType, len(f.Data))
	return created.Id, nil
}

// Validate checks size and type without any remote call and returns the
// MIME type the file will be stored with. The type is sniffed when the
// caller did not supply a specific one.
func Validate(f File) (string, error) {
	if len(f.Data) == 0 {
		return "", apperr.New("blob.validate", f.Name, apperr.ErrValidationFailed, ErrEmptyFile)
	}
	if len(f.Data) > MaxFileSize {
		return "", apperr.New("blob.validate", f.Name, apperr.ErrValidationFailed, ErrFileTooLarge)
	}

	mimeType := strings.TrimSpace(strings.Split(f.MimeType, ";")[0])
	if mimeType == "" || mimeType == "application/octet-stream" {
		head := f.Data
		if len(head) > 512 {
			head = head[:512]
		}
		mimeType = strings.Split(http.DetectContentType(head), ";")[0]
	}

	if !AllowedMimeTypes[mimeType] {
		return "", apperr.New("blob.validate", f.Name, apperr.ErrValidationFailed, fmt.Errorf("%w: %s", ErrInvalidMimeType, mimeType))
	}
	return mimeType, nil
}

// DisplayName builds a timestamp-prefixed, collision-resistant file name:
// 20250110T093000Z_1a2b3c4d_cover-final.jpg
func DisplayName(original, mimeType string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(original))
	if ext == "" {
		ext = mimeToExt(mimeType)
	}
	return fmt.Sprintf("%s_%s_%s%s",
		now.UTC().Format("20060102T150405Z"),
		uuid.NewString()[:8],
		sanitizeName(original),
		ext,
	)
}

func sanitizeName(name string) string {
	name = filepath.Base(name)
	name = strings.TrimSuffix(name, filepath.Ext(name)) // extension is added separately
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return '_'
	}, name)
	if len(name) > 40 {
		name = name[:40]
	}
	if name == "" || name == "_" {
		return "file"
	}
	return name
}

func mimeToExt(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "audio/mpeg":
		return ".mp3"
	case "audio/mp4", "audio/aac":
		return ".m4a"
	case "audio/wav", "audio/wave", "audio/x-wav":
		return ".wav"
	case "audio/flac", "audio/x-flac":
		return ".flac"
	case "audio/ogg", "application/ogg":
		return ".ogg"
	default:
		return ".bin"
	}
}
