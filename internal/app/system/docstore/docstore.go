// Package docstore stores application documents and hands out short-lived
// URLs to view them. Backends are S3 (presigned GETs) or local disk (HMAC
// signed /files URLs).
package docstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxDocumentSize caps a single uploaded document.
const MaxDocumentSize = 10 << 20

var (
	ErrTooLarge    = errors.New("document exceeds size limit")
	ErrInvalidPath = errors.New("invalid document path")
)

// Backend is a document storage backend.
type Backend interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// NewKey returns a unique storage key: <category>/YYYY/MM/<uuid8>-<filename>.
func NewKey(category, filename string, now time.Time) string {
	now = now.UTC()
	return path.Join(
		category,
		fmt.Sprintf("%04d/%02d", now.Year(), now.Month()),
		uuid.NewString()[:8]+"-"+SanitizeFilename(filename),
	)
}

// SanitizeFilename keeps the base name and replaces anything outside
// [A-Za-z0-9._-] with '_'.
func SanitizeFilename(filename string) string {
	filename = filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	b := make([]byte, 0, len(filename))
	for i := 0; i < len(filename); i++ {
		c := filename[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '-', c == '_':
			b = append(b, c)
		default:
			b = append(b, '_')
		}
	}
	out := strings.Trim(string(b), ".")
	if out == "" {
		return "document"
	}
	return out
}

// cleanKey rejects keys that would escape the storage root.
func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(path.Clean("/"+key), "/")
	if key == "" || key == "." {
		return "", ErrInvalidPath
	}
	return key, nil
}
