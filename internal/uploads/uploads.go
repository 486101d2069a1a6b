// Package uploads stores media attachments on the local filesystem. All
// content types share one attachment directory; files get collision-free
// names built from a timestamp and a random token, and a store is atomic:
// the file is either fully written and referencable or not present at all.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind selects the validation constraints applied to an upload.
type Kind string

const (
	KindImage Kind = "image"
	KindAudio Kind = "audio"
)

const (
	// maxImageSize is the maximum accepted image upload (5 MB).
	maxImageSize = 5 << 20

	// maxAudioSize is the maximum accepted audio upload (50 MB).
	maxAudioSize = 50 << 20
)

// allowedTypes maps each kind to its accepted MIME types.
var allowedTypes = map[Kind]map[string]bool{
	KindImage: {
		"image/jpeg": true,
		"image/png":  true,
	},
	KindAudio: {
		"audio/mpeg": true,
		"audio/mp3":  true,
	},
}

// extensions maps accepted MIME types to a file extension, used when the
// original filename has none.
var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"audio/mpeg": ".mp3",
	"audio/mp3":  ".mp3",
}

// RejectedError reports an upload that failed validation (disallowed type
// or size). It is distinct from I/O failures so callers can surface it as
// a client error.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return e.Reason
}

// Upload is a file payload received with a request, not yet stored.
type Upload struct {
	Kind        Kind
	Filename    string
	ContentType string
	Data        []byte
}

// Store persists attachments under a single root directory.
type Store struct {
	root string
}

// New creates the attachment directory if needed and returns a Store
// rooted there. Creation is idempotent, so this runs unconditionally at
// process startup.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{root: root}, nil
}

// Dir returns the attachment root directory.
func (s *Store) Dir() string {
	return s.root
}

// Save validates and stores an upload, returning the reference under which
// it can be retrieved. The payload is written to a temporary file and
// renamed into place, so an error or cancellation never leaves a partial
// file behind.
func (s *Store) Save(ctx context.Context, up Upload) (string, error) {
	maxSize := maxImageSize
	if up.Kind == KindAudio {
		maxSize = maxAudioSize
	}
	if len(up.Data) == 0 {
		return "", &RejectedError{Reason: fmt.Sprintf("empty %s upload", up.Kind)}
	}
	if len(up.Data) > maxSize {
		return "", &RejectedError{Reason: fmt.Sprintf("%s exceeds the %d MB limit", up.Kind, maxSize>>20)}
	}
	if !allowedTypes[up.Kind][up.ContentType] {
		return "", &RejectedError{Reason: fmt.Sprintf("file type %q is not allowed for %s uploads", up.ContentType, up.Kind)}
	}

	ext := strings.ToLower(filepath.Ext(up.Filename))
	if ext == "" {
		ext = extensions[up.ContentType]
	}
	ref := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), ext)

	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(up.Data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close upload: %w", err)
	}

	// A request cancelled mid-store must not leave the file referencable.
	if err := ctx.Err(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("store cancelled: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(s.root, ref)); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("store upload: %w", err)
	}
	return ref, nil
}

// Remove deletes a stored file by reference. Removal is best-effort:
// a missing file is not an error and other failures are logged, never
// propagated — orphan cleanup is advisory, not transactional.
func (s *Store) Remove(ref string) {
	if ref == "" {
		return
	}
	if strings.ContainsAny(ref, `/\`) || strings.Contains(ref, "..") {
		slog.Warn("refusing to remove upload outside the attachment dir", "ref", ref)
		return
	}
	if err := os.Remove(filepath.Join(s.root, ref)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to remove upload", "ref", ref, "error", err)
	}
}

// Exists reports whether a stored file is currently retrievable.
func (s *Store) Exists(ref string) bool {
	if ref == "" || strings.ContainsAny(ref, `/\`) {
		return false
	}
	_, err := os.Stat(filepath.Join(s.root, ref))
	return err == nil
}

// FileURL returns the public URL path for a stored reference.
func FileURL(ref string) string {
	return "/uploads/" + ref
}
