package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"socialgen/internal/domain"
)

// SafeName normalizes a client-supplied filename and rejects anything that
// could escape a bucket directory: absolute paths and parent-directory
// segments. Server-generated filenames never pass through here; they are
// trusted by construction.
func SafeName(name string) (string, error) {
	cleaned := filepath.Clean(name)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidFilename, name)
	}
	for _, segment := range strings.Split(cleaned, string(filepath.Separator)) {
		if segment == ".." {
			return "", fmt.Errorf("%w: %q", domain.ErrInvalidFilename, name)
		}
	}
	return cleaned, nil
}

// DownloadURL returns the stable relative download URL for an artifact. No
// host is embedded, so the URL survives server host or port changes.
func DownloadURL(bucket Bucket, filename string) string {
	return fmt.Sprintf("/api/images/download/%s/%s", bucket, url.PathEscape(filename))
}

// File describes a resolved, readable artifact on disk.
type File struct {
	Path        string
	Filename    string
	ContentType string
}

// Open performs the canonical lookup: bucket must be one of the two known
// values, the filename must pass the safety guard, and the file must exist.
func (s *Store) Open(bucket Bucket, filename string) (*File, error) {
	if _, err := ParseBucket(string(bucket)); err != nil {
		return nil, err
	}
	safe, err := SafeName(filename)
	if err != nil {
		return nil, err
	}
	target := filepath.Join(s.dir(bucket), safe)
	info, err := os.Stat(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrNotFound, bucket, safe)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %v", domain.ErrStorage, safe, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrNotFound, bucket, safe)
	}
	return &File{
		Path:        target,
		Filename:    path.Base(strings.ReplaceAll(safe, "\\", "/")),
		ContentType: contentTypeFor(safe),
	}, nil
}

// OpenLegacy resolves a combined path that may use either separator
// convention and may or may not carry a bucket prefix. A recognized
// bucket/filename pair delegates to the canonical lookup; anything else is
// reduced to its basename and searched in uploads first, then generated.
func (s *Store) OpenLegacy(combined string) (*File, error) {
	normalized := strings.ReplaceAll(combined, "\\", "/")
	parts := strings.Split(normalized, "/")
	if len(parts) == 2 {
		if bucket, err := ParseBucket(parts[0]); err == nil {
			return s.Open(bucket, parts[1])
		}
	}

	name := path.Base(normalized)
	for _, bucket := range []Bucket{BucketUploads, BucketGenerated} {
		f, err := s.Open(bucket, name)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, name)
}

// contentTypeFor infers the MIME type from the file extension at access time.
func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
