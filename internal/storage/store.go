package storage

import (
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"socialgen/internal/domain"
)

// Bucket names one of the two fixed storage partitions.
type Bucket string

const (
	BucketUploads   Bucket = "uploads"
	BucketGenerated Bucket = "generated"
)

// ParseBucket validates a client-supplied bucket name.
func ParseBucket(name string) (Bucket, error) {
	switch Bucket(name) {
	case BucketUploads:
		return BucketUploads, nil
	case BucketGenerated:
		return BucketGenerated, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrInvalidBucket, name)
}

// Artifact is a single stored file. Artifacts are immutable once written;
// edits and resizes always produce a new artifact in the generated bucket.
type Artifact struct {
	Bucket   Bucket
	Filename string
	Path     string
}

// ImagePath is the client-facing forward-slash path of the artifact.
func (a *Artifact) ImagePath() string {
	return string(a.Bucket) + "/" + a.Filename
}

// DownloadURL is the stable relative URL the artifact can be fetched from.
func (a *Artifact) DownloadURL() string {
	return DownloadURL(a.Bucket, a.Filename)
}

// Store persists artifacts onto the local filesystem under two flat
// directories. Every filename embeds a random token, so concurrent writers
// never contend and no artifact is ever overwritten.
type Store struct {
	uploadDir    string
	generatedDir string
}

// New initializes a Store and ensures both bucket directories exist.
func New(uploadDir, generatedDir string) (*Store, error) {
	for _, dir := range []string{uploadDir, generatedDir} {
		if strings.TrimSpace(dir) == "" {
			return nil, fmt.Errorf("storage: bucket directory is required")
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: ensure %s: %v", domain.ErrStorage, dir, err)
		}
	}
	return &Store{uploadDir: uploadDir, generatedDir: generatedDir}, nil
}

func (s *Store) dir(bucket Bucket) string {
	if bucket == BucketUploads {
		return s.uploadDir
	}
	return s.generatedDir
}

var allowedUploadExts = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".webp": {},
}

// SaveUpload stores a client-provided file under the uploads bucket. The
// original name is reduced to its basename and namespaced with a random
// token; names without an allowed image extension are rejected.
func (s *Store) SaveUpload(originalName string, data []byte) (*Artifact, error) {
	base := path.Base(strings.ReplaceAll(originalName, "\\", "/"))
	ext := strings.ToLower(path.Ext(base))
	if _, ok := allowedUploadExts[ext]; !ok || strings.TrimSuffix(base, ext) == "" {
		return nil, fmt.Errorf("%w: unsupported upload name %q", domain.ErrInvalidFilename, originalName)
	}
	filename := fmt.Sprintf("upload_%s_%s", uuid.NewString(), base)
	return s.write(BucketUploads, filename, data)
}

// SaveGenerated stores a freshly generated image under the generated bucket.
func (s *Store) SaveGenerated(index int, mimeType string, data []byte) (*Artifact, error) {
	filename := fmt.Sprintf("generated_%s_%d%s", uuid.NewString(), index, extensionForMIME(mimeType))
	return s.write(BucketGenerated, filename, data)
}

// SaveEdited stores the result of an edit as a new artifact; the source is
// never mutated.
func (s *Store) SaveEdited(index int, mimeType string, data []byte) (*Artifact, error) {
	filename := fmt.Sprintf("edited_%s_%d%s", uuid.NewString(), index, extensionForMIME(mimeType))
	return s.write(BucketGenerated, filename, data)
}

// SaveResized stores a platform-resized image. Resize output is always JPEG.
func (s *Store) SaveResized(data []byte) (*Artifact, error) {
	filename := fmt.Sprintf("resized_%s.jpg", uuid.NewString())
	return s.write(BucketGenerated, filename, data)
}

func (s *Store) write(bucket Bucket, filename string, data []byte) (*Artifact, error) {
	target := filepath.Join(s.dir(bucket), filename)
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", domain.ErrStorage, filename, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: write %s: %v", domain.ErrStorage, filename, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("%w: close %s: %v", domain.ErrStorage, filename, err)
	}
	return &Artifact{Bucket: bucket, Filename: filename, Path: target}, nil
}

// extensionForMIME maps the declared MIME type of produced bytes to a file
// extension. Undeterminable types default to .png.
func extensionForMIME(mimeType string) string {
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = mt
	}
	switch strings.ToLower(mimeType) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ".png"
}
