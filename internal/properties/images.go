package properties

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/harborlane/harborlane/internal/shared"
)

// ImageStore writes uploaded listing photos under a media directory and
// returns the public path stored with the property record.
type ImageStore struct {
	dir string
}

// NewImageStore ensures the media directory exists.
func NewImageStore(dir string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("properties: create media dir: %w", err)
	}
	return &ImageStore{dir: dir}, nil
}

var allowedImageExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// Save persists one uploaded file under a random name, keeping only the
// original extension. The returned path is relative to the media root.
func (s *ImageStore) Save(header *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExt[ext] {
		return "", fmt.Errorf("%w: unsupported image type %q", shared.ErrValidation, ext)
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("properties: open upload: %w", err)
	}
	defer src.Close()

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("properties: write image: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("properties: write image: %w", err)
	}
	return "/media/" + name, nil
}

// SaveAll persists every uploaded file, returning the stored paths.
func (s *ImageStore) SaveAll(headers []*multipart.FileHeader) ([]string, error) {
	paths := make([]string, 0, len(headers))
	for _, header := range headers {
		path, err := s.Save(header)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
