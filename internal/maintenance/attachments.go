package maintenance

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

// AttachmentStore writes uploaded request attachments under a media
// directory and returns the public path stored with the request.
type AttachmentStore struct {
	dir string
}

// NewAttachmentStore ensures the media directory exists.
func NewAttachmentStore(dir string) (*AttachmentStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("maintenance: create media dir: %w", err)
	}
	return &AttachmentStore{dir: dir}, nil
}

var allowedAttachmentExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".pdf":  true,
}

// Save persists one uploaded file under a random name, keeping only the
// original extension. The returned path is relative to the media root.
func (s *AttachmentStore) Save(header *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedAttachmentExt[ext] {
		return "", fmt.Errorf("%w: unsupported attachment type %q", shared.ErrValidation, ext)
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("maintenance: open upload: %w", err)
	}
	defer src.Close()

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("maintenance: write attachment: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("maintenance: write attachment: %w", err)
	}
	return "/media/" + name, nil
}
