// Package uploads stores post images on the local filesystem and serves
// them back under a public /uploads/ reference.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/anonto42/mini-social/backend/internal/models"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// PublicPrefix is the URL prefix under which stored files are served.
const PublicPrefix = "/uploads/"

// Store writes accepted images under Dir.
type Store struct {
	Dir          string
	MaxSize      int64
	AllowedTypes []string
}

func NewStore(dir string, maxSize int64, allowedTypes []string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{Dir: dir, MaxSize: maxSize, AllowedTypes: allowedTypes}, nil
}

// Save validates fh by size and sniffed content type, writes it as
// image-<uuid><ext> and returns its public reference.
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	if fh.Size > s.MaxSize {
		return "", models.NewValidationError(
			fmt.Sprintf("File too large. Maximum size is %dMB", s.MaxSize/(1024*1024)),
			models.FieldError{Field: "image", Message: "file too large"})
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("sniff upload: %w", err)
	}
	if !mimetype.EqualsAny(mtype.String(), s.AllowedTypes...) {
		return "", models.NewValidationError("Only image files are allowed",
			models.FieldError{Field: "image", Message: "unsupported type " + mtype.String()})
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	name := "image-" + uuid.NewString() + mtype.Extension()
	dst, err := os.OpenFile(filepath.Join(s.Dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	// guard against a client-declared size smaller than the real body
	n, err := io.Copy(dst, io.LimitReader(src, s.MaxSize+1))
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && n > s.MaxSize {
		err = models.NewValidationError(
			fmt.Sprintf("File too large. Maximum size is %dMB", s.MaxSize/(1024*1024)))
	}
	if err != nil {
		os.Remove(filepath.Join(s.Dir, name))
		if models.IsValidation(err) {
			return "", err
		}
		return "", fmt.Errorf("write upload: %w", err)
	}
	return PublicPrefix + name, nil
}

// Remove deletes the file behind ref. References outside PublicPrefix and
// files that no longer exist are ignored.
func (s *Store) Remove(ref string) error {
	if !strings.HasPrefix(ref, PublicPrefix) {
		return nil
	}
	name := filepath.Base(strings.TrimPrefix(ref, PublicPrefix))
	if name == "." || name == "/" || name == ".." {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}
