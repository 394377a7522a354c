// Package media persists uploaded files as flat files under a configured
// directory and hands back public URLs built from a configured base. File
// names follow the `{prefix}{id}_{millisecond-timestamp}.{ext}` pattern so
// repeated uploads never collide.
package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/workscout/go-marketplace-backend/internal/config"
)

// Allowed image content types mapped to their stored extensions.
var extByContentType = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// ExtForContentType returns the storage extension for an upload content
// type, or false for unsupported types.
func ExtForContentType(ct string) (string, bool) {
	ext, ok := extByContentType[strings.ToLower(strings.TrimSpace(ct))]
	return ext, ok
}

// Store writes media files below a root directory, one subdirectory per
// entity kind, and produces public URLs under the configured base.
type Store struct {
	dir        string
	publicBase string

	// now is a clock override for tests.
	now func() time.Time
}

// NewStore builds a Store from the media configuration.
func NewStore(cfg config.MediaConfig) *Store {
	return &Store{dir: cfg.Dir, publicBase: cfg.PublicBase, now: time.Now}
}

// ExtForContentType returns the storage extension for an upload content
// type, or false for unsupported types.
func (s *Store) ExtForContentType(ct string) (string, bool) {
	return ExtForContentType(ct)
}

// SaveOrderPhoto stores one order photo and returns its public URL.
func (s *Store) SaveOrderPhoto(orderID int64, data []byte, ext string) (string, error) {
	return s.save("orders", fmt.Sprintf("o%d", orderID), data, ext)
}

// SaveAvatar stores a user avatar and returns its public URL.
func (s *Store) SaveAvatar(userID int64, data []byte, ext string) (string, error) {
	return s.save("avatars", fmt.Sprintf("u%d", userID), data, ext)
}

func (s *Store) save(kind, prefix string, data []byte, ext string) (string, error) {
	dir := filepath.Join(s.dir, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("media: create dir: %w", err)
	}
	name := fmt.Sprintf("%s_%d.%s", prefix, s.now().UnixMilli(), ext)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("media: write file: %w", err)
	}
	return s.publicBase + "/" + kind + "/" + name, nil
}
