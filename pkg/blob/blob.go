// Package blob stores uploaded images and returns their public URLs.
package blob

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"p9e.in/sitebook/config"
)

type Store interface {
	// Put writes r under key and returns the URL clients load it from.
	Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Driver() string
	Close() error
}

// New opens the store selected by cfg.Driver ("gcs" or "local").
func New(ctx context.Context, cfg config.BlobConfig) (Store, error) {
	switch cfg.Driver {
	case "gcs":
		return NewGCSStore(ctx, cfg.Bucket, cfg.CredentialsFile)
	case "local", "":
		return NewLocalStore(cfg.Dir, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("blob: unknown driver %q", cfg.Driver)
	}
}

// Key builds "<folder>/<unix millis>-<random>.<ext>" for an uploaded file,
// keeping the extension of filename.
func Key(folder, filename string, now time.Time) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if ext == "" {
		ext = "bin"
	}
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	name := fmt.Sprintf("%d-%s.%s", now.UnixMilli(), random, ext)
	folder = strings.Trim(cleanKey(folder), "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}

// cleanKey normalizes key to a relative slash path with no parent segments.
func cleanKey(key string) string {
	key = path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	return strings.TrimPrefix(key, "/")
}
