package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes files under Dir; they are served at BaseURL.
type LocalStore struct {
	Dir     string
	BaseURL string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if dir == "" {
		return nil, errors.New("blob: local store needs a directory")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("blob: create upload directory: %w", err)
	}
	return &LocalStore{Dir: dir, BaseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, _ string) (string, error) {
	key = cleanKey(key)
	if key == "" {
		return "", errors.New("blob: empty key")
	}
	target := filepath.Join(s.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", fmt.Errorf("blob: create directory: %w", err)
	}

	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("blob: create file: %w", err)
	}
	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		os.Remove(target)
		return "", fmt.Errorf("blob: save file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("blob: save file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		os.Remove(target)
		return "", err
	}
	return s.BaseURL + "/" + key, nil
}

func (s *LocalStore) Driver() string { return "local" }

func (s *LocalStore) Close() error { return nil }
