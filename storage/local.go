package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStorage writes under Root; files are served by the router at Prefix.
type LocalStorage struct {
	Root   string
	Prefix string
}

func NewLocalStorage(root, prefix string) (*LocalStorage, error) {
	for _, folder := range []string{FolderPlaceImages, FolderExperienceImages, FolderPDFs} {
		if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(folder)), 0o755); err != nil {
			return nil, fmt.Errorf("create upload dir %s: %w", folder, err)
		}
	}
	return &LocalStorage{Root: root, Prefix: "/" + strings.Trim(prefix, "/")}, nil
}

func (s *LocalStorage) Save(ctx context.Context, folder, ext, contentType string, data []byte) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	key := generateKey(folder, ext)
	full, err := s.resolve(key)
	if err != nil {
		return Object{}, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return Object{}, err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		// Do not leave a truncated file behind.
		_ = os.Remove(full)
		return Object{}, err
	}
	return Object{Path: key, URL: s.URL(key), Size: int64(len(data))}, nil
}

// Delete removes a stored file. A file that is already gone is not an error.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	full, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStorage) URL(key string) string {
	return path.Join(s.Prefix, key)
}

// resolve maps a key to a path under Root and rejects keys escaping it.
func (s *LocalStorage) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.Root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
