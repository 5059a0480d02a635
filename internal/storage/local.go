package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStore writes files below a content directory that gin serves statically under Prefix.
type LocalStore struct {
	Root   string
	Prefix string
}

// NewLocalStore creates the folder layout under root.
func NewLocalStore(root, prefix string) (*LocalStore, error) {
	for _, folder := range []string{FolderMeasurements, FolderSuits} {
		if err := os.MkdirAll(filepath.Join(root, folder), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory %s: %w", folder, err)
		}
	}
	return &LocalStore{Root: root, Prefix: "/" + strings.Trim(prefix, "/")}, nil
}

func (s *LocalStore) Save(ctx context.Context, folder, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if filename != filepath.Base(filename) || strings.Contains(folder, "..") {
		return "", fmt.Errorf("invalid upload path %s/%s", folder, filename)
	}

	dir := filepath.Join(s.Root, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	target := filepath.Join(dir, filename)
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", filename, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(target)
		return "", fmt.Errorf("failed to write %s: %w", filename, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("failed to flush %s: %w", filename, err)
	}

	return path.Join(s.Prefix, folder, filename), nil
}

// Remove deletes the file behind url. Missing files are not an error.
func (s *LocalStore) Remove(ctx context.Context, url string) error {
	target, err := s.pathFor(url)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", url, err)
	}
	return nil
}

func (s *LocalStore) pathFor(url string) (string, error) {
	if !strings.HasPrefix(url, s.Prefix+"/") {
		return "", ErrForeignURL
	}
	rel := path.Clean(strings.TrimPrefix(url, s.Prefix+"/"))
	if rel == "." || strings.HasPrefix(rel, "..") {
		return "", ErrForeignURL
	}
	return filepath.Join(s.Root, filepath.FromSlash(rel)), nil
}
