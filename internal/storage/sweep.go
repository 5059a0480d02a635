package storage

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path"
	"path/filepath"
	"time"
)

// SweepOrphans deletes stored files whose URL is not in referenced and whose
// modification time is older than minAge. Younger files may belong to a request
// whose transaction has not committed yet. It returns the URLs removed.
func (s *LocalStore) SweepOrphans(ctx context.Context, referenced []string, minAge time.Duration, now time.Time) ([]string, error) {
	keep := make(map[string]struct{}, len(referenced))
	for _, url := range referenced {
		keep[url] = struct{}{}
	}

	var removed []string
	err := filepath.WalkDir(s.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(s.Root, p)
		if err != nil {
			return err
		}
		url := path.Join(s.Prefix, filepath.ToSlash(rel))
		if _, ok := keep[url]; ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if now.Sub(info.ModTime()) < minAge {
			return nil
		}

		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			log.Printf("Warning: failed to remove orphaned upload %s: %v", url, err)
			return nil
		}
		removed = append(removed, url)
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("failed to sweep upload directory: %w", err)
	}
	return removed, nil
}
