package storage

import (
	"context"
	"errors"
	"io"
)

// Folders uploads are grouped under.
const (
	FolderMeasurements = "measurements"
	FolderSuits        = "suits"
)

// ErrForeignURL is returned when a URL was not issued by the store asked to remove it.
var ErrForeignURL = errors.New("url does not belong to this store")

// FileStore persists uploaded files and hands back the URL the API exposes for them.
type FileStore interface {
	Save(ctx context.Context, folder, filename string, r io.Reader) (string, error)
	Remove(ctx context.Context, url string) error
}
