package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"tailor-backend/internal/model"
	"tailor-backend/internal/repository"
	"tailor-backend/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Upload limits applied per request field.
const (
	MaxImagesPerField = 5
	MaxImageSize      = 10 << 20
)

var allowedExtensions = map[string]bool{".jpeg": true, ".jpg": true, ".png": true, ".gif": true}

var allowedMIMETypes = []string{"image/jpeg", "image/png", "image/gif"}

// Upload is one file received in a multipart request.
type Upload struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// ImageOwner identifies the customer or suit an image belongs to.
type ImageOwner struct {
	Kind string
	ID   string
}

func CustomerOwner(id string) ImageOwner { return ImageOwner{Kind: model.ImageOwnerCustomer, ID: id} }

func SuitOwner(id string) ImageOwner { return ImageOwner{Kind: model.ImageOwnerSuit, ID: id} }

func (o ImageOwner) folder() string {
	if o.Kind == model.ImageOwnerCustomer {
		return storage.FolderMeasurements
	}
	return storage.FolderSuits
}

func (o ImageOwner) filePrefix() string {
	if o.Kind == model.ImageOwnerCustomer {
		return "measurement_"
	}
	return "suit_"
}

type ImageRecord struct {
	ID        uint      `json:"image_id"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

func toImageRecords(images []model.Image) []ImageRecord {
	records := make([]ImageRecord, 0, len(images))
	for _, img := range images {
		records = append(records, ImageRecord{ID: img.ID, ImageURL: img.ImageURL, CreatedAt: img.CreatedAt})
	}
	return records
}

func imageURLs(records []ImageRecord) []string {
	urls := make([]string, 0, len(records))
	for _, r := range records {
		urls = append(urls, r.ImageURL)
	}
	return urls
}

// AttachmentManager stores uploaded images and tracks which customer or suit owns them.
type AttachmentManager interface {
	Validate(files []Upload) error
	AddImages(ctx context.Context, owner ImageOwner, files []Upload) ([]ImageRecord, error)
	RemoveImages(ctx context.Context, owner ImageOwner, ids []uint) ([]ImageRecord, error)
	RemoveAll(ctx context.Context, kind string, ownerIDs ...string) ([]ImageRecord, error)
	ListImages(ctx context.Context, owner ImageOwner) ([]ImageRecord, error)
	ListImagesFor(ctx context.Context, kind string, ownerIDs ...string) (map[string][]ImageRecord, error)
	Reclaim(ctx context.Context, urls []string)
}

type attachmentManager struct {
	imageRepo repository.ImageRepository
	store     storage.FileStore
}

func NewAttachmentManager(imageRepo repository.ImageRepository, store storage.FileStore) AttachmentManager {
	return &attachmentManager{imageRepo: imageRepo, store: store}
}

// Validate rejects the whole batch if any file breaks the count, size or type rules.
func (m *attachmentManager) Validate(files []Upload) error {
	if len(files) > MaxImagesPerField {
		return validationError("at most %d images can be uploaded at once", MaxImagesPerField)
	}
	for _, f := range files {
		if f.Size > MaxImageSize {
			return validationError("%s exceeds the %d MB size limit", f.Filename, MaxImageSize>>20)
		}
		if !allowedExtensions[strings.ToLower(filepath.Ext(f.Filename))] {
			return validationError("%s: only jpeg, jpg, png and gif images are allowed", f.Filename)
		}
		if err := sniffImage(f); err != nil {
			return err
		}
	}
	return nil
}

func sniffImage(f Upload) error {
	rc, err := f.Open()
	if err != nil {
		return validationError("%s could not be read", f.Filename)
	}
	defer rc.Close()

	mt, err := mimetype.DetectReader(rc)
	if err != nil {
		return validationError("%s could not be read", f.Filename)
	}
	for _, allowed := range allowedMIMETypes {
		if mt.Is(allowed) {
			return nil
		}
	}
	return validationError("%s is not an image (detected %s)", f.Filename, mt.String())
}

// AddImages writes files first and inserts rows after; files already written are
// removed again if a later step fails.
func (m *attachmentManager) AddImages(ctx context.Context, owner ImageOwner, files []Upload) ([]ImageRecord, error) {
	if len(files) == 0 {
		return []ImageRecord{}, nil
	}

	images := make([]model.Image, 0, len(files))
	var written []string
	for _, f := range files {
		url, err := m.save(ctx, owner, f)
		if err != nil {
			m.Reclaim(ctx, written)
			return nil, err
		}
		written = append(written, url)
		images = append(images, model.Image{OwnerKind: owner.Kind, OwnerID: owner.ID, ImageURL: url})
	}

	if err := m.imageRepo.Create(ctx, images); err != nil {
		m.Reclaim(ctx, written)
		return nil, fmt.Errorf("failed to record images: %w", err)
	}
	return toImageRecords(images), nil
}

func (m *attachmentManager) save(ctx context.Context, owner ImageOwner, f Upload) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload %s: %w", f.Filename, err)
	}
	defer rc.Close()

	name := owner.filePrefix() + uuid.NewString() + strings.ToLower(filepath.Ext(f.Filename))
	url, err := m.store.Save(ctx, owner.folder(), name, rc)
	if err != nil {
		return "", fmt.Errorf("failed to store %s: %w", f.Filename, err)
	}
	return url, nil
}

// RemoveImages deletes the owner's images among ids; ids of other owners are ignored.
func (m *attachmentManager) RemoveImages(ctx context.Context, owner ImageOwner, ids []uint) ([]ImageRecord, error) {
	if len(ids) == 0 {
		return []ImageRecord{}, nil
	}
	removed, err := m.imageRepo.DeleteOwned(ctx, owner.Kind, owner.ID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to delete images: %w", err)
	}
	return toImageRecords(removed), nil
}

func (m *attachmentManager) RemoveAll(ctx context.Context, kind string, ownerIDs ...string) ([]ImageRecord, error) {
	if len(ownerIDs) == 0 {
		return []ImageRecord{}, nil
	}
	removed, err := m.imageRepo.DeleteByOwners(ctx, kind, ownerIDs...)
	if err != nil {
		return nil, fmt.Errorf("failed to delete images: %w", err)
	}
	return toImageRecords(removed), nil
}

func (m *attachmentManager) ListImages(ctx context.Context, owner ImageOwner) ([]ImageRecord, error) {
	images, err := m.imageRepo.ListByOwners(ctx, owner.Kind, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	return toImageRecords(images), nil
}

// ListImagesFor groups the images of many owners by owner id.
func (m *attachmentManager) ListImagesFor(ctx context.Context, kind string, ownerIDs ...string) (map[string][]ImageRecord, error) {
	grouped := make(map[string][]ImageRecord, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return grouped, nil
	}
	images, err := m.imageRepo.ListByOwners(ctx, kind, ownerIDs...)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	for _, img := range images {
		grouped[img.OwnerID] = append(grouped[img.OwnerID], ImageRecord{ID: img.ID, ImageURL: img.ImageURL, CreatedAt: img.CreatedAt})
	}
	return grouped, nil
}

// Reclaim removes stored files on a best-effort basis. It keeps going after the
// request context is cancelled, since it usually runs on the error path.
func (m *attachmentManager) Reclaim(ctx context.Context, urls []string) {
	ctx = context.WithoutCancel(ctx)
	for _, url := range urls {
		if err := m.store.Remove(ctx, url); err != nil {
			log.Printf("Warning: failed to remove stored file %s: %v", url, err)
		}
	}
}
