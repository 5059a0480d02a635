package repository

import (
	"context"

	"tailor-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ImageRepository stores image records for both customers and suits, keyed by owner kind.
type ImageRepository interface {
	Create(ctx context.Context, images []model.Image) error
	ListByOwners(ctx context.Context, kind string, ownerIDs ...string) ([]model.Image, error)
	DeleteOwned(ctx context.Context, kind, ownerID string, ids []uint) ([]model.Image, error)
	DeleteByOwners(ctx context.Context, kind string, ownerIDs ...string) ([]model.Image, error)
	ListURLs(ctx context.Context) ([]string, error)
}

type imageRepository struct {
	db *gorm.DB
}

func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepository{db: db}
}

func (r *imageRepository) Create(ctx context.Context, images []model.Image) error {
	if len(images) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Create(&images).Error
}

func (r *imageRepository) ListByOwners(ctx context.Context, kind string, ownerIDs ...string) ([]model.Image, error) {
	var images []model.Image
	if len(ownerIDs) == 0 {
		return images, nil
	}
	err := GetDB(ctx, r.db).
		Where("owner_kind = ? AND owner_id IN ?", kind, ownerIDs).
		Order("image_id ASC").
		Find(&images).Error
	if err != nil {
		return nil, err
	}
	return images, nil
}

// DeleteOwned removes only the listed images that belong to the owner; other ids are ignored.
func (r *imageRepository) DeleteOwned(ctx context.Context, kind, ownerID string, ids []uint) ([]model.Image, error) {
	var removed []model.Image
	if len(ids) == 0 {
		return removed, nil
	}
	err := GetDB(ctx, r.db).Clauses(clause.Returning{}).
		Where("owner_kind = ? AND owner_id = ? AND image_id IN ?", kind, ownerID, ids).
		Delete(&removed).Error
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (r *imageRepository) DeleteByOwners(ctx context.Context, kind string, ownerIDs ...string) ([]model.Image, error) {
	var removed []model.Image
	if len(ownerIDs) == 0 {
		return removed, nil
	}
	err := GetDB(ctx, r.db).Clauses(clause.Returning{}).
		Where("owner_kind = ? AND owner_id IN ?", kind, ownerIDs).
		Delete(&removed).Error
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// ListURLs returns every stored image URL; the upload sweeper uses it to spot orphaned files.
func (r *imageRepository) ListURLs(ctx context.Context) ([]string, error) {
	var urls []string
	if err := GetDB(ctx, r.db).Model(&model.Image{}).Pluck("image_url", &urls).Error; err != nil {
		return nil, err
	}
	return urls, nil
}
