package repository

import (
	"context"
	"time"

	"tailor-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CustomerRepository defines data access for customers and their stored aggregates
type CustomerRepository interface {
	Create(ctx context.Context, customer *model.Customer) error
	Update(ctx context.Context, customer *model.Customer) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*model.Customer, error)
	FindByIDForUpdate(ctx context.Context, id string) (*model.Customer, error)
	List(ctx context.Context) ([]model.CustomerListItem, error)
	Search(ctx context.Context, term string) ([]model.Customer, error)
	UpdateAggregates(ctx context.Context, id string, totalSuits int, dueDate *time.Time) error
}

type customerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, customer *model.Customer) error {
	return GetDB(ctx, r.db).Create(customer).Error
}

func (r *customerRepository) Update(ctx context.Context, customer *model.Customer) error {
	return GetDB(ctx, r.db).Save(customer).Error
}

func (r *customerRepository) Delete(ctx context.Context, id string) error {
	return GetDB(ctx, r.db).Where("customer_id = ?", id).Delete(&model.Customer{}).Error
}

func (r *customerRepository) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	var customer model.Customer
	if err := GetDB(ctx, r.db).First(&customer, "customer_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// FindByIDForUpdate locks the customer row until the surrounding transaction ends.
// Suit mutations take this lock so sequence numbers and due dates are computed one writer at a time.
func (r *customerRepository) FindByIDForUpdate(ctx context.Context, id string) (*model.Customer, error) {
	var customer model.Customer
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("customer_id = ?", id).First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) List(ctx context.Context) ([]model.CustomerListItem, error) {
	var customers []model.CustomerListItem
	err := GetDB(ctx, r.db).Model(&model.Customer{}).
		Select("customers.*, (SELECT COUNT(*) FROM images WHERE images.owner_kind = ? AND images.owner_id = customers.customer_id) AS measurement_images_count", model.ImageOwnerCustomer).
		Order("customers.due_date ASC NULLS LAST, customers.customer_id ASC").
		Scan(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *customerRepository) Search(ctx context.Context, term string) ([]model.Customer, error) {
	var customers []model.Customer
	pattern := likePattern(term)
	err := GetDB(ctx, r.db).
		Where("customer_id ILIKE ? OR name ILIKE ? OR phone_number ILIKE ? OR instagram_id ILIKE ?",
			pattern, pattern, pattern, pattern).
		Order("due_date ASC NULLS LAST, customer_id ASC").
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *customerRepository) UpdateAggregates(ctx context.Context, id string, totalSuits int, dueDate *time.Time) error {
	var due interface{} // untyped nil writes NULL
	if dueDate != nil {
		due = *dueDate
	}
	return GetDB(ctx, r.db).Model(&model.Customer{}).
		Where("customer_id = ?", id).
		Updates(map[string]interface{}{
			"total_suits": totalSuits,
			"due_date":    due,
		}).Error
}
