package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"storehub/internal/microservices/http-api/models"
	"storehub/internal/microservices/http-api/query"
)

type StoreFilter struct {
	Name    string
	Email   string
	Address string
}

// StoreRow is a store listing row. Rating totals come from the same SELECT via a
// grouped ratings subquery, so a page never costs one query per store.
type StoreRow struct {
	ID           uint
	Name         string
	Email        string
	Address      string
	OwnerID      *uint
	OwnerName    *string
	OwnerEmail   *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	TotalRatings int64
	RatingSum    int64
}

type StoreRepository interface {
	Create(ctx context.Context, store *models.Store) error
	FindByID(ctx context.Context, id uint) (*models.Store, error)
	FindByOwner(ctx context.Context, ownerID uint) (*models.Store, error)
	CountByOwner(ctx context.Context, ownerID uint) (int64, error)
	Update(ctx context.Context, store *models.Store) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, f StoreFilter, p query.Params) ([]StoreRow, int64, error)
	Count(ctx context.Context) (int64, error)
}

type storeRepository struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &storeRepository{db: db}
}

func (r *storeRepository) Create(ctx context.Context, store *models.Store) error {
	return conn(ctx, r.db).Omit("Owner").Create(store).Error
}

// FindByID loads the store with its owner (if any).
func (r *storeRepository) FindByID(ctx context.Context, id uint) (*models.Store, error) {
	var store models.Store
	if err := conn(ctx, r.db).Preload("Owner").First(&store, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &store, nil
}

// FindByOwner returns the lowest-id store owned by ownerID.
func (r *storeRepository) FindByOwner(ctx context.Context, ownerID uint) (*models.Store, error) {
	var store models.Store
	err := conn(ctx, r.db).Where("owner_id = ?", ownerID).Order("id ASC").First(&store).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &store, nil
}

func (r *storeRepository) CountByOwner(ctx context.Context, ownerID uint) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&models.Store{}).Where("owner_id = ?", ownerID).Count(&n).Error
	return n, err
}

func (r *storeRepository) Update(ctx context.Context, store *models.Store) error {
	res := conn(ctx, r.db).Model(store).
		Select("name", "email", "address", "owner_id", "updated_at").
		Updates(store)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the store; its ratings go with it through ON DELETE CASCADE.
func (r *storeRepository) Delete(ctx context.Context, id uint) error {
	res := conn(ctx, r.db).Delete(&models.Store{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *storeRepository) filtered(ctx context.Context, f StoreFilter) *gorm.DB {
	q := conn(ctx, r.db).Model(&models.Store{})
	if f.Name != "" {
		q = q.Where(`LOWER(stores.name) LIKE ? ESCAPE '\'`, query.Contains(f.Name))
	}
	if f.Email != "" {
		q = q.Where(`LOWER(stores.email) LIKE ? ESCAPE '\'`, query.Contains(f.Email))
	}
	if f.Address != "" {
		q = q.Where(`LOWER(stores.address) LIKE ? ESCAPE '\'`, query.Contains(f.Address))
	}
	return q
}

// List returns one page of stores with their rating totals, plus the total match count.
// average_rating is exposed as a column only so listings can sort on it.
func (r *storeRepository) List(ctx context.Context, f StoreFilter, p query.Params) ([]StoreRow, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := make([]StoreRow, 0, p.Limit)
	if int64(p.Offset()) >= total {
		return rows, total, nil
	}

	totals := conn(ctx, r.db).Model(&models.Rating{}).
		Select("store_id, COUNT(*) AS total_ratings, SUM(rating) AS rating_sum").
		Group("store_id")

	err := r.filtered(ctx, f).
		Select(`stores.id, stores.name, stores.email, stores.address, stores.owner_id,
			stores.created_at, stores.updated_at,
			owners.name AS owner_name, owners.email AS owner_email,
			COALESCE(rt.total_ratings, 0) AS total_ratings,
			COALESCE(rt.rating_sum, 0) AS rating_sum,
			CASE WHEN rt.total_ratings IS NULL THEN 0
				ELSE rt.rating_sum * 1.0 / rt.total_ratings END AS average_rating`).
		Joins("LEFT JOIN (?) AS rt ON rt.store_id = stores.id", totals).
		Joins("LEFT JOIN users AS owners ON owners.id = stores.owner_id").
		Order(p.OrderBy()).
		Limit(p.Limit).
		Offset(p.Offset()).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *storeRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&models.Store{}).Count(&n).Error
	return n, err
}
