package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"storehub/internal/microservices/http-api/aggregate"
	"storehub/internal/microservices/http-api/models"
	"storehub/internal/microservices/http-api/query"
)

// Totals is the raw sum and count of a set of ratings.
type Totals struct {
	Sum   int64
	Count int64
}

type RatingRepository interface {
	Create(ctx context.Context, rating *models.Rating) error
	// UpdateByUserStore replaces the rating value, and the comment when comment is non-nil,
	// of the (userID, storeID) row. It reports how many rows matched.
	UpdateByUserStore(ctx context.Context, userID, storeID uint, value int, comment *string) (int64, error)
	FindByID(ctx context.Context, id uint) (*models.Rating, error)
	FindByUserStore(ctx context.Context, userID, storeID uint) (*models.Rating, error)
	Delete(ctx context.Context, id uint) error
	ListByStore(ctx context.Context, storeID uint, p query.Params) ([]models.Rating, int64, error)
	ListByUser(ctx context.Context, userID uint, p query.Params) ([]models.Rating, int64, error)
	StoreTotals(ctx context.Context, storeID uint) (Totals, error)
	UserTotals(ctx context.Context, userID uint) (Totals, error)
	GlobalTotals(ctx context.Context) (Totals, error)
	// Distribution counts ratings per value for one store, or globally when storeID is nil.
	Distribution(ctx context.Context, storeID *uint) (aggregate.Distribution, error)
	TotalsPerStore(ctx context.Context) ([]aggregate.StoreTotals, error)
	Recent(ctx context.Context, n int) ([]models.Rating, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	CountRatersSince(ctx context.Context, since time.Time) (int64, error)
}

type ratingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

// Create inserts a new rating. A second rating for the same (user, store) fails with a
// duplicate-key error (see IsDuplicateKey).
func (r *ratingRepository) Create(ctx context.Context, rating *models.Rating) error {
	return conn(ctx, r.db).Omit("User", "Store").Create(rating).Error
}

func (r *ratingRepository) UpdateByUserStore(ctx context.Context, userID, storeID uint, value int, comment *string) (int64, error) {
	fields := map[string]any{
		"rating":     value,
		"updated_at": time.Now(),
	}
	if comment != nil {
		fields["comment"] = *comment
	}
	res := conn(ctx, r.db).Model(&models.Rating{}).
		Where("user_id = ? AND store_id = ?", userID, storeID).
		Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *ratingRepository) FindByID(ctx context.Context, id uint) (*models.Rating, error) {
	var rating models.Rating
	if err := conn(ctx, r.db).First(&rating, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &rating, nil
}

// FindByUserStore loads the rating with the denormalised user and store names.
func (r *ratingRepository) FindByUserStore(ctx context.Context, userID, storeID uint) (*models.Rating, error) {
	var rating models.Rating
	err := conn(ctx, r.db).
		Preload("User", selectColumns("id", "name")).
		Preload("Store", selectColumns("id", "name")).
		Where("user_id = ? AND store_id = ?", userID, storeID).
		First(&rating).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &rating, nil
}

func (r *ratingRepository) Delete(ctx context.Context, id uint) error {
	res := conn(ctx, r.db).Delete(&models.Rating{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByStore returns one page of a store's ratings with each author's id, name and email.
func (r *ratingRepository) ListByStore(ctx context.Context, storeID uint, p query.Params) ([]models.Rating, int64, error) {
	return r.page(ctx, conn(ctx, r.db).Where("ratings.store_id = ?", storeID), p,
		"User", selectColumns("id", "name", "email"))
}

// ListByUser returns one page of a user's ratings with the rated store attached.
func (r *ratingRepository) ListByUser(ctx context.Context, userID uint, p query.Params) ([]models.Rating, int64, error) {
	return r.page(ctx, conn(ctx, r.db).Where("ratings.user_id = ?", userID), p,
		"Store", selectColumns("id", "name", "address", "email"))
}

func (r *ratingRepository) page(ctx context.Context, scope *gorm.DB, p query.Params, preload string, cols func(*gorm.DB) *gorm.DB) ([]models.Rating, int64, error) {
	var total int64
	if err := scope.Session(&gorm.Session{}).Model(&models.Rating{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	ratings := make([]models.Rating, 0, p.Limit)
	if int64(p.Offset()) >= total {
		return ratings, total, nil
	}

	err := scope.Session(&gorm.Session{}).
		Preload(preload, cols).
		Order(p.OrderBy()).
		Limit(p.Limit).
		Offset(p.Offset()).
		Find(&ratings).Error
	if err != nil {
		return nil, 0, err
	}
	return ratings, total, nil
}

func (r *ratingRepository) totals(ctx context.Context, where string, args ...any) (Totals, error) {
	var t Totals
	q := conn(ctx, r.db).Model(&models.Rating{}).
		Select("COUNT(*) AS count, COALESCE(SUM(rating), 0) AS sum")
	if where != "" {
		q = q.Where(where, args...)
	}
	err := q.Scan(&t).Error
	return t, err
}

func (r *ratingRepository) StoreTotals(ctx context.Context, storeID uint) (Totals, error) {
	return r.totals(ctx, "store_id = ?", storeID)
}

func (r *ratingRepository) UserTotals(ctx context.Context, userID uint) (Totals, error) {
	return r.totals(ctx, "user_id = ?", userID)
}

func (r *ratingRepository) GlobalTotals(ctx context.Context) (Totals, error) {
	return r.totals(ctx, "")
}

func (r *ratingRepository) Distribution(ctx context.Context, storeID *uint) (aggregate.Distribution, error) {
	var rows []struct {
		Rating int
		Count  int64
	}
	q := conn(ctx, r.db).Model(&models.Rating{}).
		Select("rating, COUNT(*) AS count").
		Group("rating")
	if storeID != nil {
		q = q.Where("store_id = ?", *storeID)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return aggregate.Distribution{}, err
	}

	counts := make(map[int]int64, len(rows))
	for _, row := range rows {
		counts[row.Rating] = row.Count
	}
	return aggregate.NewDistribution(counts), nil
}

// TotalsPerStore returns the totals of every store that has at least one rating.
func (r *ratingRepository) TotalsPerStore(ctx context.Context) ([]aggregate.StoreTotals, error) {
	var rows []aggregate.StoreTotals
	err := conn(ctx, r.db).Model(&models.Rating{}).
		Select("ratings.store_id AS store_id, stores.name AS name, SUM(ratings.rating) AS sum, COUNT(*) AS count").
		Joins("JOIN stores ON stores.id = ratings.store_id").
		Group("ratings.store_id, stores.name").
		Scan(&rows).Error
	return rows, err
}

// Recent returns the n most recently submitted ratings with user and store names.
func (r *ratingRepository) Recent(ctx context.Context, n int) ([]models.Rating, error) {
	var ratings []models.Rating
	err := conn(ctx, r.db).
		Preload("User", selectColumns("id", "name")).
		Preload("Store", selectColumns("id", "name")).
		Order("created_at DESC, id DESC").
		Limit(n).
		Find(&ratings).Error
	return ratings, err
}

func (r *ratingRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&models.Rating{}).Where("created_at >= ?", since).Count(&n).Error
	return n, err
}

// CountRatersSince counts distinct users who submitted or changed a rating since the given time.
func (r *ratingRepository) CountRatersSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&models.Rating{}).
		Where("updated_at >= ?", since).
		Distinct("user_id").
		Count(&n).Error
	return n, err
}

func selectColumns(cols ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Select(cols)
	}
}
