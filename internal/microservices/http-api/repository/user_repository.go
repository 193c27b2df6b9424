package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"storehub/internal/microservices/http-api/models"
	"storehub/internal/microservices/http-api/query"
	"storehub/internal/shared"
)

// UserFilter narrows user listings. Strings match case-insensitively anywhere in the column,
// Role matches exactly.
type UserFilter struct {
	Name    string
	Email   string
	Address string
	Role    shared.Role
}

// UserRow is a user listing row with its rating activity computed in the same statement.
type UserRow struct {
	ID           uint
	Name         string
	Email        string
	Address      string
	Role         shared.Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
	TotalRatings int64
	RatingSum    int64
	StoreCount   int64
}

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, f UserFilter, p query.Params) ([]UserRow, int64, error)
	Count(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	CountByRole(ctx context.Context) (map[shared.Role]int64, error)
	Recent(ctx context.Context, n int) ([]models.User, error)
}

// userRepository is the GORM implementation of UserRepository.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of UserRepository in a GORM implementation
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return conn(ctx, r.db).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := conn(ctx, r.db).First(&user, id).Error; err != nil {
		// never hand back a zero-value user with a nil error
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := conn(ctx, r.db).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// Update writes the profile columns; the password hash has its own method.
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	res := conn(ctx, r.db).Model(user).
		Select("name", "email", "address", "role", "updated_at").
		Updates(user)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	res := conn(ctx, r.db).Model(&models.User{}).Where("id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	res := conn(ctx, r.db).Delete(&models.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) filtered(ctx context.Context, f UserFilter) *gorm.DB {
	q := conn(ctx, r.db).Model(&models.User{})
	if f.Name != "" {
		q = q.Where(`LOWER(users.name) LIKE ? ESCAPE '\'`, query.Contains(f.Name))
	}
	if f.Email != "" {
		q = q.Where(`LOWER(users.email) LIKE ? ESCAPE '\'`, query.Contains(f.Email))
	}
	if f.Address != "" {
		q = q.Where(`LOWER(users.address) LIKE ? ESCAPE '\'`, query.Contains(f.Address))
	}
	if f.Role != "" {
		q = q.Where("users.role = ?", f.Role)
	}
	return q
}

// List returns one page of users plus the total match count.
func (r *userRepository) List(ctx context.Context, f UserFilter, p query.Params) ([]UserRow, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := make([]UserRow, 0, p.Limit)
	if int64(p.Offset()) >= total {
		return rows, total, nil
	}

	db := conn(ctx, r.db)
	given := db.Model(&models.Rating{}).
		Select("user_id, COUNT(*) AS total_ratings, SUM(rating) AS rating_sum").
		Group("user_id")
	owned := db.Model(&models.Store{}).
		Select("owner_id, COUNT(*) AS store_count").
		Where("owner_id IS NOT NULL").
		Group("owner_id")

	err := r.filtered(ctx, f).
		Select(`users.id, users.name, users.email, users.address, users.role, users.created_at, users.updated_at,
			COALESCE(ug.total_ratings, 0) AS total_ratings,
			COALESCE(ug.rating_sum, 0) AS rating_sum,
			COALESCE(us.store_count, 0) AS store_count`).
		Joins("LEFT JOIN (?) AS ug ON ug.user_id = users.id", given).
		Joins("LEFT JOIN (?) AS us ON us.owner_id = users.id", owned).
		Order(p.OrderBy()).
		Limit(p.Limit).
		Offset(p.Offset()).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&models.User{}).Count(&n).Error
	return n, err
}

func (r *userRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&models.User{}).Where("created_at >= ?", since).Count(&n).Error
	return n, err
}

// CountByRole always returns every role, zero when no user holds it.
func (r *userRepository) CountByRole(ctx context.Context) (map[shared.Role]int64, error) {
	var rows []struct {
		Role  shared.Role
		Count int64
	}
	err := conn(ctx, r.db).Model(&models.User{}).
		Select("role, COUNT(*) AS count").
		Group("role").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[shared.Role]int64, len(shared.Roles))
	for _, role := range shared.Roles {
		out[role] = 0
	}
	for _, row := range rows {
		out[row.Role] = row.Count
	}
	return out, nil
}

func (r *userRepository) Recent(ctx context.Context, n int) ([]models.User, error) {
	var users []models.User
	err := conn(ctx, r.db).Order("created_at DESC, id DESC").Limit(n).Find(&users).Error
	return users, err
}
