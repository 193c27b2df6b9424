package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"storehub/internal/microservices/http-api/aggregate"
	"storehub/internal/microservices/http-api/dto"
	"storehub/internal/microservices/http-api/models"
	"storehub/internal/microservices/http-api/policy"
	"storehub/internal/microservices/http-api/query"
	"storehub/internal/microservices/http-api/repository"
	"storehub/internal/shared"
)

const (
	recentUsersSize   = 5
	activeRaterWindow = 30 * 24 * time.Hour
)

// UserService is the admin-facing user management API.
type UserService interface {
	List(ctx context.Context, actor shared.Actor, filter dto.UserListQuery, p query.Params) (*dto.UserListResponse, error)
	Get(ctx context.Context, actor shared.Actor, id uint) (*dto.UserDetailResponse, error)
	Create(ctx context.Context, actor shared.Actor, req dto.CreateUserRequest) (*dto.UserResponse, error)
	Update(ctx context.Context, actor shared.Actor, id uint, req dto.UpdateUserRequest) (*dto.UserResponse, error)
	Delete(ctx context.Context, actor shared.Actor, id uint) error
	Stats(ctx context.Context, actor shared.Actor) (*dto.UserStatsResponse, error)
}

type userService struct {
	users   repository.UserRepository
	stores  repository.StoreRepository
	ratings repository.RatingRepository
	tx      repository.Transactor
	pipe    *pipeline
	now     Clock
	log     *zap.Logger
}

func NewUserService(users repository.UserRepository, stores repository.StoreRepository, ratings repository.RatingRepository, tx repository.Transactor, bcryptCost int, now Clock, log *zap.Logger) UserService {
	if now == nil {
		now = systemClock
	}
	return &userService{
		users:   users,
		stores:  stores,
		ratings: ratings,
		tx:      tx,
		pipe:    newPipeline(bcryptCost),
		now:     now,
		log:     orNop(log),
	}
}

func requireAdmin(actor shared.Actor, op policy.Operation) error {
	if !policy.Allowed(actor, op, nil) {
		return ForbiddenError("admin access required")
	}
	return nil
}

func (s *userService) List(ctx context.Context, actor shared.Actor, filter dto.UserListQuery, p query.Params) (*dto.UserListResponse, error) {
	if err := requireAdmin(actor, policy.ListUsers); err != nil {
		return nil, err
	}
	role := shared.Role(filter.Role)
	if filter.Role != "" && !role.Valid() {
		return nil, ValidationError("validation failed", FieldError{Field: "role", Message: "role must be one of admin, user, store_owner"})
	}
	p = defaultParams(p, query.UserSorting)

	rows, total, err := s.users.List(ctx, repository.UserFilter{
		Name:    filter.Name,
		Email:   filter.Email,
		Address: filter.Address,
		Role:    role,
	}, p)
	if err != nil {
		return nil, fail(s.log, "user.list", err)
	}

	users := make([]dto.UserListItem, 0, len(rows))
	for _, r := range rows {
		users = append(users, dto.UserListItem{
			UserResponse: dto.UserResponse{
				ID:        r.ID,
				Name:      r.Name,
				Email:     r.Email,
				Address:   r.Address,
				Role:      r.Role,
				CreatedAt: r.CreatedAt,
				UpdatedAt: r.UpdatedAt,
			},
			TotalRatingsSubmitted: r.TotalRatings,
			AverageRatingGiven:    aggregate.Average(r.RatingSum, r.TotalRatings),
			HasStore:              r.StoreCount > 0,
		})
	}
	return &dto.UserListResponse{Users: users, Pagination: query.NewPagination(p, total)}, nil
}

// Get returns a user with their rating activity and, for store owners, their store's stats.
func (s *userService) Get(ctx context.Context, actor shared.Actor, id uint) (*dto.UserDetailResponse, error) {
	if err := requireAdmin(actor, policy.ViewUser); err != nil {
		return nil, err
	}

	var resp dto.UserDetailResponse
	err := s.tx.ReadSnapshot(ctx, func(ctx context.Context) error {
		user, err := s.users.FindByID(ctx, id)
		if err != nil {
			return notFoundOr(s.log, "user.get", "user not found", err)
		}
		given, err := s.ratings.UserTotals(ctx, id)
		if err != nil {
			return err
		}

		resp = dto.UserDetailResponse{
			UserResponse: dto.FromModelToUserResponse(user),
			Stats: dto.UserStats{
				TotalRatingsGiven:  given.Count,
				AverageRatingGiven: aggregate.Average(given.Sum, given.Count),
				AccountAge:         int(s.now().Sub(user.CreatedAt).Hours() / 24),
			},
		}
		if user.Role != shared.RoleStoreOwner {
			return nil
		}

		store, err := s.stores.FindByOwner(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		dist, err := s.ratings.Distribution(ctx, &store.ID)
		if err != nil {
			return err
		}
		resp.Stats.StoreStats = &dto.StoreStats{
			StoreID:              store.ID,
			StoreName:            store.Name,
			TotalRatingsReceived: dist.Total(),
			AverageStoreRating:   aggregate.Average(dist.Sum(), dist.Total()),
			RatingDistribution:   dist,
		}
		return nil
	})
	if err != nil {
		return nil, fail(s.log, "user.get", err)
	}
	return &resp, nil
}

// Create adds a user of any role. Role defaults to "user".
func (s *userService) Create(ctx context.Context, actor shared.Actor, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	if err := requireAdmin(actor, policy.CreateUser); err != nil {
		return nil, err
	}
	if req.Role == "" {
		req.Role = string(shared.RoleUser)
	}

	user, err := s.newUser(userInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Address:  req.Address,
		Role:     req.Role,
	})
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, ErrEmailInUse
		}
		return nil, fail(s.log, "user.create", err)
	}
	resp := dto.FromModelToUserResponse(user)
	return &resp, nil
}

// newUser runs the full write pipeline: sanitize, validate, hash.
func (s *userService) newUser(in userInput) (*models.User, error) {
	in.sanitize()
	if err := s.pipe.check(&in); err != nil {
		return nil, err
	}
	hash, err := s.pipe.hash(in.Password)
	if err != nil {
		return nil, err
	}
	return &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: hash,
		Address:  in.Address,
		Role:     shared.Role(in.Role),
	}, nil
}

// Update changes only the fields present in req.
func (s *userService) Update(ctx context.Context, actor shared.Actor, id uint, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if err := requireAdmin(actor, policy.UpdateUser); err != nil {
		return nil, err
	}

	var in userInput
	var fields []string
	if req.Name != nil {
		in.Name, fields = *req.Name, append(fields, "Name")
	}
	if req.Email != nil {
		in.Email, fields = *req.Email, append(fields, "Email")
	}
	if req.Password != nil {
		in.Password, fields = *req.Password, append(fields, "Password")
	}
	if req.Address != nil {
		in.Address, fields = *req.Address, append(fields, "Address")
	}
	if req.Role != nil {
		in.Role, fields = *req.Role, append(fields, "Role")
	}
	if len(fields) == 0 {
		return nil, ValidationError("no fields to update")
	}
	in.sanitize()
	if err := s.pipe.check(&in, qualify("userInput", fields)...); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(s.log, "user.update", "user not found", err)
	}

	if req.Role != nil && user.Role == shared.RoleStoreOwner && shared.Role(in.Role) != shared.RoleStoreOwner {
		owned, err := s.stores.CountByOwner(ctx, id)
		if err != nil {
			return nil, fail(s.log, "user.update", err)
		}
		if owned > 0 {
			return nil, ErrUserOwnsStore
		}
	}

	if req.Name != nil {
		user.Name = in.Name
	}
	if req.Email != nil {
		user.Email = in.Email
	}
	if req.Address != nil {
		user.Address = in.Address
	}
	if req.Role != nil {
		user.Role = shared.Role(in.Role)
	}
	if err := s.users.Update(ctx, user); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, ErrEmailInUse
		}
		return nil, notFoundOr(s.log, "user.update", "user not found", err)
	}

	if req.Password != nil {
		hash, err := s.pipe.hash(in.Password)
		if err != nil {
			return nil, err
		}
		if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
			return nil, notFoundOr(s.log, "user.update", "user not found", err)
		}
	}

	resp := dto.FromModelToUserResponse(user)
	return &resp, nil
}

// Delete removes a user with their ratings and tokens. Admins cannot delete themselves,
// and a user who still owns a store cannot be deleted.
func (s *userService) Delete(ctx context.Context, actor shared.Actor, id uint) error {
	if actor.IsAdmin() && actor.ID == id {
		return ErrSelfDeletion
	}
	if !policy.Allowed(actor, policy.DeleteUser, &id) {
		return ForbiddenError("admin access required")
	}

	if _, err := s.users.FindByID(ctx, id); err != nil {
		return notFoundOr(s.log, "user.delete", "user not found", err)
	}
	owned, err := s.stores.CountByOwner(ctx, id)
	if err != nil {
		return fail(s.log, "user.delete", err)
	}
	if owned > 0 {
		return ErrUserOwnsStore
	}

	if err := s.users.Delete(ctx, id); err != nil {
		// a store was assigned after the check above
		if repository.IsForeignKeyViolation(err) {
			return ErrUserOwnsStore
		}
		return notFoundOr(s.log, "user.delete", "user not found", err)
	}
	return nil
}

func (s *userService) Stats(ctx context.Context, actor shared.Actor) (*dto.UserStatsResponse, error) {
	if err := requireAdmin(actor, policy.ViewUserStats); err != nil {
		return nil, err
	}

	var resp dto.UserStatsResponse
	err := s.tx.ReadSnapshot(ctx, func(ctx context.Context) error {
		total, err := s.users.Count(ctx)
		if err != nil {
			return err
		}
		byRole, err := s.users.CountByRole(ctx)
		if err != nil {
			return err
		}
		recent, err := s.users.Recent(ctx, recentUsersSize)
		if err != nil {
			return err
		}
		active, err := s.ratings.CountRatersSince(ctx, s.now().Add(-activeRaterWindow))
		if err != nil {
			return err
		}

		recentUsers := make([]dto.UserResponse, 0, len(recent))
		for i := range recent {
			recentUsers = append(recentUsers, dto.FromModelToUserResponse(&recent[i]))
		}
		resp = dto.UserStatsResponse{
			TotalUsers:   total,
			UsersByRole:  dto.RoleCounts(byRole),
			RecentUsers:  recentUsers,
			ActiveRaters: active,
		}
		return nil
	})
	if err != nil {
		return nil, fail(s.log, "user.stats", err)
	}
	return &resp, nil
}
