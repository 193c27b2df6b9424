package service

import (
	"context"

	"go.uber.org/zap"

	"storehub/internal/microservices/http-api/aggregate"
	"storehub/internal/microservices/http-api/dto"
	"storehub/internal/microservices/http-api/models"
	"storehub/internal/microservices/http-api/policy"
	"storehub/internal/microservices/http-api/query"
	"storehub/internal/microservices/http-api/repository"
	"storehub/internal/shared"
)

type StoreService interface {
	List(ctx context.Context, filter dto.StoreListQuery, p query.Params) (*dto.StoreListResponse, error)
	Get(ctx context.Context, id uint) (*dto.StoreDetailResponse, error)
	Create(ctx context.Context, actor shared.Actor, req dto.CreateStoreRequest) (*dto.StoreResponse, error)
	Update(ctx context.Context, actor shared.Actor, id uint, req dto.UpdateStoreRequest) (*dto.StoreResponse, error)
	Delete(ctx context.Context, actor shared.Actor, id uint) error
	OwnerDashboard(ctx context.Context, actor shared.Actor, p query.Params) (*dto.OwnerDashboardResponse, error)
}

type storeService struct {
	stores  repository.StoreRepository
	users   repository.UserRepository
	ratings repository.RatingRepository
	tx      repository.Transactor
	pipe    *pipeline
	log     *zap.Logger
}

func NewStoreService(stores repository.StoreRepository, users repository.UserRepository, ratings repository.RatingRepository, tx repository.Transactor, log *zap.Logger) StoreService {
	return &storeService{
		stores:  stores,
		users:   users,
		ratings: ratings,
		tx:      tx,
		pipe:    newPipeline(0),
		log:     orNop(log),
	}
}

// List returns one page of stores; each row carries its live rating totals.
func (s *storeService) List(ctx context.Context, filter dto.StoreListQuery, p query.Params) (*dto.StoreListResponse, error) {
	p = defaultParams(p, query.StoreSorting)

	rows, total, err := s.stores.List(ctx, repository.StoreFilter{
		Name:    filter.Name,
		Email:   filter.Email,
		Address: filter.Address,
	}, p)
	if err != nil {
		return nil, fail(s.log, "store.list", err)
	}

	stores := make([]dto.StoreResponse, 0, len(rows))
	for _, row := range rows {
		stores = append(stores, dto.FromStoreRow(row))
	}
	return &dto.StoreListResponse{Stores: stores, Pagination: query.NewPagination(p, total)}, nil
}

func (s *storeService) Get(ctx context.Context, id uint) (*dto.StoreDetailResponse, error) {
	var resp *dto.StoreDetailResponse
	err := s.tx.ReadSnapshot(ctx, func(ctx context.Context) error {
		store, err := s.stores.FindByID(ctx, id)
		if err != nil {
			return notFoundOr(s.log, "store.get", "store not found", err)
		}
		resp, err = s.detail(ctx, store)
		return err
	})
	if err != nil {
		return nil, fail(s.log, "store.get", err)
	}
	return resp, nil
}

// detail attaches stats and distribution; both come from one grouped query so they agree.
func (s *storeService) detail(ctx context.Context, store *models.Store) (*dto.StoreDetailResponse, error) {
	dist, err := s.ratings.Distribution(ctx, &store.ID)
	if err != nil {
		return nil, err
	}
	stats := aggregate.NewStats(dist.Sum(), dist.Total())
	return &dto.StoreDetailResponse{
		StoreResponse:      dto.FromModelToStoreResponse(store, stats),
		RatingDistribution: dist,
	}, nil
}

func (s *storeService) Create(ctx context.Context, actor shared.Actor, req dto.CreateStoreRequest) (*dto.StoreResponse, error) {
	if !policy.Allowed(actor, policy.CreateStore, nil) {
		return nil, ForbiddenError("admin access required")
	}

	in := storeInput{Name: req.Name, Email: req.Email, Address: req.Address}
	in.sanitize()
	if err := s.pipe.check(&in); err != nil {
		return nil, err
	}

	var owner *models.User
	if req.OwnerID != nil {
		var err error
		if owner, err = s.checkOwner(ctx, *req.OwnerID); err != nil {
			return nil, err
		}
	}

	store := &models.Store{
		Name:    in.Name,
		Email:   in.Email,
		Address: in.Address,
		OwnerID: req.OwnerID,
	}
	if err := s.stores.Create(ctx, store); err != nil {
		if repository.IsForeignKeyViolation(err) {
			return nil, NotFoundError("owner not found")
		}
		return nil, fail(s.log, "store.create", err)
	}
	store.Owner = owner

	resp := dto.FromModelToStoreResponse(store, aggregate.Stats{})
	return &resp, nil
}

// checkOwner makes sure id names an existing store_owner.
func (s *storeService) checkOwner(ctx context.Context, id uint) (*models.User, error) {
	owner, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(s.log, "store.owner", "owner not found", err)
	}
	if owner.Role != shared.RoleStoreOwner {
		return nil, ValidationError("validation failed", FieldError{
			Field:   "ownerId",
			Message: "user must have store_owner role",
		})
	}
	return owner, nil
}

// Update applies a partial update. Admins may edit any store; an owner may edit only
// their own store and may not hand it to someone else.
func (s *storeService) Update(ctx context.Context, actor shared.Actor, id uint, req dto.UpdateStoreRequest) (*dto.StoreResponse, error) {
	var in storeInput
	var fields []string
	if req.Name != nil {
		in.Name, fields = *req.Name, append(fields, "Name")
	}
	if req.Email != nil {
		in.Email, fields = *req.Email, append(fields, "Email")
	}
	if req.Address != nil {
		in.Address, fields = *req.Address, append(fields, "Address")
	}
	in.sanitize()
	if len(fields) > 0 {
		if err := s.pipe.check(&in, qualify("storeInput", fields)...); err != nil {
			return nil, err
		}
	}

	store, err := s.stores.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(s.log, "store.update", "store not found", err)
	}
	if !policy.Allowed(actor, policy.UpdateStore, store.OwnerID) {
		return nil, ForbiddenError("not authorized to update this store")
	}
	if req.OwnerID.Set && !policy.Allowed(actor, policy.ReassignStoreOwner, nil) {
		return nil, ForbiddenError("only admins can change a store's owner")
	}

	owner := store.Owner
	if req.OwnerID.Set {
		owner = nil
		if req.OwnerID.Value != nil {
			if owner, err = s.checkOwner(ctx, *req.OwnerID.Value); err != nil {
				return nil, err
			}
		}
		store.OwnerID = req.OwnerID.Value
	}
	if req.Name != nil {
		store.Name = in.Name
	}
	if req.Email != nil {
		store.Email = in.Email
	}
	if req.Address != nil {
		store.Address = in.Address
	}

	store.Owner = nil
	if err := s.stores.Update(ctx, store); err != nil {
		if repository.IsForeignKeyViolation(err) {
			return nil, NotFoundError("owner not found")
		}
		return nil, notFoundOr(s.log, "store.update", "store not found", err)
	}
	store.Owner = owner

	totals, err := s.ratings.StoreTotals(ctx, store.ID)
	if err != nil {
		return nil, fail(s.log, "store.update", err)
	}
	resp := dto.FromModelToStoreResponse(store, aggregate.NewStats(totals.Sum, totals.Count))
	return &resp, nil
}

// Delete removes a store together with its ratings.
func (s *storeService) Delete(ctx context.Context, actor shared.Actor, id uint) error {
	if !policy.Allowed(actor, policy.DeleteStore, nil) {
		return ForbiddenError("admin access required")
	}
	if err := s.stores.Delete(ctx, id); err != nil {
		return notFoundOr(s.log, "store.delete", "store not found", err)
	}
	return nil
}

// OwnerDashboard shows a store owner their store, its stats and a page of its ratings.
func (s *storeService) OwnerDashboard(ctx context.Context, actor shared.Actor, p query.Params) (*dto.OwnerDashboardResponse, error) {
	if !policy.Allowed(actor, policy.ViewOwnStore, nil) {
		return nil, ForbiddenError("store owner access required")
	}
	p = defaultParams(p, query.RatingSorting)

	var resp dto.OwnerDashboardResponse
	err := s.tx.ReadSnapshot(ctx, func(ctx context.Context) error {
		store, err := s.stores.FindByOwner(ctx, actor.ID)
		if err != nil {
			return notFoundOr(s.log, "store.dashboard", "no store is assigned to you", err)
		}
		detail, err := s.detail(ctx, store)
		if err != nil {
			return err
		}
		ratings, total, err := s.ratings.ListByStore(ctx, store.ID, p)
		if err != nil {
			return err
		}
		resp = dto.OwnerDashboardResponse{
			Store:      *detail,
			Ratings:    dto.FromModelsToRatingResponses(ratings),
			Pagination: query.NewPagination(p, total),
		}
		return nil
	})
	if err != nil {
		return nil, fail(s.log, "store.dashboard", err)
	}
	return &resp, nil
}

// qualify prefixes field names the way validator.StructPartial expects them.
func qualify(structName string, fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = structName + "." + f
	}
	return out
}
