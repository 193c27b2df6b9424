package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"storehub/internal/microservices/http-api/dto"
	"storehub/internal/microservices/http-api/query"
	"storehub/internal/shared"
)

type MockStoreService struct {
	mock.Mock
}

func (m *MockStoreService) List(ctx context.Context, filter dto.StoreListQuery, p query.Params) (*dto.StoreListResponse, error) {
	args := m.Called(ctx, filter, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.StoreListResponse), args.Error(1)
}

func (m *MockStoreService) Get(ctx context.Context, id uint) (*dto.StoreDetailResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.StoreDetailResponse), args.Error(1)
}

func (m *MockStoreService) Create(ctx context.Context, actor shared.Actor, req dto.CreateStoreRequest) (*dto.StoreResponse, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.StoreResponse), args.Error(1)
}

func (m *MockStoreService) Update(ctx context.Context, actor shared.Actor, id uint, req dto.UpdateStoreRequest) (*dto.StoreResponse, error) {
	args := m.Called(ctx, actor, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.StoreResponse), args.Error(1)
}

func (m *MockStoreService) Delete(ctx context.Context, actor shared.Actor, id uint) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockStoreService) OwnerDashboard(ctx context.Context, actor shared.Actor, p query.Params) (*dto.OwnerDashboardResponse, error) {
	args := m.Called(ctx, actor, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.OwnerDashboardResponse), args.Error(1)
}

type MockRatingService struct {
	mock.Mock
}

func (m *MockRatingService) Submit(ctx context.Context, actor shared.Actor, req dto.SubmitRatingRequest) (*dto.SubmitRatingResult, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SubmitRatingResult), args.Error(1)
}

func (m *MockRatingService) Delete(ctx context.Context, actor shared.Actor, ratingID uint) error {
	return m.Called(ctx, actor, ratingID).Error(0)
}

func (m *MockRatingService) ListForStore(ctx context.Context, storeID uint, p query.Params) (*dto.StoreRatingsResponse, error) {
	args := m.Called(ctx, storeID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.StoreRatingsResponse), args.Error(1)
}

func (m *MockRatingService) ListMine(ctx context.Context, actor shared.Actor, p query.Params) (*dto.MyRatingsResponse, error) {
	args := m.Called(ctx, actor, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.MyRatingsResponse), args.Error(1)
}

func (m *MockRatingService) Stats(ctx context.Context, actor shared.Actor) (*dto.RatingStatsResponse, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RatingStatsResponse), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) List(ctx context.Context, actor shared.Actor, filter dto.UserListQuery, p query.Params) (*dto.UserListResponse, error) {
	args := m.Called(ctx, actor, filter, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UserListResponse), args.Error(1)
}

func (m *MockUserService) Get(ctx context.Context, actor shared.Actor, id uint) (*dto.UserDetailResponse, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UserDetailResponse), args.Error(1)
}

func (m *MockUserService) Create(ctx context.Context, actor shared.Actor, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UserResponse), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, actor shared.Actor, id uint, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	args := m.Called(ctx, actor, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UserResponse), args.Error(1)
}

func (m *MockUserService) Delete(ctx context.Context, actor shared.Actor, id uint) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockUserService) Stats(ctx context.Context, actor shared.Actor) (*dto.UserStatsResponse, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UserStatsResponse), args.Error(1)
}

type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) Dashboard(ctx context.Context, actor shared.Actor) (*dto.DashboardStats, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.DashboardStats), args.Error(1)
}
