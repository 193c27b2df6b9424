package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"storehub/internal/microservices/http-api/aggregate"
	"storehub/internal/microservices/http-api/dto"
	"storehub/internal/microservices/http-api/policy"
	"storehub/internal/microservices/http-api/repository"
	"storehub/internal/shared"
)

const (
	topStoresSize        = 5
	recentActivityWindow = 7 * 24 * time.Hour
)

type AdminService interface {
	Dashboard(ctx context.Context, actor shared.Actor) (*dto.DashboardStats, error)
}

type adminService struct {
	users   repository.UserRepository
	stores  repository.StoreRepository
	ratings repository.RatingRepository
	tx      repository.Transactor
	now     Clock
	log     *zap.Logger
}

func NewAdminService(users repository.UserRepository, stores repository.StoreRepository, ratings repository.RatingRepository, tx repository.Transactor, now Clock, log *zap.Logger) AdminService {
	if now == nil {
		now = systemClock
	}
	return &adminService{users: users, stores: stores, ratings: ratings, tx: tx, now: now, log: orNop(log)}
}

// Dashboard computes the system-wide counters from one consistent snapshot.
func (s *adminService) Dashboard(ctx context.Context, actor shared.Actor) (*dto.DashboardStats, error) {
	if err := requireAdmin(actor, policy.ViewDashboard); err != nil {
		return nil, err
	}
	since := s.now().Add(-recentActivityWindow)

	var stats dto.DashboardStats
	err := s.tx.ReadSnapshot(ctx, func(ctx context.Context) error {
		var err error
		if stats.TotalUsers, err = s.users.Count(ctx); err != nil {
			return err
		}
		if stats.TotalStores, err = s.stores.Count(ctx); err != nil {
			return err
		}
		totals, err := s.ratings.GlobalTotals(ctx)
		if err != nil {
			return err
		}
		byRole, err := s.users.CountByRole(ctx)
		if err != nil {
			return err
		}
		if stats.RecentActivity.NewUsers, err = s.users.CountSince(ctx, since); err != nil {
			return err
		}
		if stats.RecentActivity.NewRatings, err = s.ratings.CountSince(ctx, since); err != nil {
			return err
		}
		perStore, err := s.ratings.TotalsPerStore(ctx)
		if err != nil {
			return err
		}

		stats.TotalRatings = totals.Count
		stats.AverageRating = aggregate.Average(totals.Sum, totals.Count)
		stats.UsersByRole = dto.RoleCounts(byRole)
		stats.TopStores = aggregate.TopStores(perStore, topStoresSize)
		return nil
	})
	if err != nil {
		return nil, fail(s.log, "admin.dashboard", err)
	}
	return &stats, nil
}
