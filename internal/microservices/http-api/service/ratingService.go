package service

import (
	"context"
	"errors"
	"strings"

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
	maxUpsertAttempts = 3
	recentRatingsSize = 5
)

var errUpsertExhausted = errors.New("rating upsert: row vanished on every attempt")

type RatingService interface {
	Submit(ctx context.Context, actor shared.Actor, req dto.SubmitRatingRequest) (*dto.SubmitRatingResult, error)
	Delete(ctx context.Context, actor shared.Actor, ratingID uint) error
	ListForStore(ctx context.Context, storeID uint, p query.Params) (*dto.StoreRatingsResponse, error)
	ListMine(ctx context.Context, actor shared.Actor, p query.Params) (*dto.MyRatingsResponse, error)
	Stats(ctx context.Context, actor shared.Actor) (*dto.RatingStatsResponse, error)
}

type ratingService struct {
	ratings repository.RatingRepository
	stores  repository.StoreRepository
	tx      repository.Transactor
	pipe    *pipeline
	log     *zap.Logger
}

func NewRatingService(ratings repository.RatingRepository, stores repository.StoreRepository, tx repository.Transactor, log *zap.Logger) RatingService {
	return &ratingService{
		ratings: ratings,
		stores:  stores,
		tx:      tx,
		pipe:    newPipeline(0),
		log:     orNop(log),
	}
}

// Submit creates the caller's rating for a store, or replaces it if one exists.
// The insert goes first; a unique violation on (user_id, store_id) means another
// rating is already there, so it is updated in place instead.
func (s *ratingService) Submit(ctx context.Context, actor shared.Actor, req dto.SubmitRatingRequest) (*dto.SubmitRatingResult, error) {
	if !policy.Allowed(actor, policy.SubmitRating, nil) {
		return nil, ForbiddenError("only users can submit ratings")
	}

	in := ratingInput{Rating: req.Rating}
	if req.Comment != nil {
		in.Comment = strings.TrimSpace(*req.Comment)
	}
	if err := s.pipe.check(&in); err != nil {
		return nil, err
	}

	if _, err := s.stores.FindByID(ctx, req.StoreID); err != nil {
		return nil, notFoundOr(s.log, "rating.submit", "store not found", err)
	}

	var comment *string
	if in.Comment != "" {
		comment = &in.Comment
	}

	created, err := s.upsert(ctx, actor.ID, req.StoreID, in.Rating, comment)
	if err != nil {
		return nil, err
	}

	saved, err := s.ratings.FindByUserStore(ctx, actor.ID, req.StoreID)
	if err != nil {
		return nil, notFoundOr(s.log, "rating.submit", "rating not found", err)
	}

	result := &dto.SubmitRatingResult{
		Message: "Rating updated successfully",
		Rating:  dto.FromModelToRatingResponse(saved),
		Created: created,
	}
	if created {
		result.Message = "Rating submitted successfully"
	}
	return result, nil
}

func (s *ratingService) upsert(ctx context.Context, userID, storeID uint, value int, comment *string) (bool, error) {
	for attempt := 1; attempt <= maxUpsertAttempts; attempt++ {
		err := s.ratings.Create(ctx, &models.Rating{
			UserID:  userID,
			StoreID: storeID,
			Rating:  value,
			Comment: comment,
		})
		switch {
		case err == nil:
			return true, nil
		case repository.IsForeignKeyViolation(err):
			return false, s.missingReference(ctx, storeID)
		case !repository.IsDuplicateKey(err):
			return false, fail(s.log, "rating.insert", err)
		}

		n, err := s.ratings.UpdateByUserStore(ctx, userID, storeID, value, comment)
		if err != nil {
			return false, fail(s.log, "rating.update", err)
		}
		if n > 0 {
			return false, nil
		}
		s.log.Debug("rating disappeared before update, retrying insert",
			zap.Uint("user_id", userID), zap.Uint("store_id", storeID), zap.Int("attempt", attempt))
	}
	return false, fail(s.log, "rating.upsert", errUpsertExhausted)
}

// missingReference explains a foreign-key failure on insert: either the store was deleted
// after the existence check, or the caller's account was deleted while its token is still valid.
func (s *ratingService) missingReference(ctx context.Context, storeID uint) error {
	_, err := s.stores.FindByID(ctx, storeID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return NotFoundError("store not found")
	case err != nil:
		return fail(s.log, "rating.insert", err)
	}
	return UnauthorizedError("user account no longer exists")
}

// Delete removes a rating. Existence is checked before ownership.
func (s *ratingService) Delete(ctx context.Context, actor shared.Actor, ratingID uint) error {
	rating, err := s.ratings.FindByID(ctx, ratingID)
	if err != nil {
		return notFoundOr(s.log, "rating.delete", "rating not found", err)
	}
	if !policy.Allowed(actor, policy.DeleteRating, &rating.UserID) {
		return ForbiddenError("not authorized to delete this rating")
	}
	if err := s.ratings.Delete(ctx, ratingID); err != nil {
		return notFoundOr(s.log, "rating.delete", "rating not found", err)
	}
	return nil
}

// ListForStore returns one page of a store's ratings headed by the store's live stats,
// all read from the same snapshot.
func (s *ratingService) ListForStore(ctx context.Context, storeID uint, p query.Params) (*dto.StoreRatingsResponse, error) {
	p = defaultParams(p, query.RatingSorting)

	var resp dto.StoreRatingsResponse
	err := s.tx.ReadSnapshot(ctx, func(ctx context.Context) error {
		store, err := s.stores.FindByID(ctx, storeID)
		if err != nil {
			return notFoundOr(s.log, "rating.list_store", "store not found", err)
		}
		totals, err := s.ratings.StoreTotals(ctx, storeID)
		if err != nil {
			return err
		}
		ratings, total, err := s.ratings.ListByStore(ctx, storeID, p)
		if err != nil {
			return err
		}

		stats := aggregate.NewStats(totals.Sum, totals.Count)
		resp = dto.StoreRatingsResponse{
			Store: dto.StoreSummary{
				ID:            store.ID,
				Name:          store.Name,
				AverageRating: stats.Average,
				TotalRatings:  stats.Count,
			},
			Ratings:    dto.FromModelsToRatingResponses(ratings),
			Pagination: query.NewPagination(p, total),
		}
		return nil
	})
	if err != nil {
		return nil, fail(s.log, "rating.list_store", err)
	}
	return &resp, nil
}

func (s *ratingService) ListMine(ctx context.Context, actor shared.Actor, p query.Params) (*dto.MyRatingsResponse, error) {
	p = defaultParams(p, query.RatingSorting)

	ratings, total, err := s.ratings.ListByUser(ctx, actor.ID, p)
	if err != nil {
		return nil, fail(s.log, "rating.list_mine", err)
	}
	return &dto.MyRatingsResponse{
		Ratings:    dto.FromModelsToRatingResponses(ratings),
		Pagination: query.NewPagination(p, total),
	}, nil
}

// Stats summarises every rating in the system.
func (s *ratingService) Stats(ctx context.Context, actor shared.Actor) (*dto.RatingStatsResponse, error) {
	if !policy.Allowed(actor, policy.ViewRatingStats, nil) {
		return nil, ForbiddenError("admin access required")
	}

	var resp dto.RatingStatsResponse
	err := s.tx.ReadSnapshot(ctx, func(ctx context.Context) error {
		totals, err := s.ratings.GlobalTotals(ctx)
		if err != nil {
			return err
		}
		dist, err := s.ratings.Distribution(ctx, nil)
		if err != nil {
			return err
		}
		recent, err := s.ratings.Recent(ctx, recentRatingsSize)
		if err != nil {
			return err
		}

		resp = dto.RatingStatsResponse{
			TotalRatings:       totals.Count,
			AverageRating:      aggregate.Average(totals.Sum, totals.Count),
			RatingDistribution: dist.Buckets(),
			RecentRatings:      dto.FromModelsToRatingResponses(recent),
		}
		return nil
	})
	if err != nil {
		return nil, fail(s.log, "rating.stats", err)
	}
	return &resp, nil
}
