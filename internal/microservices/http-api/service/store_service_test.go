package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storehub/internal/microservices/http-api/dto"
	"storehub/internal/microservices/http-api/models"
	"storehub/internal/microservices/http-api/query"
	"storehub/internal/shared"
)

var adminActor = shared.Actor{ID: 1000, Role: shared.RoleAdmin}

func (f *fixture) rate(u *models.User, s *models.Store, value int) {
	require.NoError(f.t, f.ratings.Create(f.ctx, &models.Rating{UserID: u.ID, StoreID: s.ID, Rating: value}))
}

func TestStoreService_Create(t *testing.T) {
	f := newFixture(t)
	svc := NewStoreService(f.stores, f.users, f.ratings, f.tx, nil)
	owner := f.user(shared.RoleStoreOwner)
	plain := f.user(shared.RoleUser)

	valid := dto.CreateStoreRequest{
		Name:    "  Best   Coffee Shop In Town  ",
		Email:   "Hello@BestCoffee.com",
		Address: "12 Roast Avenue",
		OwnerID: &owner.ID,
	}
	resp, err := svc.Create(f.ctx, adminActor, valid)
	require.NoError(t, err)
	assert.Equal(t, "Best Coffee Shop In Town", resp.Name)
	assert.Equal(t, "hello@bestcoffee.com", resp.Email)
	require.NotNil(t, resp.Owner)
	assert.Equal(t, owner.ID, resp.Owner.ID)
	assert.Zero(t, resp.TotalRatings)

	t.Run("admin only", func(t *testing.T) {
		_, err := svc.Create(f.ctx, actorOf(owner), valid)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("short name", func(t *testing.T) {
		req := valid
		req.Name = "Tiny"
		_, err := svc.Create(f.ctx, adminActor, req)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown owner", func(t *testing.T) {
		req := valid
		req.OwnerID = ptr(uint(9999))
		_, err := svc.Create(f.ctx, adminActor, req)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("owner must have store_owner role", func(t *testing.T) {
		req := valid
		req.OwnerID = &plain.ID
		_, err := svc.Create(f.ctx, adminActor, req)
		require.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, "ownerId", AsAppError(err).Fields[0].Field)
	})

	t.Run("unassigned", func(t *testing.T) {
		req := valid
		req.OwnerID = nil
		resp, err := svc.Create(f.ctx, adminActor, req)
		require.NoError(t, err)
		assert.Nil(t, resp.OwnerID)
		assert.Nil(t, resp.Owner)
	})
}

func TestStoreService_GetAndList(t *testing.T) {
	f := newFixture(t)
	svc := NewStoreService(f.stores, f.users, f.ratings, f.tx, nil)
	busy, quiet := f.store(nil), f.store(nil)
	for _, v := range []int{5, 4, 4, 2} {
		f.rate(f.user(shared.RoleUser), busy, v)
	}

	detail, err := svc.Get(f.ctx, busy.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), detail.TotalRatings)
	assert.Equal(t, 3.8, detail.AverageRating)
	assert.Equal(t, int64(2), detail.RatingDistribution.Count(4))

	raw, err := json.Marshal(detail)
	require.NoError(t, err)
	assert.JSONEq(t, `{"1":0,"2":1,"3":0,"4":2,"5":1}`, string(mustField(t, raw, "ratingDistribution")))

	empty, err := svc.Get(f.ctx, quiet.ID)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalRatings)
	assert.Zero(t, empty.AverageRating)

	_, err = svc.Get(f.ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	p, err := query.Parse(query.Raw{SortBy: "averageRating", SortOrder: "DESC"}, query.StoreSorting)
	require.NoError(t, err)
	list, err := svc.List(f.ctx, dto.StoreListQuery{}, p)
	require.NoError(t, err)
	require.Len(t, list.Stores, 2)
	assert.Equal(t, busy.ID, list.Stores[0].ID)
	assert.Equal(t, 3.8, list.Stores[0].AverageRating)
	assert.Equal(t, int64(2), list.Pagination.TotalItems)

	list, err = svc.List(f.ctx, dto.StoreListQuery{Name: busy.Name[len(busy.Name)-3:]}, query.Params{})
	require.NoError(t, err)
	require.Len(t, list.Stores, 1)
	assert.Equal(t, busy.ID, list.Stores[0].ID)
}

func mustField(t *testing.T, raw []byte, key string) json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	v, ok := m[key]
	require.True(t, ok, "missing %q", key)
	return v
}

func TestStoreService_Update(t *testing.T) {
	f := newFixture(t)
	svc := NewStoreService(f.stores, f.users, f.ratings, f.tx, nil)
	owner, rival := f.user(shared.RoleStoreOwner), f.user(shared.RoleStoreOwner)
	store := f.store(owner)

	t.Run("owner edits own store", func(t *testing.T) {
		resp, err := svc.Update(f.ctx, actorOf(owner), store.ID, dto.UpdateStoreRequest{Address: ptr("99 New Address Lane")})
		require.NoError(t, err)
		assert.Equal(t, "99 New Address Lane", resp.Address)
		assert.Equal(t, store.Name, resp.Name)
		require.NotNil(t, resp.OwnerID)
		assert.Equal(t, owner.ID, *resp.OwnerID)
	})

	t.Run("other owner is forbidden", func(t *testing.T) {
		_, err := svc.Update(f.ctx, actorOf(rival), store.ID, dto.UpdateStoreRequest{Address: ptr("x")})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("owner cannot reassign", func(t *testing.T) {
		req := dto.UpdateStoreRequest{OwnerID: dto.OptionalID{Set: true, Value: &rival.ID}}
		_, err := svc.Update(f.ctx, actorOf(owner), store.ID, req)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("missing store before ownership", func(t *testing.T) {
		_, err := svc.Update(f.ctx, actorOf(rival), 9999, dto.UpdateStoreRequest{Address: ptr("x")})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("invalid field", func(t *testing.T) {
		_, err := svc.Update(f.ctx, adminActor, store.ID, dto.UpdateStoreRequest{Email: ptr("not-an-email")})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("admin reassigns then unassigns", func(t *testing.T) {
		resp, err := svc.Update(f.ctx, adminActor, store.ID, dto.UpdateStoreRequest{OwnerID: dto.OptionalID{Set: true, Value: &rival.ID}})
		require.NoError(t, err)
		require.NotNil(t, resp.Owner)
		assert.Equal(t, rival.ID, resp.Owner.ID)

		var req dto.UpdateStoreRequest
		require.NoError(t, json.Unmarshal([]byte(`{"ownerId":null}`), &req))
		resp, err = svc.Update(f.ctx, adminActor, store.ID, req)
		require.NoError(t, err)
		assert.Nil(t, resp.OwnerID)
		assert.Nil(t, resp.Owner)

		reloaded, err := f.stores.FindByID(f.ctx, store.ID)
		require.NoError(t, err)
		assert.Nil(t, reloaded.OwnerID)
	})
}

func TestStoreService_DeleteCascadesRatings(t *testing.T) {
	f := newFixture(t)
	svc := NewStoreService(f.stores, f.users, f.ratings, f.tx, nil)
	store := f.store(nil)
	f.rate(f.user(shared.RoleUser), store, 3)

	assert.ErrorIs(t, svc.Delete(f.ctx, shared.Actor{ID: 1, Role: shared.RoleUser}, store.ID), ErrForbidden)
	require.NoError(t, svc.Delete(f.ctx, adminActor, store.ID))
	assert.ErrorIs(t, svc.Delete(f.ctx, adminActor, store.ID), ErrNotFound)

	var n int64
	require.NoError(t, f.db.Model(&models.Rating{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestStoreService_OwnerDashboard(t *testing.T) {
	f := newFixture(t)
	svc := NewStoreService(f.stores, f.users, f.ratings, f.tx, nil)
	owner, storeless := f.user(shared.RoleStoreOwner), f.user(shared.RoleStoreOwner)
	store := f.store(owner)
	for _, v := range []int{1, 5, 5} {
		f.rate(f.user(shared.RoleUser), store, v)
	}

	resp, err := svc.OwnerDashboard(f.ctx, actorOf(owner), query.Params{})
	require.NoError(t, err)
	assert.Equal(t, store.ID, resp.Store.ID)
	assert.Equal(t, 3.7, resp.Store.AverageRating) // 11/3
	assert.Equal(t, int64(2), resp.Store.RatingDistribution.Count(5))
	assert.Len(t, resp.Ratings, 3)
	for _, r := range resp.Ratings {
		require.NotNil(t, r.User)
		assert.NotEmpty(t, r.User.Email)
	}

	_, err = svc.OwnerDashboard(f.ctx, actorOf(storeless), query.Params{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.OwnerDashboard(f.ctx, shared.Actor{ID: owner.ID, Role: shared.RoleUser}, query.Params{})
	assert.ErrorIs(t, err, ErrForbidden)
}
