//go:build integration

package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"storehub/database"
	"storehub/database/dbtest"
	"storehub/internal/microservices/http-api/models"
	"storehub/internal/microservices/http-api/query"
	"storehub/internal/microservices/http-api/repository"
)

func TestPostgres_SeedAndQuery(t *testing.T) {
	db := dbtest.NewPostgres(t)
	ctx := context.Background()
	d, err := Demo()
	require.NoError(t, err)
	require.NoError(t, Load(ctx, db, d, bcrypt.MinCost, zap.NewNop()))

	stores := repository.NewStoreRepository(db)
	p, err := query.Parse(query.Raw{SortBy: "averageRating", SortOrder: "DESC"}, query.StoreSorting)
	require.NoError(t, err)

	rows, total, err := stores.List(ctx, repository.StoreFilter{Name: "COFFEE"}, p)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(3), rows[0].TotalRatings)
	assert.Equal(t, int64(13), rows[0].RatingSum)

	// LIKE wildcards in the filter are matched literally
	_, total, err = stores.List(ctx, repository.StoreFilter{Name: "%"}, p)
	require.NoError(t, err)
	assert.Zero(t, total)

	users := repository.NewUserRepository(db)
	john, err := users.FindByEmail(ctx, "john.smith@email.com")
	require.NoError(t, err)

	ratings := repository.NewRatingRepository(db)
	existing, _, err := ratings.ListByUser(ctx, john.ID, query.MustDefault(query.RatingSorting, 1))
	require.NoError(t, err)
	require.NotEmpty(t, existing)

	dup := &models.Rating{UserID: john.ID, StoreID: existing[0].StoreID, Rating: 1}
	assert.True(t, repository.IsDuplicateKey(ratings.Create(ctx, dup)))

	// owners with stores cannot be removed out from under them
	sarah, err := users.FindByEmail(ctx, "sarah@bestcoffee.com")
	require.NoError(t, err)
	assert.True(t, repository.IsForeignKeyViolation(users.Delete(ctx, sarah.ID)))
}

func TestPostgres_RollbackAndReapply(t *testing.T) {
	db := dbtest.NewPostgres(t)
	log := zap.NewNop()

	require.NoError(t, database.Rollback(db, 0, log))
	assert.False(t, db.Migrator().HasTable("ratings"))

	require.NoError(t, database.Migrate(db, log))
	assert.True(t, db.Migrator().HasTable("ratings"))
	assert.True(t, db.Migrator().HasTable("refresh_tokens"))
}
