package query

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	p, err := Parse(Raw{}, StoreSorting)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.Limit)
	assert.Equal(t, "name", p.SortBy)
	assert.Equal(t, Asc, p.Order)
	assert.Equal(t, 0, p.Offset())
	assert.Equal(t, "stores.name ASC, stores.id ASC", p.OrderBy())

	p, err = Parse(Raw{}, UserSorting)
	require.NoError(t, err)
	assert.Equal(t, "users.created_at DESC, users.id ASC", p.OrderBy())
}

func TestParse_Valid(t *testing.T) {
	p, err := Parse(Raw{Page: "3", Limit: "25", SortBy: "averageRating", SortOrder: "desc"}, StoreSorting)
	require.NoError(t, err)
	assert.Equal(t, 50, p.Offset())
	assert.Equal(t, Desc, p.Order)
	assert.Equal(t, "average_rating DESC, stores.id ASC", p.OrderBy())

	p, err = Parse(Raw{Limit: "100", SortBy: "rating", SortOrder: "Asc"}, RatingSorting)
	require.NoError(t, err)
	assert.Equal(t, 100, p.Limit)
	assert.Equal(t, "ratings.rating ASC, ratings.id ASC", p.OrderBy())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		raw   Raw
		sort  Sorting
		field string
	}{
		{"page zero", Raw{Page: "0"}, StoreSorting, "page"},
		{"page negative", Raw{Page: "-2"}, StoreSorting, "page"},
		{"page not integer", Raw{Page: "1.5"}, StoreSorting, "page"},
		{"page text", Raw{Page: "abc"}, StoreSorting, "page"},
		{"limit zero", Raw{Limit: "0"}, StoreSorting, "limit"},
		{"limit too large", Raw{Limit: "101"}, StoreSorting, "limit"},
		{"limit text", Raw{Limit: "ten"}, StoreSorting, "limit"},
		{"sort field not allowed", Raw{SortBy: "password"}, UserSorting, "sortBy"},
		{"store field on ratings", Raw{SortBy: "averageRating"}, RatingSorting, "sortBy"},
		{"sql in sort field", Raw{SortBy: "name; DROP TABLE users"}, StoreSorting, "sortBy"},
		{"bad order", Raw{SortOrder: "up"}, StoreSorting, "sortOrder"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw, tt.sort)
			var pe *ParamError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.field, pe.Field)
		})
	}
}

func TestParams_OffsetSaturates(t *testing.T) {
	p, err := Parse(Raw{Page: "922337203685477582", Limit: "10"}, StoreSorting)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, p.Offset())

	p, err = Parse(Raw{Page: strconv.Itoa(math.MaxInt), Limit: "100"}, StoreSorting)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, p.Offset())

	p, err = Parse(Raw{Page: strconv.Itoa(math.MaxInt/10 + 1), Limit: "10"}, StoreSorting)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt/10*10, p.Offset())

	assert.Zero(t, Params{}.Offset())
}

func TestParse_SortErrorListsAllowedFields(t *testing.T) {
	_, err := Parse(Raw{SortBy: "id"}, RatingSorting)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "createdAt, rating, updatedAt")
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		total int64
		limit int
		pages int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{100, 1, 100},
		{101, 100, 2},
	}
	for _, tt := range tests {
		p := Params{Page: 7, Limit: tt.limit}
		got := NewPagination(p, tt.total)
		assert.Equal(t, tt.pages, got.TotalPages, "total=%d limit=%d", tt.total, tt.limit)
		assert.Equal(t, 7, got.CurrentPage)
		assert.Equal(t, tt.total, got.TotalItems)
		assert.Equal(t, tt.limit, got.ItemsPerPage)
	}
}

func TestMustDefault(t *testing.T) {
	p := MustDefault(RatingSorting, 5)
	assert.Equal(t, 5, p.Limit)
	assert.Equal(t, "ratings.created_at DESC, ratings.id ASC", p.OrderBy())
}

func TestContains(t *testing.T) {
	assert.Equal(t, "%coffee%", Contains("  Coffee "))
	assert.Equal(t, `%100\%%`, Contains("100%"))
	assert.Equal(t, `%a\_b%`, Contains("a_b"))
	assert.Equal(t, `%c:\\dir%`, Contains(`C:\dir`))
}
