// Package query turns raw list parameters (page, limit, sortBy, sortOrder) into validated,
// SQL-ready paging and ordering, and builds pagination metadata for list responses.
package query

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

type Order string

const (
	Asc  Order = "ASC"
	Desc Order = "DESC"
)

// ParamError reports a single invalid list parameter.
type ParamError struct {
	Field   string
	Message string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Sorting describes the sortable fields of one entity.
// Columns maps the public field name to the SQL expression it orders by.
type Sorting struct {
	Columns      map[string]string
	DefaultField string
	DefaultOrder Order
	// Tiebreak is appended to every ORDER BY so equal keys page deterministically.
	Tiebreak string
}

// Fields returns the allowed public sort fields, sorted.
func (s Sorting) Fields() []string {
	out := make([]string, 0, len(s.Columns))
	for k := range s.Columns {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var (
	UserSorting = Sorting{
		Columns: map[string]string{
			"name":      "users.name",
			"email":     "users.email",
			"role":      "users.role",
			"createdAt": "users.created_at",
		},
		DefaultField: "createdAt",
		DefaultOrder: Desc,
		Tiebreak:     "users.id ASC",
	}

	StoreSorting = Sorting{
		Columns: map[string]string{
			"name":          "stores.name",
			"email":         "stores.email",
			"address":       "stores.address",
			"createdAt":     "stores.created_at",
			"averageRating": "average_rating",
			"totalRatings":  "total_ratings",
		},
		DefaultField: "name",
		DefaultOrder: Asc,
		Tiebreak:     "stores.id ASC",
	}

	RatingSorting = Sorting{
		Columns: map[string]string{
			"rating":    "ratings.rating",
			"createdAt": "ratings.created_at",
			"updatedAt": "ratings.updated_at",
		},
		DefaultField: "createdAt",
		DefaultOrder: Desc,
		Tiebreak:     "ratings.id ASC",
	}
)

// Raw holds list parameters exactly as received on the query string.
type Raw struct {
	Page      string `form:"page"`
	Limit     string `form:"limit"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
}

// Params is a validated page request.
type Params struct {
	Page   int
	Limit  int
	SortBy string
	Order  Order

	column   string
	tiebreak string
}

// Parse validates raw against the entity's sorting rules and applies defaults.
func Parse(raw Raw, s Sorting) (Params, error) {
	p := Params{Page: DefaultPage, Limit: DefaultLimit, SortBy: s.DefaultField, Order: s.DefaultOrder}

	if v := strings.TrimSpace(raw.Page); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Params{}, &ParamError{Field: "page", Message: "page must be a positive integer"}
		}
		p.Page = n
	}
	if v := strings.TrimSpace(raw.Limit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxLimit {
			return Params{}, &ParamError{Field: "limit", Message: fmt.Sprintf("limit must be between 1 and %d", MaxLimit)}
		}
		p.Limit = n
	}
	if v := strings.TrimSpace(raw.SortBy); v != "" {
		if _, ok := s.Columns[v]; !ok {
			return Params{}, &ParamError{
				Field:   "sortBy",
				Message: "sort field must be one of: " + strings.Join(s.Fields(), ", "),
			}
		}
		p.SortBy = v
	}
	if v := strings.TrimSpace(raw.SortOrder); v != "" {
		switch Order(strings.ToUpper(v)) {
		case Asc:
			p.Order = Asc
		case Desc:
			p.Order = Desc
		default:
			return Params{}, &ParamError{Field: "sortOrder", Message: "sort order must be ASC or DESC"}
		}
	}

	p.column = s.Columns[p.SortBy]
	p.tiebreak = s.Tiebreak
	return p, nil
}

// MustDefault returns the default params for s; used by callers that take no list input.
func MustDefault(s Sorting, limit int) Params {
	p, _ := Parse(Raw{}, s)
	if limit > 0 && limit <= MaxLimit {
		p.Limit = limit
	}
	return p
}

// Offset is (page-1)*limit, saturating at math.MaxInt so a huge page lands past the end
// instead of wrapping around.
func (p Params) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// OrderBy is the ORDER BY clause. Only allow-listed columns ever reach it.
func (p Params) OrderBy() string {
	clause := p.column + " " + string(p.Order)
	if p.tiebreak != "" {
		clause += ", " + p.tiebreak
	}
	return clause
}

// Pagination is the metadata echoed with every list response.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
}

func NewPagination(p Params, total int64) Pagination {
	pages := 0
	if p.Limit > 0 {
		pages = int(math.Ceil(float64(total) / float64(p.Limit)))
	}
	return Pagination{
		CurrentPage:  p.Page,
		TotalPages:   pages,
		TotalItems:   total,
		ItemsPerPage: p.Limit,
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Contains returns a lower-cased LIKE pattern matching s anywhere, with wildcards in s escaped.
// Pair it with `LOWER(col) LIKE ? ESCAPE '\'`.
func Contains(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}
