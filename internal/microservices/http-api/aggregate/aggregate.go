// Package aggregate derives rating statistics (average, count, distribution, top stores)
// from raw sums and counts read out of the ratings table. Nothing here touches storage.
package aggregate

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Average is sum/count rounded to one decimal place, half away from zero.
// A store with no ratings averages 0.
func Average(sum, count int64) float64 {
	if count <= 0 {
		return 0
	}
	return decimal.NewFromInt(sum).DivRound(decimal.NewFromInt(count), 1).InexactFloat64()
}

// Stats is the count/average pair attached to every store read.
type Stats struct {
	Count   int64   `json:"totalRatings"`
	Average float64 `json:"averageRating"`
}

func NewStats(sum, count int64) Stats {
	return Stats{Count: count, Average: Average(sum, count)}
}

// Distribution counts ratings per value 1..5. All five keys are always present.
type Distribution [MaxRating]int64

// NewDistribution builds a distribution from rating->count pairs; out-of-range keys are dropped.
func NewDistribution(counts map[int]int64) Distribution {
	var d Distribution
	for rating, n := range counts {
		if rating >= MinRating && rating <= MaxRating {
			d[rating-1] += n
		}
	}
	return d
}

func (d Distribution) Count(rating int) int64 {
	if rating < MinRating || rating > MaxRating {
		return 0
	}
	return d[rating-1]
}

func (d Distribution) Total() int64 {
	var n int64
	for _, c := range d {
		n += c
	}
	return n
}

// Sum is the total of all rating values, so Average(d.Sum(), d.Total()) is the mean.
func (d Distribution) Sum() int64 {
	var s int64
	for i, c := range d {
		s += int64(i+1) * c
	}
	return s
}

// MarshalJSON renders {"1":n,"2":n,"3":n,"4":n,"5":n}.
func (d Distribution) MarshalJSON() ([]byte, error) {
	m := make(map[string]int64, MaxRating)
	for i, c := range d {
		m[strconv.Itoa(i+1)] = c
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads the object form written by MarshalJSON. Unknown keys are ignored.
func (d *Distribution) UnmarshalJSON(data []byte) error {
	var m map[string]int64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*d = Distribution{}
	for k, c := range m {
		if rating, err := strconv.Atoi(k); err == nil && rating >= MinRating && rating <= MaxRating {
			d[rating-1] = c
		}
	}
	return nil
}

type Bucket struct {
	Rating int   `json:"rating"`
	Count  int64 `json:"count"`
}

// Buckets lists the distribution as rating/count pairs in ascending rating order.
func (d Distribution) Buckets() []Bucket {
	out := make([]Bucket, 0, MaxRating)
	for i, c := range d {
		out = append(out, Bucket{Rating: i + 1, Count: c})
	}
	return out
}

// StoreTotals is one store's raw rating totals.
type StoreTotals struct {
	StoreID uint
	Name    string
	Sum     int64
	Count   int64
}

type RankedStore struct {
	ID            uint    `json:"id"`
	Name          string  `json:"name"`
	AverageRating float64 `json:"averageRating"`
	TotalRatings  int64   `json:"totalRatings"`
}

// TopStores ranks stores by exact mean rating, highest first, ties by ascending id.
// Stores without ratings are never ranked.
func TopStores(stores []StoreTotals, n int) []RankedStore {
	rated := make([]StoreTotals, 0, len(stores))
	for _, s := range stores {
		if s.Count > 0 {
			rated = append(rated, s)
		}
	}

	sort.Slice(rated, func(i, j int) bool {
		a, b := rated[i], rated[j]
		// compare a.Sum/a.Count with b.Sum/b.Count without division
		lhs, rhs := a.Sum*b.Count, b.Sum*a.Count
		if lhs != rhs {
			return lhs > rhs
		}
		return a.StoreID < b.StoreID
	})

	if n >= 0 && len(rated) > n {
		rated = rated[:n]
	}
	out := make([]RankedStore, 0, len(rated))
	for _, s := range rated {
		out = append(out, RankedStore{
			ID:            s.StoreID,
			Name:          s.Name,
			AverageRating: Average(s.Sum, s.Count),
			TotalRatings:  s.Count,
		})
	}
	return out
}
