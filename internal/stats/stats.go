// Package stats holds the arithmetic behind the dashboard: growth rates,
// top-N rankings, zero-filled monthly series and rating summaries. It does no
// I/O; callers feed it rows produced by aggregate queries.
package stats

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// UnknownName labels a ranked entity whose record no longer exists.
const UnknownName = "Unknown"

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// GrowthRate is the percentage change from previous to current, rounded to
// one decimal. A zero previous period yields 100 when current is positive
// and 0 otherwise.
func GrowthRate(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return Round((current-previous)/previous*100, 1)
}

// Mean returns the arithmetic mean, or 0 for an empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// Sum adds values; an empty input sums to 0.
func Sum(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Sum(values)
}

// SafeDiv divides and returns 0 when the denominator is 0.
func SafeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// GroupCount is a grouped aggregate row: how many bookings (and how much
// revenue) one entity received.
type GroupCount struct {
	ID       uuid.UUID
	Bookings int64
	Revenue  float64
}

// Ranked is a GroupCount joined against the entity's display name.
type Ranked struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Bookings int64     `json:"bookings"`
	Revenue  float64   `json:"revenue"`
}

// TopN orders groups by booking count, highest first, keeping the input order
// for ties, and returns at most n entries. Names are looked up in names; a
// missing entry is labelled UnknownName.
func TopN(groups []GroupCount, n int, names map[uuid.UUID]string) []Ranked {
	if n <= 0 || len(groups) == 0 {
		return []Ranked{}
	}

	sorted := make([]GroupCount, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Bookings > sorted[j].Bookings
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}

	out := make([]Ranked, 0, len(sorted))
	for _, g := range sorted {
		name, ok := names[g.ID]
		if !ok || name == "" {
			name = UnknownName
		}
		out = append(out, Ranked{
			ID:       g.ID,
			Name:     name,
			Bookings: g.Bookings,
			Revenue:  Round(g.Revenue, 2),
		})
	}
	return out
}

// MonthBucket is one row of a GROUP BY month aggregate. Month is 1..12.
type MonthBucket struct {
	Month     int
	Bookings  int64
	Revenue   float64
	Travelers int64
}

// MonthPoint is one entry of a chart series.
type MonthPoint struct {
	Month     string  `json:"month"`
	Bookings  int64   `json:"bookings"`
	Revenue   float64 `json:"revenue"`
	Travelers int64   `json:"travelers"`
}

// MonthlySeries expands sparse buckets into exactly twelve points, January to
// December. Months without activity are zero; buckets outside 1..12 are
// ignored and repeated months are added together.
func MonthlySeries(buckets []MonthBucket) []MonthPoint {
	series := make([]MonthPoint, 12)
	for i := range series {
		series[i].Month = time.Month(i + 1).String()[:3]
	}

	for _, b := range buckets {
		if b.Month < 1 || b.Month > 12 {
			continue
		}
		p := &series[b.Month-1]
		p.Bookings += b.Bookings
		p.Revenue += b.Revenue
		p.Travelers += b.Travelers
	}

	for i := range series {
		series[i].Revenue = Round(series[i].Revenue, 2)
	}
	return series
}

// ZeroFill returns a copy of counts holding every key in keys, defaulting to 0.
// Keys not listed are kept as they are.
func ZeroFill(counts map[string]int64, keys []string) map[string]int64 {
	out := make(map[string]int64, len(keys)+len(counts))
	for _, k := range keys {
		out[k] = 0
	}
	for k, v := range counts {
		out[k] = v
	}
	return out
}

// RatedItem is a catalogue row reduced to what the summaries need. Flag is
// "featured" for destinations and "available" for guides.
type RatedItem struct {
	ID     uuid.UUID
	Name   string
	Rating float64
	Flag   bool
}

// CatalogSummary describes a set of rated catalogue entries.
type CatalogSummary struct {
	Total         int64   `json:"total"`
	Flagged       int64   `json:"flagged"`
	AverageRating float64 `json:"average_rating"`
}

// Summarize counts items and flagged items and averages ratings. Unrated
// items (rating 0) are left out of the average.
func Summarize(items []RatedItem) CatalogSummary {
	var s CatalogSummary
	ratings := make([]float64, 0, len(items))
	for _, it := range items {
		s.Total++
		if it.Flag {
			s.Flagged++
		}
		if it.Rating > 0 {
			ratings = append(ratings, it.Rating)
		}
	}
	s.AverageRating = Round(Mean(ratings), 1)
	return s
}

// Names indexes items by id.
func Names(items []RatedItem) map[uuid.UUID]string {
	m := make(map[uuid.UUID]string, len(items))
	for _, it := range items {
		m[it.ID] = it.Name
	}
	return m
}

// RatingDistribution is keyed "1".."5".
type RatingDistribution map[string]int64

// Distribution turns per-star counts into a zero-filled distribution and
// the weighted average rating.
func Distribution(perStar map[int]int64) (RatingDistribution, float64) {
	dist := RatingDistribution{"1": 0, "2": 0, "3": 0, "4": 0, "5": 0}
	var total, weighted float64
	for star, n := range perStar {
		if star < 1 || star > 5 {
			continue
		}
		dist[strconv.Itoa(star)] = n
		total += float64(n)
		weighted += float64(star) * float64(n)
	}
	return dist, Round(SafeDiv(weighted, total), 1)
}

// MonthBounds returns the start of now's calendar month and of the month
// before it, in now's location.
func MonthBounds(now time.Time) (currentStart, previousStart time.Time) {
	currentStart = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	previousStart = currentStart.AddDate(0, -1, 0)
	return currentStart, previousStart
}
