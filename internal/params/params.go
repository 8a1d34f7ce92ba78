package params

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 15
	MaxLimit     = 50
)

// URL: /admin/bookings?page=2&limit=30
// → ParsePagination() → Pagination{Limit:30, Page:2, Offset:30}
// → SQL: ... LIMIT 30 OFFSET 30, plus a COUNT(*) over the same filter
// → ComputeMeta(total) fills TotalPages, HasNext, HasPrev
type Pagination struct {
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
	Page       int  `json:"page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// ParsePagination parses ?limit=...&page=... leniently; bad values fall back
// to defaults. Keys are case sensitive.
func ParsePagination(q url.Values) Pagination {
	p := Pagination{
		Limit: DefaultLimit,
		Page:  1,
	}

	if limitStr := strings.TrimSpace(q.Get("limit")); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			switch {
			case limit <= 0:
				p.Limit = DefaultLimit
			case limit > MaxLimit:
				p.Limit = MaxLimit
			default:
				p.Limit = limit
			}
		}
	}

	if pageStr := strings.TrimSpace(q.Get("page")); pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil && page > 0 {
			p.Page = page
		}
	}

	p.Offset = (p.Page - 1) * p.Limit
	return p
}

// ComputeMeta updates pagination after fetching total count.
func (p *Pagination) ComputeMeta(total int) {
	p.Total = total
	if p.Limit > 0 {
		p.TotalPages = int(math.Ceil(float64(total) / float64(p.Limit)))
	}
	p.HasPrev = p.Page > 1
	p.HasNext = (p.Page * p.Limit) < total
}

// String returns the trimmed value of key, or nil when absent or blank.
func String(q url.Values, key string) *string {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil
	}
	return &v
}

// Bool parses an optional boolean. ok is false when the value is present but
// not a boolean.
func Bool(q url.Values, key string) (val *bool, ok bool) {
	s := strings.TrimSpace(q.Get(key))
	if s == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, false
	}
	return &b, true
}

// UUID parses an optional UUID.
func UUID(q url.Values, key string) (val *uuid.UUID, ok bool) {
	s := strings.TrimSpace(q.Get(key))
	if s == "" {
		return nil, true
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, false
	}
	return &id, true
}

// Date parses an optional YYYY-MM-DD value as a UTC date.
func Date(q url.Values, key string) (val *time.Time, ok bool) {
	s := strings.TrimSpace(q.Get(key))
	if s == "" {
		return nil, true
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return nil, false
	}
	return &t, true
}

// Year parses ?year=, defaulting to def. Years outside 2000..2100 are rejected.
func Year(q url.Values, def int) (int, bool) {
	s := strings.TrimSpace(q.Get("year"))
	if s == "" {
		return def, true
	}
	y, err := strconv.Atoi(s)
	if err != nil || y < 2000 || y > 2100 {
		return 0, false
	}
	return y, true
}

// Limit parses a bare ?limit= capped at max, used by non-paginated lists.
func Limit(q url.Values, def, max int) int {
	n, err := strconv.Atoi(strings.TrimSpace(q.Get("limit")))
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
