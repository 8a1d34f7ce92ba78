package params

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query  string
		limit  int
		page   int
		offset int
	}{
		{"", DefaultLimit, 1, 0},
		{"page=3&limit=10", 10, 3, 20},
		{"limit=500", MaxLimit, 1, 0},
		{"limit=-4&page=0", DefaultLimit, 1, 0},
		{"limit=abc&page=xyz", DefaultLimit, 1, 0},
	}

	for _, tt := range tests {
		q, _ := url.ParseQuery(tt.query)
		p := ParsePagination(q)
		assert.Equal(t, tt.limit, p.Limit, tt.query)
		assert.Equal(t, tt.page, p.Page, tt.query)
		assert.Equal(t, tt.offset, p.Offset, tt.query)
	}
}

func TestComputeMeta(t *testing.T) {
	p := Pagination{Limit: 10, Page: 2, Offset: 10}
	p.ComputeMeta(25)

	assert.Equal(t, 25, p.Total)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasPrev)
	assert.True(t, p.HasNext)

	p = Pagination{Limit: 10, Page: 1}
	p.ComputeMeta(0)
	assert.Zero(t, p.TotalPages)
	assert.False(t, p.HasNext)
	assert.False(t, p.HasPrev)
}

func TestOptionalParams(t *testing.T) {
	q := url.Values{
		"featured": {"true"},
		"broken":   {"maybe"},
		"id":       {"not-a-uuid"},
		"from":     {"2026-02-01"},
		"search":   {"  lisbon "},
	}

	b, ok := Bool(q, "featured")
	assert.True(t, ok)
	assert.True(t, *b)

	_, ok = Bool(q, "broken")
	assert.False(t, ok)

	missing, ok := Bool(q, "absent")
	assert.True(t, ok)
	assert.Nil(t, missing)

	_, ok = UUID(q, "id")
	assert.False(t, ok)

	from, ok := Date(q, "from")
	assert.True(t, ok)
	assert.Equal(t, 2, int(from.Month()))

	assert.Equal(t, "lisbon", *String(q, "search"))
	assert.Nil(t, String(q, "absent"))
}

func TestYearAndLimit(t *testing.T) {
	y, ok := Year(url.Values{}, 2026)
	assert.True(t, ok)
	assert.Equal(t, 2026, y)

	_, ok = Year(url.Values{"year": {"1999"}}, 2026)
	assert.False(t, ok)

	assert.Equal(t, 6, Limit(url.Values{}, 6, 20))
	assert.Equal(t, 20, Limit(url.Values{"limit": {"99"}}, 6, 20))
	assert.Equal(t, 3, Limit(url.Values{"limit": {"3"}}, 6, 20))
}
