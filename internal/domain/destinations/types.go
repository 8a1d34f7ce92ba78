package destinations

import (
	"time"

	"github.com/google/uuid"

	"voyago/internal/params"
)

type Destination struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Country      string    `json:"country"`
	Description  string    `json:"description"`
	ImageURL     *string   `json:"image_url,omitempty" swaggertype:"string"`
	Price        float64   `json:"price"`
	DurationDays int       `json:"duration_days"`
	Rating       float64   `json:"rating"`
	Featured     bool      `json:"featured"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Patch struct {
	Name         *string
	Slug         *string
	Country      *string
	Description  *string
	ImageURL     *string
	Price        *float64
	DurationDays *int
	Rating       *float64
	Featured     *bool
}

// Sort keys accepted by List.
const (
	SortNewest    = "newest"
	SortName      = "name"
	SortPrice     = "price"
	SortPriceDesc = "price_desc"
	SortRating    = "rating"
)

var Sorts = []string{SortNewest, SortName, SortPrice, SortPriceDesc, SortRating}

type Filter struct {
	Search     *string
	Country    *string
	Featured   *bool
	Sort       string
	Pagination params.Pagination
}
