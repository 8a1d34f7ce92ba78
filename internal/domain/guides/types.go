package guides

import (
	"time"

	"github.com/google/uuid"

	"voyago/internal/params"
)

type Guide struct {
	ID              uuid.UUID   `json:"id"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	Phone           *string     `json:"phone,omitempty" swaggertype:"string"`
	Bio             string      `json:"bio"`
	Languages       []string    `json:"languages"`
	Specialties     []string    `json:"specialties"`
	ExperienceYears int         `json:"experience_years"`
	ImageURL        *string     `json:"image_url,omitempty" swaggertype:"string"`
	Rating          float64     `json:"rating"`
	Available       bool        `json:"available"`
	DestinationIDs  []uuid.UUID `json:"destination_ids" swaggertype:"array,string"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Patch holds the columns to change. A non-nil DestinationIDs replaces the
// guide's assignments, an empty slice clears them.
type Patch struct {
	Name            *string
	Email           *string
	Phone           *string
	Bio             *string
	Languages       []string
	Specialties     []string
	ExperienceYears *int
	ImageURL        *string
	Rating          *float64
	Available       *bool
	DestinationIDs  *[]uuid.UUID
}

type Filter struct {
	Search        *string
	Available     *bool
	Language      *string
	DestinationID *uuid.UUID
	Pagination    params.Pagination
}
