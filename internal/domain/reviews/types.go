package reviews

import (
	"time"

	"github.com/google/uuid"

	"voyago/internal/params"
	"voyago/internal/stats"
)

type Review struct {
	ID              uuid.UUID  `json:"id"`
	DestinationID   uuid.UUID  `json:"destination_id"`
	DestinationName string     `json:"destination_name"`
	GuideID         *uuid.UUID `json:"guide_id,omitempty" swaggertype:"string"`
	GuideName       *string    `json:"guide_name,omitempty" swaggertype:"string"`
	AuthorName      string     `json:"author_name"`
	Rating          int        `json:"rating"`
	Comment         string     `json:"comment"`
	Approved        bool       `json:"approved"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type Patch struct {
	Rating   *int
	Comment  *string
	Approved *bool
}

type Filter struct {
	DestinationID *uuid.UUID
	GuideID       *uuid.UUID
	Approved      *bool
	Pagination    params.Pagination
}

// Summary describes the approved reviews of the community page.
type Summary struct {
	Total        int64                    `json:"total"`
	Average      float64                  `json:"average"`
	Distribution stats.RatingDistribution `json:"distribution"`
}

// Stats is the admin review summary; the distribution covers approved reviews.
type Stats struct {
	Total        int64                    `json:"total"`
	Approved     int64                    `json:"approved"`
	Pending      int64                    `json:"pending"`
	Average      float64                  `json:"average"`
	Distribution stats.RatingDistribution `json:"distribution"`
}
