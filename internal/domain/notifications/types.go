package notifications

import (
	"time"

	"github.com/google/uuid"

	"voyago/internal/params"
)

const (
	TypeBooking = "booking"
	TypeReview  = "review"
	TypeContact = "contact"
	TypeSystem  = "system"
)

// Types lists every notification type in display order.
var Types = []string{TypeBooking, TypeReview, TypeContact, TypeSystem}

func ValidType(t string) bool {
	for _, v := range Types {
		if v == t {
			return true
		}
	}
	return false
}

type Notification struct {
	ID        uuid.UUID  `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	BookingID *uuid.UUID `json:"booking_id,omitempty" swaggertype:"string"`
	Read      bool       `json:"read"`
	CreatedAt time.Time  `json:"created_at"`
}

type Filter struct {
	Unread     bool
	Type       *string
	Pagination params.Pagination
}

// Stats is the admin notification summary.
type Stats struct {
	Total    int64            `json:"total"`
	Unread   int64            `json:"unread"`
	Read     int64            `json:"read"`
	ByType   map[string]int64 `json:"by_type"`
	LastWeek int64            `json:"last_7_days"`
}
