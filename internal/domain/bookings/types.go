package bookings

import (
	"time"

	"github.com/google/uuid"

	"voyago/internal/params"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Statuses lists every booking status in lifecycle order.
var Statuses = []string{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted}

func ValidStatus(s string) bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// Booking is a trip reservation for one destination, optionally with a guide.
type Booking struct {
	ID              uuid.UUID  `json:"id"`
	Reference       string     `json:"reference"`
	CustomerName    string     `json:"customer_name"`
	CustomerEmail   string     `json:"customer_email"`
	CustomerPhone   *string    `json:"customer_phone,omitempty" swaggertype:"string"`
	DestinationID   uuid.UUID  `json:"destination_id" swaggertype:"string"`
	DestinationName string     `json:"destination_name,omitempty"`
	GuideID         *uuid.UUID `json:"guide_id,omitempty" swaggertype:"string"`
	GuideName       *string    `json:"guide_name,omitempty" swaggertype:"string"`
	StartDate       time.Time  `json:"start_date"`
	EndDate         time.Time  `json:"end_date"`
	Travelers       int        `json:"travelers"`
	Amount          float64    `json:"amount"`
	Status          string     `json:"status"`
	Notes           *string    `json:"notes,omitempty" swaggertype:"string"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Patch holds the columns to change; nil fields are left alone.
type Patch struct {
	CustomerName  *string
	CustomerEmail *string
	CustomerPhone *string
	DestinationID *uuid.UUID
	GuideID       *uuid.UUID
	ClearGuide    bool // sets guide_id to NULL; ignored when GuideID is set
	StartDate     *time.Time
	EndDate       *time.Time
	Travelers     *int
	Amount        *float64
	Status        *string
	Notes         *string
}

type Filter struct {
	Status        *string
	DestinationID *uuid.UUID
	GuideID       *uuid.UUID
	From          *time.Time // start_date >= From
	To            *time.Time // start_date <= To
	Search        *string    // customer name, email or reference
	Pagination    params.Pagination
}
