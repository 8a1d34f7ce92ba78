package dashboard

import (
	"time"

	"voyago/internal/domain/bookings"
	"voyago/internal/domain/reviews"
	"voyago/internal/stats"
)

// BookingTotals are lifetime booking aggregates. Revenue counts confirmed and
// completed bookings; Travelers counts every booking that was not cancelled.
type BookingTotals struct {
	Bookings  int64
	Pending   int64
	Revenue   float64
	Paid      int64 // bookings contributing to Revenue
	Travelers int64
}

// PeriodTotals are the same aggregates restricted to bookings created in a
// time window.
type PeriodTotals struct {
	Bookings  int64
	Revenue   float64
	Travelers int64
}

type Totals struct {
	Bookings             int64   `json:"bookings"`
	PendingBookings      int64   `json:"pending_bookings"`
	Destinations         int64   `json:"destinations"`
	FeaturedDestinations int64   `json:"featured_destinations"`
	Guides               int64   `json:"guides"`
	AvailableGuides      int64   `json:"available_guides"`
	Reviews              int64   `json:"reviews"`
	Revenue              float64 `json:"revenue"`
	Travelers            int64   `json:"travelers"`
}

type Averages struct {
	DestinationRating float64 `json:"destination_rating"`
	GuideRating       float64 `json:"guide_rating"`
	BookingValue      float64 `json:"booking_value"`
}

// Growth holds month-over-month percentage changes.
type Growth struct {
	Bookings  float64 `json:"bookings"`
	Revenue   float64 `json:"revenue"`
	Travelers float64 `json:"travelers"`
}

type Overview struct {
	Totals          Totals             `json:"totals"`
	Averages        Averages           `json:"averages"`
	Growth          Growth             `json:"growth"`
	ByStatus        map[string]int64   `json:"bookings_by_status"`
	TopDestinations []stats.Ranked     `json:"top_destinations"`
	TopGuides       []stats.Ranked     `json:"top_guides"`
	Year            int                `json:"year"`
	Monthly         []stats.MonthPoint `json:"monthly"`
	RecentBookings  []bookings.Booking `json:"recent_bookings"`
	GeneratedAt     time.Time          `json:"generated_at"`
}

type BookingStats struct {
	Total           int64              `json:"total"`
	Revenue         float64            `json:"revenue"`
	Travelers       int64              `json:"travelers"`
	AverageValue    float64            `json:"average_value"`
	ByStatus        map[string]int64   `json:"by_status"`
	Growth          Growth             `json:"growth"`
	Year            int                `json:"year"`
	Monthly         []stats.MonthPoint `json:"monthly"`
	TopDestinations []stats.Ranked     `json:"top_destinations"`
	TopGuides       []stats.Ranked     `json:"top_guides"`
}

type DestinationStats struct {
	Total         int64          `json:"total"`
	Featured      int64          `json:"featured"`
	AverageRating float64        `json:"average_rating"`
	TopByBookings []stats.Ranked `json:"top_by_bookings"`
}

type GuideStats struct {
	Total         int64          `json:"total"`
	Available     int64          `json:"available"`
	AverageRating float64        `json:"average_rating"`
	TopByBookings []stats.Ranked `json:"top_by_bookings"`
}

type ReviewStats = reviews.Stats
