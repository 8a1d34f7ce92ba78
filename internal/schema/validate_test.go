package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBooking() BookingInput {
	return BookingInput{
		CustomerName:  "Mara Lopes",
		CustomerEmail: "mara@example.com",
		DestinationID: "5b1f8a4e-3c1d-4e8a-9a52-7f0f3c2d1b6e",
		StartDate:     "2026-07-01",
		EndDate:       "2026-07-06",
		Travelers:     2,
		Amount:        900,
	}
}

func fields(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}

func TestValidateBooking(t *testing.T) {
	require.NoError(t, Validate(validBooking()))

	tests := []struct {
		name   string
		mutate func(*BookingInput)
		field  string
		msg    string
	}{
		{"missing name", func(b *BookingInput) { b.CustomerName = "" }, "customer_name", "is required"},
		{"short name", func(b *BookingInput) { b.CustomerName = "M" }, "customer_name", "must be at least 2 characters"},
		{"bad email", func(b *BookingInput) { b.CustomerEmail = "nope" }, "customer_email", "must be a valid email address"},
		{"bad destination", func(b *BookingInput) { b.DestinationID = "123" }, "destination_id", "must be a valid UUID"},
		{"bad date", func(b *BookingInput) { b.StartDate = "01/07/2026" }, "start_date", "must be a date in YYYY-MM-DD format"},
		{"end before start", func(b *BookingInput) { b.EndDate = "2026-06-30" }, "end_date", "must not be before start_date"},
		{"too many travelers", func(b *BookingInput) { b.Travelers = 51 }, "travelers", "must be at most 50"},
		{"negative amount", func(b *BookingInput) { b.Amount = -1 }, "amount", "must be greater than or equal to 0"},
		{"unknown status", func(b *BookingInput) { s := "paid"; b.Status = &s }, "status", "must be one of: pending, confirmed, cancelled, completed"},
		{"bad phone", func(b *BookingInput) { p := "call me"; b.CustomerPhone = &p }, "customer_phone", "must be a valid phone number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validBooking()
			tt.mutate(&in)
			got := fields(t, Validate(in))
			assert.Equal(t, tt.msg, got[tt.field], got)
		})
	}
}

func TestValidateSameDayTrip(t *testing.T) {
	in := validBooking()
	in.EndDate = in.StartDate
	assert.NoError(t, Validate(in))
}

func TestValidateBookingUpdateDates(t *testing.T) {
	start, end := "2026-07-10", "2026-07-01"
	got := fields(t, Validate(BookingUpdate{StartDate: &start, EndDate: &end}))
	assert.Contains(t, got, "end_date")

	// one date alone is left to the handler
	assert.NoError(t, Validate(BookingUpdate{EndDate: &end}))
}

func TestValidateDestination(t *testing.T) {
	in := DestinationInput{
		Name:         "Lisbon",
		Slug:         "lisbon-old-town",
		Country:      "Portugal",
		Description:  "Tiles, trams and custard tarts.",
		Price:        450,
		DurationDays: 5,
	}
	require.NoError(t, Validate(in))

	in.Slug = "Lisbon--Old"
	rating := 5.5
	in.Rating = &rating
	got := fields(t, Validate(in))
	assert.Contains(t, got, "slug")
	assert.Equal(t, "must be less than or equal to 5", got["rating"])
}

func TestValidateGuideLanguages(t *testing.T) {
	in := GuideInput{Name: "Ana", Email: "ana@voyago.travel"}
	got := fields(t, Validate(in))
	assert.Contains(t, got, "languages")

	in.Languages = []string{"pt", "en"}
	in.DestinationIDs = []string{"not-a-uuid"}
	got = fields(t, Validate(in))
	assert.Contains(t, got, "destination_ids[0]")
}

func TestValidateNotificationType(t *testing.T) {
	in := NotificationInput{Type: "promo", Title: "Hi", Message: "Hello"}
	got := fields(t, Validate(in))
	assert.Contains(t, got["type"], "booking")

	in.Type = "system"
	assert.NoError(t, Validate(in))
}

func TestRequireAny(t *testing.T) {
	assert.Error(t, RequireAny(&ReviewUpdate{}))

	approved := true
	assert.NoError(t, RequireAny(&ReviewUpdate{Approved: &approved}))

	ids := []string{}
	assert.NoError(t, RequireAny(&GuideUpdate{DestinationIDs: &ids}))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "kyoto-nara", Slugify("Kyoto & Nara"))
	assert.Equal(t, "sao-tome-2026", Slugify("  Sao Tome 2026!  "))
	assert.Equal(t, "", Slugify("!!!"))
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"b": "is required", "a": "is invalid"}}
	assert.Equal(t, "validation failed: a is invalid; b is required", err.Error())
}
