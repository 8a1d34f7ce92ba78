package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voyago/internal/db"
	"voyago/internal/domain/bookings"
	"voyago/internal/domain/destinations"
	"voyago/internal/events"
	"voyago/internal/ratelimiter"
)

// fakeDestinations serves one destination and counts list queries.
type fakeDestinations struct {
	destinations.Store
	dest      *destinations.Destination
	lists     int
	deleteErr error
	listErr   error
}

func (f *fakeDestinations) GetByID(_ context.Context, id uuid.UUID) (*destinations.Destination, error) {
	if f.dest != nil && f.dest.ID == id {
		return f.dest, nil
	}
	return nil, db.ErrNotFound
}

func (f *fakeDestinations) List(context.Context, destinations.Filter) ([]destinations.Destination, int, error) {
	f.lists++
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	return []destinations.Destination{*f.dest}, 1, nil
}

func (f *fakeDestinations) Create(_ context.Context, d *destinations.Destination) error {
	d.ID = uuid.New()
	return nil
}

func (f *fakeDestinations) Delete(context.Context, uuid.UUID) error { return f.deleteErr }

// fakeBookings keeps bookings in memory.
type fakeBookings struct {
	bookings.Store
	byID       map[uuid.UUID]*bookings.Booking
	lastPatch  bookings.Patch
	refLookups int
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{byID: map[uuid.UUID]*bookings.Booking{}}
}

func (f *fakeBookings) Create(_ context.Context, b *bookings.Booking) error {
	b.ID = uuid.New()
	b.Reference = "VYG-TEST0001"
	f.byID[b.ID] = b
	return nil
}

func (f *fakeBookings) GetByID(_ context.Context, id uuid.UUID) (*bookings.Booking, error) {
	if b, ok := f.byID[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, db.ErrNotFound
}

func (f *fakeBookings) GetByReference(_ context.Context, ref string) (*bookings.Booking, error) {
	f.refLookups++
	for _, b := range f.byID {
		if b.Reference == ref {
			cp := *b
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeBookings) Update(_ context.Context, id uuid.UUID, p bookings.Patch) (*bookings.Booking, string, error) {
	f.lastPatch = p
	b, ok := f.byID[id]
	if !ok {
		return nil, "", db.ErrNotFound
	}
	previous := b.Status
	if p.GuideID != nil {
		b.GuideID = p.GuideID
	} else if p.ClearGuide {
		b.GuideID = nil
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.StartDate != nil {
		b.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		b.EndDate = *p.EndDate
	}
	cp := *b
	return &cp, previous, nil
}

func lisbon() *destinations.Destination {
	return &destinations.Destination{ID: uuid.New(), Name: "Lisbon", Slug: "lisbon", Country: "Portugal", Price: 450.5, DurationDays: 5}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)
	dests := &fakeDestinations{dest: lisbon()}
	env.store.Destinations = dests

	for _, authz := range []string{"", "Bearer nope", "Token abc", "Basic b3BzOnNlY3JldA=="} {
		rr := env.do(t, http.MethodGet, "/v1/admin/destinations", authz, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, authz)
	}
	assert.Zero(t, dests.lists)

	rr := env.do(t, http.MethodGet, "/v1/admin/destinations", env.staffAuth, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, 1, dests.lists)
}

func TestTokenForUnknownAdmin(t *testing.T) {
	env := newTestEnv(t)
	env.store.Destinations = &fakeDestinations{dest: lisbon()}

	ghost := *env.admin
	ghost.ID = uuid.New()
	rr := env.do(t, http.MethodGet, "/v1/admin/me", bearer(t, env.app.authenticator, &ghost), "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/v1/admin/me", env.adminAuth, "")
	require.Equal(t, http.StatusOK, rr.Code)

	me := decode[map[string]any](t, rr)
	assert.Equal(t, env.admin.Email, me["email"])
	assert.NotContains(t, me, "password")
}

func TestListDestinationsEnvelope(t *testing.T) {
	env := newTestEnv(t)
	env.store.Destinations = &fakeDestinations{dest: lisbon()}

	rr := env.do(t, http.MethodGet, "/v1/destinations?page=1&limit=10", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	type page struct {
		Items      []destinations.Destination `json:"items"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	got := decode[page](t, rr)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Lisbon", got.Items[0].Name)
	assert.Equal(t, 1, got.Pagination.Total)
}

func TestListDestinationsBadSort(t *testing.T) {
	env := newTestEnv(t)
	dests := &fakeDestinations{dest: lisbon()}
	env.store.Destinations = dests

	rr := env.do(t, http.MethodGet, "/v1/destinations?sort=cheapest", "", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Zero(t, dests.lists)
}

func TestStoreFailureHidesDetail(t *testing.T) {
	env := newTestEnv(t)
	env.store.Destinations = &fakeDestinations{dest: lisbon(), listErr: errors.New("pq: connection reset")}

	rr := env.do(t, http.MethodGet, "/v1/destinations", "", "")
	require.Equal(t, http.StatusInternalServerError, rr.Code)

	body := decodeError(t, rr)
	assert.False(t, body.Success)
	assert.Equal(t, "the server encountered a problem", body.Message)
	assert.NotContains(t, rr.Body.String(), "pq:")
}

func TestCreateDestinationValidation(t *testing.T) {
	env := newTestEnv(t)
	env.store.Destinations = &fakeDestinations{}

	rr := env.do(t, http.MethodPost, "/v1/admin/destinations", env.adminAuth,
		`{"name":"X","country":"Portugal","description":"short","duration_days":0}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	body := decodeError(t, rr)
	assert.Contains(t, body.Errors, "name")
	assert.Contains(t, body.Errors, "description")
	assert.Contains(t, body.Errors, "duration_days")
	assert.NotContains(t, body.Errors, "country")
}

func TestCreateDestinationDerivesSlug(t *testing.T) {
	env := newTestEnv(t)
	env.store.Destinations = &fakeDestinations{}

	rr := env.do(t, http.MethodPost, "/v1/admin/destinations", env.adminAuth,
		`{"name":"Kyoto & Nara","country":"Japan","description":"Temples, tea and deer parks.","price":1200,"duration_days":7}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	d := decode[destinations.Destination](t, rr)
	assert.Equal(t, "kyoto-nara", d.Slug)
	assert.NotEqual(t, uuid.Nil, d.ID)
}

func TestUnknownFieldRejected(t *testing.T) {
	env := newTestEnv(t)
	env.store.Destinations = &fakeDestinations{}

	rr := env.do(t, http.MethodPost, "/v1/admin/destinations", env.adminAuth, `{"name":"Kyoto","hacker":true}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeleteDestination(t *testing.T) {
	tests := []struct {
		name      string
		staff     bool
		deleteErr error
		want      int
	}{
		{name: "admin", want: http.StatusNoContent},
		{name: "staff forbidden", staff: true, want: http.StatusForbidden},
		{name: "has bookings", deleteErr: db.ErrInUse, want: http.StatusConflict},
		{name: "missing", deleteErr: db.ErrNotFound, want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.store.Destinations = &fakeDestinations{deleteErr: tt.deleteErr}

			authz := env.adminAuth
			if tt.staff {
				authz = env.staffAuth
			}
			rr := env.do(t, http.MethodDelete, "/v1/admin/destinations/"+uuid.NewString(), authz, "")
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
		})
	}
}

func TestInvalidIDParam(t *testing.T) {
	env := newTestEnv(t)
	env.store.Destinations = &fakeDestinations{}

	rr := env.do(t, http.MethodGet, "/v1/admin/destinations/not-a-uuid", env.adminAuth, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func bookingRequest(destID uuid.UUID, extra string) string {
	return fmt.Sprintf(`{"customer_name":"Mara Lopes","customer_email":"Mara@Example.com","destination_id":%q,`+
		`"start_date":"2026-07-01","end_date":"2026-07-06","travelers":3,"amount":1%s}`, destID, extra)
}

func TestRequestBooking(t *testing.T) {
	env := newTestEnv(t)
	dest := lisbon()
	env.store.Destinations = &fakeDestinations{dest: dest}
	bks := newFakeBookings()
	env.store.Bookings = bks

	rr := env.do(t, http.MethodPost, "/v1/bookings/request", "", bookingRequest(dest.ID, `,"status":"confirmed"`))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	b := decode[bookings.Booking](t, rr)
	assert.Equal(t, bookings.StatusPending, b.Status)
	assert.InDelta(t, 1351.5, b.Amount, 0.001)
	assert.Equal(t, "mara@example.com", b.CustomerEmail)
	assert.Equal(t, "VYG-TEST0001", b.Reference)

	published := env.events.published()
	require.Len(t, published, 1)
	assert.Equal(t, events.TypeBookingCreated, published[0].Type)
	assert.Equal(t, b.ID, published[0].BookingID)
}

func TestRequestBookingUnknownDestination(t *testing.T) {
	env := newTestEnv(t)
	env.store.Destinations = &fakeDestinations{}
	env.store.Bookings = newFakeBookings()

	rr := env.do(t, http.MethodPost, "/v1/bookings/request", "", bookingRequest(uuid.New(), ""))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeError(t, rr).Errors, "destination_id")
	assert.Empty(t, env.events.published())
}

func TestRequestBookingDateOrder(t *testing.T) {
	env := newTestEnv(t)
	dest := lisbon()
	env.store.Destinations = &fakeDestinations{dest: dest}
	env.store.Bookings = newFakeBookings()

	body := fmt.Sprintf(`{"customer_name":"Mara","customer_email":"m@example.com","destination_id":%q,`+
		`"start_date":"2026-07-06","end_date":"2026-07-01","travelers":1}`, dest.ID)
	rr := env.do(t, http.MethodPost, "/v1/bookings/request", "", body)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeError(t, rr).Errors, "end_date")
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	env := newTestEnv(t)
	dest := lisbon()
	env.store.Destinations = &fakeDestinations{dest: dest}
	env.store.Bookings = newFakeBookings()
	env.events.err = errors.New("broker unavailable")

	rr := env.do(t, http.MethodPost, "/v1/bookings/request", "", bookingRequest(dest.ID, ""))
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func seedBooking(bks *fakeBookings, status string) *bookings.Booking {
	b := &bookings.Booking{
		ID:           uuid.New(),
		Reference:    "VYG-SEED0001",
		CustomerName: "Mara",
		StartDate:    time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 7, 6, 0, 0, 0, 0, time.UTC),
		Travelers:    2,
		Status:       status,
	}
	bks.byID[b.ID] = b
	return b
}

func TestUpdateBookingStatusPublishes(t *testing.T) {
	env := newTestEnv(t)
	bks := newFakeBookings()
	env.store.Bookings = bks
	b := seedBooking(bks, bookings.StatusPending)

	rr := env.do(t, http.MethodPatch, "/v1/admin/bookings/"+b.ID.String(), env.staffAuth, `{"status":"confirmed"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, bookings.StatusConfirmed, decode[bookings.Booking](t, rr).Status)

	published := env.events.published()
	require.Len(t, published, 1)
	assert.Equal(t, events.TypeBookingStatusChanged, published[0].Type)
	assert.Equal(t, bookings.StatusPending, published[0].PreviousStatus)

	// same status again: nothing new to announce
	rr = env.do(t, http.MethodPatch, "/v1/admin/bookings/"+b.ID.String(), env.staffAuth, `{"status":"confirmed"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, env.events.published(), 1)
}

func TestUpdateBookingSingleDate(t *testing.T) {
	env := newTestEnv(t)
	bks := newFakeBookings()
	env.store.Bookings = bks
	b := seedBooking(bks, bookings.StatusPending)

	rr := env.do(t, http.MethodPatch, "/v1/admin/bookings/"+b.ID.String(), env.adminAuth, `{"end_date":"2026-06-20"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeError(t, rr).Errors, "end_date")

	rr = env.do(t, http.MethodPatch, "/v1/admin/bookings/"+b.ID.String(), env.adminAuth, `{"end_date":"2026-07-10"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestUpdateBookingEmptyPatch(t *testing.T) {
	env := newTestEnv(t)
	bks := newFakeBookings()
	env.store.Bookings = bks
	b := seedBooking(bks, bookings.StatusPending)

	rr := env.do(t, http.MethodPatch, "/v1/admin/bookings/"+b.ID.String(), env.adminAuth, `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateBookingClearGuide(t *testing.T) {
	env := newTestEnv(t)
	bks := newFakeBookings()
	env.store.Bookings = bks
	b := seedBooking(bks, bookings.StatusConfirmed)
	guide := uuid.New()
	b.GuideID = &guide

	rr := env.do(t, http.MethodPatch, "/v1/admin/bookings/"+b.ID.String(), env.adminAuth, `{"clear_guide":true}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.True(t, bks.lastPatch.ClearGuide)
	assert.Nil(t, bks.lastPatch.GuideID)
	assert.Nil(t, decode[bookings.Booking](t, rr).GuideID)

	// other patches leave the assignment alone
	bks.byID[b.ID].GuideID = &guide
	rr = env.do(t, http.MethodPatch, "/v1/admin/bookings/"+b.ID.String(), env.adminAuth, `{"notes":"window seat"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.False(t, bks.lastPatch.ClearGuide)
	assert.Equal(t, &guide, decode[bookings.Booking](t, rr).GuideID)
}

func TestUpdateBookingGuideConflict(t *testing.T) {
	env := newTestEnv(t)
	bks := newFakeBookings()
	env.store.Bookings = bks
	b := seedBooking(bks, bookings.StatusPending)

	body := fmt.Sprintf(`{"guide_id":%q,"clear_guide":true}`, uuid.NewString())
	rr := env.do(t, http.MethodPatch, "/v1/admin/bookings/"+b.ID.String(), env.adminAuth, body)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeError(t, rr).Errors, "clear_guide")
}

func TestGetBookingByReference(t *testing.T) {
	env := newTestEnv(t)
	bks := newFakeBookings()
	env.store.Bookings = bks
	b := seedBooking(bks, bookings.StatusPending)
	ref, err := env.app.refs.Encode(42)
	require.NoError(t, err)
	b.Reference = ref

	rr := env.do(t, http.MethodGet, "/v1/admin/bookings/reference/"+strings.ToLower(ref), env.staffAuth, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, b.ID, decode[bookings.Booking](t, rr).ID)
	assert.Equal(t, 1, bks.refLookups)

	for _, bad := range []string{"VYG-0000OOOO", "not-a-reference", "VYG-"} {
		rr = env.do(t, http.MethodGet, "/v1/admin/bookings/reference/"+bad, env.staffAuth, "")
		assert.Equal(t, http.StatusNotFound, rr.Code, bad)
	}
	assert.Equal(t, 1, bks.refLookups, "malformed references never reach the store")
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/v1/auth/login", "", `{"email":"ada@voyago.travel","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(t, http.MethodPost, "/v1/auth/login", "", `{"email":"nobody@voyago.travel","password":"correct-horse"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(t, http.MethodPost, "/v1/auth/login", "", `{"email":"ADA@voyago.travel","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	tokens := decode[tokenResponse](t, rr)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, env.admin.ID, tokens.Admin.ID)

	rr = env.do(t, http.MethodGet, "/v1/admin/me", "Bearer "+tokens.AccessToken, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	// a refresh token is not an access token
	rr = env.do(t, http.MethodGet, "/v1/admin/me", "Bearer "+tokens.RefreshToken, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(t, http.MethodPost, "/v1/auth/refresh", "", fmt.Sprintf(`{"refresh_token":%q}`, tokens.RefreshToken))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, decode[tokenResponse](t, rr).AccessToken)

	rr = env.do(t, http.MethodPost, "/v1/auth/refresh", "", fmt.Sprintf(`{"refresh_token":%q}`, tokens.AccessToken))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRateLimitedPublicPosts(t *testing.T) {
	env := newTestEnv(t)
	env.app.config.RateLimiter.Enabled = true
	env.app.rateLimiter = ratelimiter.NewFixedWindowLimiter(2, time.Minute)

	body := `{"email":"ada@voyago.travel","password":"wrong-password"}`
	for i := 0; i < 2; i++ {
		rr := env.do(t, http.MethodPost, "/v1/auth/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	}

	rr := env.do(t, http.MethodPost, "/v1/auth/login", "", body)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	// reads are not limited
	env.store.Destinations = &fakeDestinations{dest: lisbon()}
	rr = env.do(t, http.MethodGet, "/v1/destinations", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestDashboardYearOutOfRange(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/v1/admin/dashboard?year=1999", env.adminAuth, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHealthBasicAuth(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/v1/health", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(t, http.MethodGet, "/v1/health", "Basic b3BzOndyb25n", "") // ops:wrong
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(t, http.MethodGet, "/v1/health", "Basic b3BzOnNlY3JldA==", "") // ops:secret
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestPublicIDFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
		err  bool
	}{
		{url: "https://res.cloudinary.com/demo/image/upload/v1712345678/voyago/destinations/abc_123.jpg", want: "voyago/destinations/abc_123"},
		{url: "https://res.cloudinary.com/demo/image/upload/voyago/guides/g1.webp", want: "voyago/guides/g1"},
		{url: "https://example.com/images/photo.png", err: true},
	}

	for _, tt := range tests {
		got, err := publicIDFromURL(tt.url)
		if tt.err {
			assert.Error(t, err, tt.url)
			continue
		}
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.want, got)
	}
}
