package main

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"voyago/internal/db"
	"voyago/internal/domain/bookings"
	"voyago/internal/events"
	"voyago/internal/metrics"
	"voyago/internal/params"
	"voyago/internal/schema"
	"voyago/internal/stats"
)

// listBookingsHandler godoc
//
//	@Summary		List bookings
//	@Tags			Admin Bookings
//	@Produce		json
//	@Param			status			query		string	false	"pending | confirmed | cancelled | completed"
//	@Param			destination_id	query		string	false	"Destination"
//	@Param			guide_id		query		string	false	"Guide"
//	@Param			from			query		string	false	"Start date on or after (YYYY-MM-DD)"
//	@Param			to				query		string	false	"Start date on or before (YYYY-MM-DD)"
//	@Param			search			query		string	false	"Customer name, e-mail or reference"
//	@Param			page			query		int		false	"Page number"	default(1)
//	@Param			limit			query		int		false	"Page size"		default(15)
//	@Success		200				{object}	listResponse[bookings.Booking]
//	@Failure		400				{object}	ErrorBadRequestResponse
//	@Failure		401				{object}	error	"Unauthorized"
//	@Failure		500				{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/bookings [get]
func (app *application) listBookingsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	status := params.String(q, "status")
	if status != nil && !bookings.ValidStatus(*status) {
		app.badRequestResponse(w, r, errors.New("status must be one of "+strings.Join(bookings.Statuses, ", ")))
		return
	}
	destinationID, ok := params.UUID(q, "destination_id")
	if !ok {
		app.badRequestResponse(w, r, errors.New("invalid destination_id"))
		return
	}
	guideID, ok := params.UUID(q, "guide_id")
	if !ok {
		app.badRequestResponse(w, r, errors.New("invalid guide_id"))
		return
	}
	from, ok := params.Date(q, "from")
	if !ok {
		app.badRequestResponse(w, r, errors.New("from must be YYYY-MM-DD"))
		return
	}
	to, ok := params.Date(q, "to")
	if !ok {
		app.badRequestResponse(w, r, errors.New("to must be YYYY-MM-DD"))
		return
	}

	f := bookings.Filter{
		Status:        status,
		DestinationID: destinationID,
		GuideID:       guideID,
		From:          from,
		To:            to,
		Search:        params.String(q, "search"),
		Pagination:    params.ParsePagination(q),
	}

	items, total, err := app.store.Bookings.List(r.Context(), f)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	f.Pagination.ComputeMeta(total)

	if err := app.jsonResponse(w, http.StatusOK, listResponse[bookings.Booking]{Items: items, Pagination: f.Pagination}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getBookingHandler godoc
//
//	@Summary		Get booking
//	@Tags			Admin Bookings
//	@Produce		json
//	@Param			id	path		string	true	"Booking ID"
//	@Success		200	{object}	bookings.Booking
//	@Failure		400	{object}	ErrorBadRequestResponse
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		404	{object}	error	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/admin/bookings/{id} [get]
func (app *application) getBookingHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid booking id"))
		return
	}

	b, err := app.store.Bookings.GetByID(r.Context(), id)
	if err != nil {
		app.storeError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, b); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getBookingByReferenceHandler godoc
//
//	@Summary		Get booking by reference
//	@Tags			Admin Bookings
//	@Produce		json
//	@Param			reference	path		string	true	"Booking reference, e.g. VYG-3KX9QW"
//	@Success		200			{object}	bookings.Booking
//	@Failure		401			{object}	error	"Unauthorized"
//	@Failure		404			{object}	error	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/admin/bookings/reference/{reference} [get]
func (app *application) getBookingByReferenceHandler(w http.ResponseWriter, r *http.Request) {
	ref := strings.ToUpper(chi.URLParam(r, "reference"))
	if _, err := app.refs.Decode(ref); err != nil {
		app.notFoundResponse(w, r, err)
		return
	}

	b, err := app.store.Bookings.GetByReference(r.Context(), ref)
	if err != nil {
		app.storeError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, b); err != nil {
		app.internalServerError(w, r, err)
	}
}

func bookingFromInput(in schema.BookingInput) (*bookings.Booking, error) {
	b := &bookings.Booking{
		CustomerName:  in.CustomerName,
		CustomerEmail: strings.ToLower(in.CustomerEmail),
		CustomerPhone: in.CustomerPhone,
		Travelers:     in.Travelers,
		Amount:        stats.Round(in.Amount, 2),
		Notes:         in.Notes,
		Status:        bookings.StatusPending,
	}
	if in.Status != nil {
		b.Status = *in.Status
	}

	var err error
	if b.DestinationID, err = uuid.Parse(in.DestinationID); err != nil {
		return nil, err
	}
	if b.GuideID, err = optionalUUID(in.GuideID); err != nil {
		return nil, err
	}
	if b.StartDate, err = schema.ParseDate(in.StartDate); err != nil {
		return nil, err
	}
	if b.EndDate, err = schema.ParseDate(in.EndDate); err != nil {
		return nil, err
	}
	return b, nil
}

// createBooking stores b, re-reads it with display names and announces it.
func (app *application) createBooking(ctx context.Context, b *bookings.Booking, channel string) (*bookings.Booking, error) {
	if err := app.store.Bookings.Create(ctx, b); err != nil {
		return nil, err
	}
	metrics.BookingsCreatedTotal.WithLabelValues(channel).Inc()
	app.invalidateStats(ctx)

	full, err := app.store.Bookings.GetByID(ctx, b.ID)
	if err != nil {
		app.logger.Warnw("re-reading created booking failed", "id", b.ID, "error", err)
		full = b
	}

	app.publishBookingEvent(ctx, full, "")
	return full, nil
}

// createBookingHandler godoc
//
//	@Summary		Create booking
//	@Tags			Admin Bookings
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		schema.BookingInput	true	"Booking"
//	@Success		201		{object}	bookings.Booking
//	@Failure		400		{object}	ErrorValidationResponse
//	@Failure		401		{object}	error	"Unauthorized"
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/bookings [post]
func (app *application) createBookingHandler(w http.ResponseWriter, r *http.Request) {
	var payload schema.BookingInput
	if !app.decodeAndValidate(w, r, &payload) {
		return
	}

	b, err := bookingFromInput(payload)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	created, err := app.createBooking(r.Context(), b, "admin")
	if err != nil {
		app.storeError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, created); err != nil {
		app.internalServerError(w, r, err)
	}
}

// requestBookingHandler godoc
//
//	@Summary		Request a booking
//	@Description	Public booking request. The status is always pending and the amount is the destination price per traveler.
//	@Tags			Bookings
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		schema.BookingInput	true	"Booking request"
//	@Success		201		{object}	bookings.Booking
//	@Failure		400		{object}	ErrorValidationResponse
//	@Failure		429		{object}	error	"Too many requests"
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Router			/bookings/request [post]
func (app *application) requestBookingHandler(w http.ResponseWriter, r *http.Request) {
	var payload schema.BookingInput
	if !app.decodeAndValidate(w, r, &payload) {
		return
	}
	payload.Status = nil

	b, err := bookingFromInput(payload)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	dest, err := app.store.Destinations.GetByID(r.Context(), b.DestinationID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			app.failedValidation(w, r, &schema.ValidationError{Fields: map[string]string{"destination_id": "does not exist"}})
			return
		}
		app.internalServerError(w, r, err)
		return
	}
	b.Amount = stats.Round(dest.Price*float64(b.Travelers), 2)

	created, err := app.createBooking(r.Context(), b, "public")
	if err != nil {
		app.storeError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, created); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateBookingHandler godoc
//
//	@Summary		Update booking
//	@Description	Partial update. A status change records a notification and emits a booking event.
//	@Tags			Admin Bookings
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Booking ID"
//	@Param			payload	body		schema.BookingUpdate	true	"Fields to change"
//	@Success		200		{object}	bookings.Booking
//	@Failure		400		{object}	ErrorValidationResponse
//	@Failure		401		{object}	error	"Unauthorized"
//	@Failure		404		{object}	error	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/admin/bookings/{id} [patch]
func (app *application) updateBookingHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid booking id"))
		return
	}

	var payload schema.BookingUpdate
	if !app.decodePatch(w, r, &payload) {
		return
	}

	p, err := bookingPatch(payload)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	// one date alone is checked against the stored other
	if (p.StartDate == nil) != (p.EndDate == nil) {
		current, err := app.store.Bookings.GetByID(r.Context(), id)
		if err != nil {
			app.storeError(w, r, err)
			return
		}
		start, end := current.StartDate, current.EndDate
		if p.StartDate != nil {
			start = *p.StartDate
		}
		if p.EndDate != nil {
			end = *p.EndDate
		}
		if end.Before(start) {
			app.failedValidation(w, r, &schema.ValidationError{Fields: map[string]string{"end_date": "must be on or after start_date"}})
			return
		}
	}

	updated, previous, err := app.store.Bookings.Update(r.Context(), id, p)
	if err != nil {
		app.storeError(w, r, err)
		return
	}
	app.invalidateStats(r.Context())

	if previous != updated.Status {
		app.publishBookingEvent(r.Context(), updated, previous)
	}

	if err := app.jsonResponse(w, http.StatusOK, updated); err != nil {
		app.internalServerError(w, r, err)
	}
}

func bookingPatch(in schema.BookingUpdate) (bookings.Patch, error) {
	p := bookings.Patch{
		CustomerName:  in.CustomerName,
		CustomerEmail: in.CustomerEmail,
		CustomerPhone: in.CustomerPhone,
		Travelers:     in.Travelers,
		Status:        in.Status,
		Notes:         in.Notes,
	}
	if in.CustomerEmail != nil {
		email := strings.ToLower(*in.CustomerEmail)
		p.CustomerEmail = &email
	}
	if in.Amount != nil {
		amount := stats.Round(*in.Amount, 2)
		p.Amount = &amount
	}

	var err error
	if in.DestinationID != nil {
		id, err := uuid.Parse(*in.DestinationID)
		if err != nil {
			return p, err
		}
		p.DestinationID = &id
	}
	if p.GuideID, err = optionalUUID(in.GuideID); err != nil {
		return p, err
	}
	p.ClearGuide = in.ClearGuide != nil && *in.ClearGuide
	if in.StartDate != nil {
		d, err := schema.ParseDate(*in.StartDate)
		if err != nil {
			return p, err
		}
		p.StartDate = &d
	}
	if in.EndDate != nil {
		d, err := schema.ParseDate(*in.EndDate)
		if err != nil {
			return p, err
		}
		p.EndDate = &d
	}
	return p, nil
}

// deleteBookingHandler godoc
//
//	@Summary		Delete booking
//	@Tags			Admin Bookings
//	@Param			id	path	string	true	"Booking ID"
//	@Success		204
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		403	{object}	error	"Forbidden"
//	@Failure		404	{object}	error	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/admin/bookings/{id} [delete]
func (app *application) deleteBookingHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid booking id"))
		return
	}

	if err := app.store.Bookings.Delete(r.Context(), id); err != nil {
		app.storeError(w, r, err)
		return
	}
	app.invalidateStats(r.Context())

	w.WriteHeader(http.StatusNoContent)
}

// bookingStatsHandler godoc
//
//	@Summary		Booking statistics
//	@Tags			Admin Bookings
//	@Produce		json
//	@Param			year	query		int	false	"Calendar year of the monthly series"
//	@Success		200		{object}	dashboard.BookingStats
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		401		{object}	error	"Unauthorized"
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/bookings/stats [get]
func (app *application) bookingStatsHandler(w http.ResponseWriter, r *http.Request) {
	year, ok := params.Year(r.URL.Query(), app.clock().Year())
	if !ok {
		app.badRequestResponse(w, r, errors.New("year must be between 2000 and 2100"))
		return
	}

	s, err := app.dashboard.BookingStats(r.Context(), year)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, s); err != nil {
		app.internalServerError(w, r, err)
	}
}

// publishBookingEvent hands the event to the broker. Failures are logged and
// never fail the request.
func (app *application) publishBookingEvent(ctx context.Context, b *bookings.Booking, previous string) {
	if app.events == nil {
		return
	}
	e := events.NewBookingEvent(b, previous, app.clock())
	if err := app.events.Publish(ctx, e); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues("failed").Inc()
		app.logger.Errorw("failed to publish booking event", "reference", b.Reference, "type", e.Type, "error", err)
		return
	}
	metrics.EventsPublishedTotal.WithLabelValues("ok").Inc()
}
