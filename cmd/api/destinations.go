package main

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"voyago/internal/domain/destinations"
	"voyago/internal/params"
	"voyago/internal/schema"
)

const featuredLimit = 6

// listDestinationsHandler godoc
//
//	@Summary		List destinations
//	@Description	Paginated destinations with optional search, country and featured filters
//	@Tags			Destinations
//	@Produce		json
//	@Param			search		query		string	false	"Name, country or description contains"
//	@Param			country		query		string	false	"Exact country"
//	@Param			featured	query		bool	false	"Only featured destinations"
//	@Param			sort		query		string	false	"newest | name | price | price_desc | rating"
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			limit		query		int		false	"Page size"		default(15)
//	@Success		200			{object}	listResponse[destinations.Destination]
//	@Failure		400			{object}	ErrorBadRequestResponse
//	@Failure		500			{object}	ErrorInternalServerResponse
//	@Router			/destinations [get]
func (app *application) listDestinationsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	featured, ok := params.Bool(q, "featured")
	if !ok {
		app.badRequestResponse(w, r, errors.New("featured must be true or false"))
		return
	}

	sort := strings.TrimSpace(q.Get("sort"))
	if sort != "" && !slices.Contains(destinations.Sorts, sort) {
		app.badRequestResponse(w, r, errors.New("sort must be one of "+strings.Join(destinations.Sorts, ", ")))
		return
	}

	f := destinations.Filter{
		Search:     params.String(q, "search"),
		Country:    params.String(q, "country"),
		Featured:   featured,
		Sort:       sort,
		Pagination: params.ParsePagination(q),
	}

	items, total, err := app.store.Destinations.List(r.Context(), f)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	f.Pagination.ComputeMeta(total)

	if err := app.jsonResponse(w, http.StatusOK, listResponse[destinations.Destination]{Items: items, Pagination: f.Pagination}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// featuredDestinationsHandler godoc
//
//	@Summary		Featured destinations
//	@Tags			Destinations
//	@Produce		json
//	@Param			limit	query		int	false	"Max items (≤ 20)"	default(6)
//	@Success		200		{array}		destinations.Destination
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Router			/destinations/featured [get]
func (app *application) featuredDestinationsHandler(w http.ResponseWriter, r *http.Request) {
	limit := params.Limit(r.URL.Query(), featuredLimit, 20)

	items, err := app.store.Destinations.Featured(r.Context(), limit)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, items); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getDestinationBySlugHandler godoc
//
//	@Summary		Destination detail
//	@Tags			Destinations
//	@Produce		json
//	@Param			slug	path		string	true	"Destination slug"
//	@Success		200		{object}	destinations.Destination
//	@Failure		404		{object}	error	"Not found"
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Router			/destinations/{slug} [get]
func (app *application) getDestinationBySlugHandler(w http.ResponseWriter, r *http.Request) {
	d, err := app.store.Destinations.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		app.storeError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, d); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getDestinationHandler godoc
//
//	@Summary		Get destination by id
//	@Tags			Admin Destinations
//	@Produce		json
//	@Param			id	path		string	true	"Destination ID"
//	@Success		200	{object}	destinations.Destination
//	@Failure		400	{object}	ErrorBadRequestResponse
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		404	{object}	error	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/admin/destinations/{id} [get]
func (app *application) getDestinationHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid destination id"))
		return
	}

	d, err := app.store.Destinations.GetByID(r.Context(), id)
	if err != nil {
		app.storeError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, d); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createDestinationHandler godoc
//
//	@Summary		Create destination
//	@Description	The slug is derived from the name when omitted.
//	@Tags			Admin Destinations
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		schema.DestinationInput	true	"Destination"
//	@Success		201		{object}	destinations.Destination
//	@Failure		400		{object}	ErrorValidationResponse
//	@Failure		401		{object}	error	"Unauthorized"
//	@Failure		409		{object}	error	"Slug already taken"
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/destinations [post]
func (app *application) createDestinationHandler(w http.ResponseWriter, r *http.Request) {
	var payload schema.DestinationInput
	if !app.decodeAndValidate(w, r, &payload) {
		return
	}

	slug := payload.Slug
	if slug == "" {
		slug = schema.Slugify(payload.Name)
	}

	d := &destinations.Destination{
		Name:         payload.Name,
		Slug:         slug,
		Country:      payload.Country,
		Description:  payload.Description,
		ImageURL:     payload.ImageURL,
		Price:        payload.Price,
		DurationDays: payload.DurationDays,
		Featured:     payload.Featured,
	}
	if payload.Rating != nil {
		d.Rating = *payload.Rating
	}

	if err := app.store.Destinations.Create(r.Context(), d); err != nil {
		app.storeError(w, r, err)
		return
	}
	app.invalidateStats(r.Context())

	if err := app.jsonResponse(w, http.StatusCreated, d); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateDestinationHandler godoc
//
//	@Summary		Update destination
//	@Tags			Admin Destinations
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Destination ID"
//	@Param			payload	body		schema.DestinationUpdate	true	"Fields to change"
//	@Success		200		{object}	destinations.Destination
//	@Failure		400		{object}	ErrorValidationResponse
//	@Failure		401		{object}	error	"Unauthorized"
//	@Failure		404		{object}	error	"Not found"
//	@Failure		409		{object}	error	"Slug already taken"
//	@Security		ApiKeyAuth
//	@Router			/admin/destinations/{id} [patch]
func (app *application) updateDestinationHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid destination id"))
		return
	}

	var payload schema.DestinationUpdate
	if !app.decodePatch(w, r, &payload) {
		return
	}

	d, err := app.store.Destinations.Update(r.Context(), id, destinations.Patch{
		Name:         payload.Name,
		Slug:         payload.Slug,
		Country:      payload.Country,
		Description:  payload.Description,
		ImageURL:     payload.ImageURL,
		Price:        payload.Price,
		DurationDays: payload.DurationDays,
		Rating:       payload.Rating,
		Featured:     payload.Featured,
	})
	if err != nil {
		app.storeError(w, r, err)
		return
	}
	app.invalidateStats(r.Context())

	if err := app.jsonResponse(w, http.StatusOK, d); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteDestinationHandler godoc
//
//	@Summary		Delete destination
//	@Description	Refused with 409 while bookings reference the destination.
//	@Tags			Admin Destinations
//	@Param			id	path	string	true	"Destination ID"
//	@Success		204
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		403	{object}	error	"Forbidden"
//	@Failure		404	{object}	error	"Not found"
//	@Failure		409	{object}	error	"Destination has bookings"
//	@Security		ApiKeyAuth
//	@Router			/admin/destinations/{id} [delete]
func (app *application) deleteDestinationHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid destination id"))
		return
	}

	if err := app.store.Destinations.Delete(r.Context(), id); err != nil {
		app.storeError(w, r, err)
		return
	}
	app.invalidateStats(r.Context())

	w.WriteHeader(http.StatusNoContent)
}
