package main

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"voyago/internal/domain/guides"
	"voyago/internal/params"
	"voyago/internal/schema"
)

// listGuidesHandler godoc
//
//	@Summary		List guides
//	@Tags			Guides
//	@Produce		json
//	@Param			search			query		string	false	"Name or bio contains"
//	@Param			available		query		bool	false	"Availability"
//	@Param			language		query		string	false	"Spoken language"
//	@Param			destination_id	query		string	false	"Assigned destination"
//	@Param			page			query		int		false	"Page number"	default(1)
//	@Param			limit			query		int		false	"Page size"		default(15)
//	@Success		200				{object}	listResponse[guides.Guide]
//	@Failure		400				{object}	ErrorBadRequestResponse
//	@Failure		500				{object}	ErrorInternalServerResponse
//	@Router			/guides [get]
func (app *application) listGuidesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	available, ok := params.Bool(q, "available")
	if !ok {
		app.badRequestResponse(w, r, errors.New("available must be true or false"))
		return
	}
	destinationID, ok := params.UUID(q, "destination_id")
	if !ok {
		app.badRequestResponse(w, r, errors.New("invalid destination_id"))
		return
	}

	f := guides.Filter{
		Search:        params.String(q, "search"),
		Available:     available,
		Language:      params.String(q, "language"),
		DestinationID: destinationID,
		Pagination:    params.ParsePagination(q),
	}

	items, total, err := app.store.Guides.List(r.Context(), f)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	f.Pagination.ComputeMeta(total)

	if err := app.jsonResponse(w, http.StatusOK, listResponse[guides.Guide]{Items: items, Pagination: f.Pagination}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getGuideHandler godoc
//
//	@Summary		Guide detail
//	@Tags			Guides
//	@Produce		json
//	@Param			id	path		string	true	"Guide ID"
//	@Success		200	{object}	guides.Guide
//	@Failure		400	{object}	ErrorBadRequestResponse
//	@Failure		404	{object}	error	"Not found"
//	@Router			/guides/{id} [get]
func (app *application) getGuideHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid guide id"))
		return
	}

	g, err := app.store.Guides.GetByID(r.Context(), id)
	if err != nil {
		app.storeError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, g); err != nil {
		app.internalServerError(w, r, err)
	}
}

func parseUUIDs(in []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(in))
	for _, s := range in {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// createGuideHandler godoc
//
//	@Summary		Create guide
//	@Description	Creates the guide and its destination assignments in one transaction.
//	@Tags			Admin Guides
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		schema.GuideInput	true	"Guide"
//	@Success		201		{object}	guides.Guide
//	@Failure		400		{object}	ErrorValidationResponse
//	@Failure		401		{object}	error	"Unauthorized"
//	@Failure		409		{object}	error	"E-mail already used"
//	@Security		ApiKeyAuth
//	@Router			/admin/guides [post]
func (app *application) createGuideHandler(w http.ResponseWriter, r *http.Request) {
	var payload schema.GuideInput
	if !app.decodeAndValidate(w, r, &payload) {
		return
	}

	destIDs, err := parseUUIDs(payload.DestinationIDs)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid destination id"))
		return
	}

	g := &guides.Guide{
		Name:            payload.Name,
		Email:           payload.Email,
		Phone:           payload.Phone,
		Bio:             payload.Bio,
		Languages:       payload.Languages,
		Specialties:     payload.Specialties,
		ExperienceYears: payload.ExperienceYears,
		ImageURL:        payload.ImageURL,
		Available:       true,
		DestinationIDs:  destIDs,
	}
	if g.Specialties == nil {
		g.Specialties = []string{}
	}
	if payload.Rating != nil {
		g.Rating = *payload.Rating
	}
	if payload.Available != nil {
		g.Available = *payload.Available
	}

	if err := app.store.Guides.Create(r.Context(), g); err != nil {
		app.storeError(w, r, err)
		return
	}
	app.invalidateStats(r.Context())

	if err := app.jsonResponse(w, http.StatusCreated, g); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateGuideHandler godoc
//
//	@Summary		Update guide
//	@Description	destination_ids, when present, replaces the guide's assignments.
//	@Tags			Admin Guides
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Guide ID"
//	@Param			payload	body		schema.GuideUpdate	true	"Fields to change"
//	@Success		200		{object}	guides.Guide
//	@Failure		400		{object}	ErrorValidationResponse
//	@Failure		401		{object}	error	"Unauthorized"
//	@Failure		404		{object}	error	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/admin/guides/{id} [patch]
func (app *application) updateGuideHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid guide id"))
		return
	}

	var payload schema.GuideUpdate
	if !app.decodePatch(w, r, &payload) {
		return
	}

	p := guides.Patch{
		Name:            payload.Name,
		Email:           payload.Email,
		Phone:           payload.Phone,
		Bio:             payload.Bio,
		Languages:       payload.Languages,
		Specialties:     payload.Specialties,
		ExperienceYears: payload.ExperienceYears,
		ImageURL:        payload.ImageURL,
		Rating:          payload.Rating,
		Available:       payload.Available,
	}
	if payload.DestinationIDs != nil {
		ids, err := parseUUIDs(*payload.DestinationIDs)
		if err != nil {
			app.badRequestResponse(w, r, errors.New("invalid destination id"))
			return
		}
		p.DestinationIDs = &ids
	}

	g, err := app.store.Guides.Update(r.Context(), id, p)
	if err != nil {
		app.storeError(w, r, err)
		return
	}
	app.invalidateStats(r.Context())

	if err := app.jsonResponse(w, http.StatusOK, g); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteGuideHandler godoc
//
//	@Summary		Delete guide
//	@Description	Bookings and reviews keep their history with the guide unset.
//	@Tags			Admin Guides
//	@Param			id	path	string	true	"Guide ID"
//	@Success		204
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		403	{object}	error	"Forbidden"
//	@Failure		404	{object}	error	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/admin/guides/{id} [delete]
func (app *application) deleteGuideHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid guide id"))
		return
	}

	if err := app.store.Guides.Delete(r.Context(), id); err != nil {
		app.storeError(w, r, err)
		return
	}
	app.invalidateStats(r.Context())

	w.WriteHeader(http.StatusNoContent)
}
