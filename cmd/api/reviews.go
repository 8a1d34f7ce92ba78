package main

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"voyago/internal/domain/reviews"
	"voyago/internal/params"
	"voyago/internal/schema"
)

const (
	communityLimit    = 12
	maxCommunityLimit = 50
)

type communityResponse struct {
	Reviews []reviews.Review `json:"reviews"`
	Summary *reviews.Summary `json:"summary"`
}

// communityHandler godoc
//
//	@Summary		Community reviews
//	@Description	Latest approved reviews with the overall rating summary
//	@Tags			Reviews
//	@Produce		json
//	@Param			limit	query		int	false	"Max reviews (≤ 50)"	default(12)
//	@Success		200		{object}	communityResponse
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Router			/community [get]
func (app *application) communityHandler(w http.ResponseWriter, r *http.Request) {
	limit := params.Limit(r.URL.Query(), communityLimit, maxCommunityLimit)

	items, summary, err := app.store.Reviews.Community(r.Context(), limit)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, communityResponse{Reviews: items, Summary: summary}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// submitReviewHandler godoc
//
//	@Summary		Submit a review
//	@Description	Public submission; the review stays hidden until an admin approves it.
//	@Tags			Reviews
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		schema.ReviewInput	true	"Review"
//	@Success		201		{object}	reviews.Review
//	@Failure		400		{object}	ErrorValidationResponse
//	@Failure		429		{object}	error	"Too many requests"
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Router			/reviews [post]
func (app *application) submitReviewHandler(w http.ResponseWriter, r *http.Request) {
	var payload schema.ReviewInput
	if !app.decodeAndValidate(w, r, &payload) {
		return
	}

	destinationID, err := uuid.Parse(payload.DestinationID)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid destination id"))
		return
	}
	guideID, err := optionalUUID(payload.GuideID)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid guide id"))
		return
	}

	rv := &reviews.Review{
		DestinationID: destinationID,
		GuideID:       guideID,
		AuthorName:    payload.AuthorName,
		Rating:        payload.Rating,
		Comment:       payload.Comment,
	}

	if err := app.store.Reviews.Create(r.Context(), rv); err != nil {
		app.storeError(w, r, err)
		return
	}
	app.invalidateStats(r.Context())

	if err := app.jsonResponse(w, http.StatusCreated, rv); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listReviewsHandler godoc
//
//	@Summary		List reviews
//	@Tags			Admin Reviews
//	@Produce		json
//	@Param			destination_id	query		string	false	"Destination"
//	@Param			guide_id		query		string	false	"Guide"
//	@Param			approved		query		bool	false	"Approval state"
//	@Param			page			query		int		false	"Page number"	default(1)
//	@Param			limit			query		int		false	"Page size"		default(15)
//	@Success		200				{object}	listResponse[reviews.Review]
//	@Failure		400				{object}	ErrorBadRequestResponse
//	@Failure		401				{object}	error	"Unauthorized"
//	@Security		ApiKeyAuth
//	@Router			/admin/reviews [get]
func (app *application) listReviewsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

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
	approved, ok := params.Bool(q, "approved")
	if !ok {
		app.badRequestResponse(w, r, errors.New("approved must be true or false"))
		return
	}

	f := reviews.Filter{
		DestinationID: destinationID,
		GuideID:       guideID,
		Approved:      approved,
		Pagination:    params.ParsePagination(q),
	}

	items, total, err := app.store.Reviews.List(r.Context(), f)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	f.Pagination.ComputeMeta(total)

	if err := app.jsonResponse(w, http.StatusOK, listResponse[reviews.Review]{Items: items, Pagination: f.Pagination}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getReviewHandler godoc
//
//	@Summary		Get review
//	@Tags			Admin Reviews
//	@Produce		json
//	@Param			id	path		string	true	"Review ID"
//	@Success		200	{object}	reviews.Review
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		404	{object}	error	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/admin/reviews/{id} [get]
func (app *application) getReviewHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid review id"))
		return
	}

	rv, err := app.store.Reviews.GetByID(r.Context(), id)
	if err != nil {
		app.storeError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, rv); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateReviewHandler godoc
//
//	@Summary		Update or approve review
//	@Description	Ratings of the destination and guide are recomputed in the same transaction.
//	@Tags			Admin Reviews
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Review ID"
//	@Param			payload	body		schema.ReviewUpdate	true	"Fields to change"
//	@Success		200		{object}	reviews.Review
//	@Failure		400		{object}	ErrorValidationResponse
//	@Failure		401		{object}	error	"Unauthorized"
//	@Failure		404		{object}	error	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/admin/reviews/{id} [patch]
func (app *application) updateReviewHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid review id"))
		return
	}

	var payload schema.ReviewUpdate
	if !app.decodePatch(w, r, &payload) {
		return
	}

	rv, err := app.store.Reviews.Update(r.Context(), id, reviews.Patch{
		Rating:   payload.Rating,
		Comment:  payload.Comment,
		Approved: payload.Approved,
	})
	if err != nil {
		app.storeError(w, r, err)
		return
	}
	app.invalidateStats(r.Context())

	if err := app.jsonResponse(w, http.StatusOK, rv); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteReviewHandler godoc
//
//	@Summary		Delete review
//	@Tags			Admin Reviews
//	@Param			id	path	string	true	"Review ID"
//	@Success		204
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		403	{object}	error	"Forbidden"
//	@Failure		404	{object}	error	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/admin/reviews/{id} [delete]
func (app *application) deleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid review id"))
		return
	}

	if err := app.store.Reviews.Delete(r.Context(), id); err != nil {
		app.storeError(w, r, err)
		return
	}
	app.invalidateStats(r.Context())

	w.WriteHeader(http.StatusNoContent)
}
