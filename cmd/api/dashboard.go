package main

import (
	"errors"
	"net/http"

	"voyago/internal/domain/dashboard"
	"voyago/internal/params"
)

// dashboardHandler godoc
//
//	@Summary		Dashboard statistics
//	@Description	Totals, averages, month-over-month growth, status breakdown, top destinations and guides, monthly series and recent bookings.
//	@Tags			Admin Dashboard
//	@Produce		json
//	@Param			year	query		int	false	"Calendar year of the monthly series"
//	@Success		200		{object}	dashboard.Overview
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		401		{object}	error	"Unauthorized"
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/dashboard [get]
func (app *application) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	year, ok := params.Year(r.URL.Query(), app.dashboard.Now().Year())
	if !ok {
		app.badRequestResponse(w, r, errors.New("year must be between 2000 and 2100"))
		return
	}

	o, err := app.dashboard.Overview(r.Context(), year)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, o); err != nil {
		app.internalServerError(w, r, err)
	}
}

// destinationStatsHandler godoc
//
//	@Summary		Destination statistics
//	@Tags			Admin Dashboard
//	@Produce		json
//	@Param			top	query		int	false	"Ranked list length (≤ 20)"	default(5)
//	@Success		200	{object}	dashboard.DestinationStats
//	@Failure		401	{object}	error	"Unauthorized"
//	@Security		ApiKeyAuth
//	@Router			/admin/dashboard/destinations [get]
func (app *application) destinationStatsHandler(w http.ResponseWriter, r *http.Request) {
	s, err := app.dashboard.DestinationStats(r.Context(), topParam(r))
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, s); err != nil {
		app.internalServerError(w, r, err)
	}
}

// guideStatsHandler godoc
//
//	@Summary		Guide statistics
//	@Tags			Admin Dashboard
//	@Produce		json
//	@Param			top	query		int	false	"Ranked list length (≤ 20)"	default(5)
//	@Success		200	{object}	dashboard.GuideStats
//	@Failure		401	{object}	error	"Unauthorized"
//	@Security		ApiKeyAuth
//	@Router			/admin/dashboard/guides [get]
func (app *application) guideStatsHandler(w http.ResponseWriter, r *http.Request) {
	s, err := app.dashboard.GuideStats(r.Context(), topParam(r))
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, s); err != nil {
		app.internalServerError(w, r, err)
	}
}

// reviewStatsHandler godoc
//
//	@Summary		Review statistics
//	@Tags			Admin Dashboard
//	@Produce		json
//	@Success		200	{object}	reviews.Stats
//	@Failure		401	{object}	error	"Unauthorized"
//	@Security		ApiKeyAuth
//	@Router			/admin/dashboard/reviews [get]
func (app *application) reviewStatsHandler(w http.ResponseWriter, r *http.Request) {
	s, err := app.dashboard.ReviewStats(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, s); err != nil {
		app.internalServerError(w, r, err)
	}
}

func topParam(r *http.Request) int {
	q := r.URL.Query()
	if q.Get("top") == "" {
		return dashboard.DefaultTop
	}
	q.Set("limit", q.Get("top"))
	return params.Limit(q, dashboard.DefaultTop, 20)
}
