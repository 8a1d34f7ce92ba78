package main

import (
	"errors"
	"net/http"
	"strings"

	"voyago/internal/domain/notifications"
	"voyago/internal/params"
	"voyago/internal/schema"
)

// listNotificationsHandler godoc
//
//	@Summary		List notifications
//	@Tags			Admin Notifications
//	@Produce		json
//	@Param			unread	query		bool	false	"Only unread"
//	@Param			type	query		string	false	"booking | review | contact | system"
//	@Param			page	query		int		false	"Page number"	default(1)
//	@Param			limit	query		int		false	"Page size"		default(15)
//	@Success		200		{object}	listResponse[notifications.Notification]
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		401		{object}	error	"Unauthorized"
//	@Security		ApiKeyAuth
//	@Router			/admin/notifications [get]
func (app *application) listNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	unread, ok := params.Bool(q, "unread")
	if !ok {
		app.badRequestResponse(w, r, errors.New("unread must be true or false"))
		return
	}
	typ := params.String(q, "type")
	if typ != nil && !notifications.ValidType(*typ) {
		app.badRequestResponse(w, r, errors.New("type must be one of "+strings.Join(notifications.Types, ", ")))
		return
	}

	f := notifications.Filter{
		Unread:     unread != nil && *unread,
		Type:       typ,
		Pagination: params.ParsePagination(q),
	}

	items, total, err := app.store.Notifications.List(r.Context(), f)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	f.Pagination.ComputeMeta(total)

	if err := app.jsonResponse(w, http.StatusOK, listResponse[notifications.Notification]{Items: items, Pagination: f.Pagination}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createNotificationHandler godoc
//
//	@Summary		Create notification
//	@Tags			Admin Notifications
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		schema.NotificationInput	true	"Notification"
//	@Success		201		{object}	notifications.Notification
//	@Failure		400		{object}	ErrorValidationResponse
//	@Failure		401		{object}	error	"Unauthorized"
//	@Security		ApiKeyAuth
//	@Router			/admin/notifications [post]
func (app *application) createNotificationHandler(w http.ResponseWriter, r *http.Request) {
	var payload schema.NotificationInput
	if !app.decodeAndValidate(w, r, &payload) {
		return
	}

	bookingID, err := optionalUUID(payload.BookingID)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid booking id"))
		return
	}

	n := &notifications.Notification{
		Type:      payload.Type,
		Title:     payload.Title,
		Message:   payload.Message,
		BookingID: bookingID,
	}
	if err := app.store.Notifications.Create(r.Context(), n); err != nil {
		app.storeError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, n); err != nil {
		app.internalServerError(w, r, err)
	}
}

// markNotificationReadHandler godoc
//
//	@Summary		Mark notification read
//	@Tags			Admin Notifications
//	@Param			id	path	string	true	"Notification ID"
//	@Success		204
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		404	{object}	error	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/admin/notifications/{id}/read [patch]
func (app *application) markNotificationReadHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid notification id"))
		return
	}

	if err := app.store.Notifications.MarkRead(r.Context(), id); err != nil {
		app.storeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type markAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// markAllNotificationsReadHandler godoc
//
//	@Summary		Mark every notification read
//	@Tags			Admin Notifications
//	@Produce		json
//	@Success		200	{object}	markAllReadResponse
//	@Failure		401	{object}	error	"Unauthorized"
//	@Security		ApiKeyAuth
//	@Router			/admin/notifications/read-all [post]
func (app *application) markAllNotificationsReadHandler(w http.ResponseWriter, r *http.Request) {
	n, err := app.store.Notifications.MarkAllRead(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, markAllReadResponse{Updated: n}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteNotificationHandler godoc
//
//	@Summary		Delete notification
//	@Tags			Admin Notifications
//	@Param			id	path	string	true	"Notification ID"
//	@Success		204
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		404	{object}	error	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/admin/notifications/{id} [delete]
func (app *application) deleteNotificationHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid notification id"))
		return
	}

	if err := app.store.Notifications.Delete(r.Context(), id); err != nil {
		app.storeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// notificationStatsHandler godoc
//
//	@Summary		Notification statistics
//	@Tags			Admin Notifications
//	@Produce		json
//	@Success		200	{object}	notifications.Stats
//	@Failure		401	{object}	error	"Unauthorized"
//	@Security		ApiKeyAuth
//	@Router			/admin/notifications/stats [get]
func (app *application) notificationStatsHandler(w http.ResponseWriter, r *http.Request) {
	s, err := app.store.Notifications.Stats(r.Context(), app.clock())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, s); err != nil {
		app.internalServerError(w, r, err)
	}
}
