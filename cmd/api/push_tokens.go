package main

import (
	"net/http"

	"voyago/internal/schema"
)

// RemovePushTokenRequest represents the payload for removing a push token
type RemovePushTokenRequest struct {
	Token string `json:"token" validate:"required,max=255"`
}

// savePushTokenHandler godoc
//
//	@Summary		Save or update a push notification token
//	@Description	Stores or refreshes the admin's Expo push token along with optional device info
//	@Tags			Admin Notifications
//	@Accept			json
//	@Param			payload	body	schema.PushTokenInput	true	"Push token data"
//	@Success		204
//	@Failure		400	{object}	ErrorValidationResponse
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		500	{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/push-tokens [post]
func (app *application) savePushTokenHandler(w http.ResponseWriter, r *http.Request) {
	admin := getAdminFromContext(r)

	var payload schema.PushTokenInput
	if !app.decodeAndValidate(w, r, &payload) {
		return
	}

	if err := app.store.PushTokens.Upsert(r.Context(), admin.ID, payload.Token, payload.DeviceInfo); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// removePushTokenHandler godoc
//
//	@Summary		Remove a push notification token
//	@Tags			Admin Notifications
//	@Accept			json
//	@Param			payload	body	RemovePushTokenRequest	true	"Token to remove"
//	@Success		204
//	@Failure		400	{object}	ErrorValidationResponse
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		404	{object}	error	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/admin/push-tokens [delete]
func (app *application) removePushTokenHandler(w http.ResponseWriter, r *http.Request) {
	admin := getAdminFromContext(r)

	var payload RemovePushTokenRequest
	if !app.decodeAndValidate(w, r, &payload) {
		return
	}

	if err := app.store.PushTokens.Remove(r.Context(), admin.ID, payload.Token); err != nil {
		app.storeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
