package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"voyago/internal/auth"
	"voyago/internal/db"
	"voyago/internal/domain/admins"
	"voyago/internal/schema"
)

type tokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	Admin        *admins.Admin `json:"admin"`
}

// loginHandler godoc
//
//	@Summary		Admin login
//	@Description	Exchanges e-mail and password for an access and a refresh token.
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		schema.LoginInput	true	"Credentials"
//	@Success		200		{object}	tokenResponse
//	@Failure		400		{object}	ErrorValidationResponse
//	@Failure		401		{object}	error	"Invalid credentials"
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Router			/auth/login [post]
func (app *application) loginHandler(w http.ResponseWriter, r *http.Request) {
	var payload schema.LoginInput
	if !app.decodeAndValidate(w, r, &payload) {
		return
	}

	admin, err := app.store.Admins.GetByEmail(r.Context(), strings.ToLower(payload.Email))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			app.unauthorizedErrorResponse(w, r, errors.New("unknown admin e-mail"))
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := admin.Password.Compare(payload.Password); err != nil {
		app.unauthorizedErrorResponse(w, r, errors.New("password mismatch"))
		return
	}

	app.issueTokens(w, r, admin)

	if err := app.store.Admins.TouchLogin(r.Context(), admin.ID); err != nil {
		app.logger.Warnw("failed to record login", "admin", admin.ID, "error", err)
	}
}

// refreshTokenHandler godoc
//
//	@Summary		Refresh tokens
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		schema.RefreshInput	true	"Refresh token"
//	@Success		200		{object}	tokenResponse
//	@Failure		400		{object}	ErrorValidationResponse
//	@Failure		401		{object}	error	"Invalid refresh token"
//	@Router			/auth/refresh [post]
func (app *application) refreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload schema.RefreshInput
	if !app.decodeAndValidate(w, r, &payload) {
		return
	}

	token, err := app.authenticator.ValidateRefreshToken(payload.RefreshToken)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}
	claims, ok := auth.ClaimsOf(token)
	if !ok {
		app.unauthorizedErrorResponse(w, r, errors.New("unexpected token claims"))
		return
	}
	adminID, err := uuid.Parse(claims.Subject)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	admin, err := app.store.Admins.GetByID(r.Context(), adminID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			app.unauthorizedErrorResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.issueTokens(w, r, admin)
}

func (app *application) issueTokens(w http.ResponseWriter, r *http.Request, admin *admins.Admin) {
	access, refresh, err := app.authenticator.GenerateTokens(admin.ID.String(), admin.Role)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	resp := tokenResponse{AccessToken: access, RefreshToken: refresh, Admin: admin}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

// meHandler godoc
//
//	@Summary		Current admin
//	@Tags			authentication
//	@Produce		json
//	@Success		200	{object}	admins.Admin
//	@Failure		401	{object}	error	"Unauthorized"
//	@Security		ApiKeyAuth
//	@Router			/admin/me [get]
func (app *application) meHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.jsonResponse(w, http.StatusOK, getAdminFromContext(r)); err != nil {
		app.internalServerError(w, r, err)
	}
}
