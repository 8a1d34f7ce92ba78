package main

import (
	"errors"
	"net/http"

	"voyago/internal/db"
	"voyago/internal/schema"
)

// ErrorBadRequestResponse represents the standard error format for bad request API responses.
//
//	@name			ErrorBadRequestResponse
//	@description	Standard error response format returned by all bad request API endpoints
type ErrorBadRequestResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"invalid request body"`
	Status  int    `json:"status" example:"400"`
}

// ErrorValidationResponse is returned when a payload fails validation.
//
//	@name	ErrorValidationResponse
type ErrorValidationResponse struct {
	Success bool              `json:"success" example:"false"`
	Message string            `json:"message" example:"validation failed"`
	Status  int               `json:"status" example:"400"`
	Errors  map[string]string `json:"errors"`
}

// ErrorInternalServerResponse represents the standard error format for internal server API responses.
//
//	@name			ErrorInternalServerResponse
//	@description	Standard error response format returned by all internal server error API endpoints
type ErrorInternalServerResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"the server encountered a problem"`
	Status  int    `json:"status" example:"500"`
}

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusInternalServerError, "the server encountered a problem")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusBadRequest, err.Error())
}

// failedValidation writes 400 with one message per field.
func (app *application) failedValidation(w http.ResponseWriter, r *http.Request, err error) {
	var verr *schema.ValidationError
	if !errors.As(err, &verr) {
		app.badRequestResponse(w, r, err)
		return
	}
	app.logger.Warnw("validation failed", "method", r.Method, "path", r.URL.Path, "fields", verr.Fields)

	writeJSON(w, http.StatusBadRequest, &ErrorValidationResponse{
		Success: false,
		Message: "validation failed",
		Status:  http.StatusBadRequest,
		Errors:  verr.Fields,
	})
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("not found", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusNotFound, "not found")
}

func (app *application) conflictResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("conflict", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusConflict, err.Error())
}

func (app *application) unauthorizedErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) unauthorizedBasicErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized basic error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) forbiddenResponse(w http.ResponseWriter, r *http.Request) {
	app.logger.Warnw("forbidden", "method", r.Method, "path", r.URL.Path)

	writeJSONError(w, http.StatusForbidden, "forbidden")
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter string) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path)

	w.Header().Set("Retry-After", retryAfter)

	writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, retry after: "+retryAfter)
}

// storeError maps repository sentinels onto HTTP statuses.
func (app *application) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		app.notFoundResponse(w, r, err)
	case errors.Is(err, db.ErrConflict):
		app.conflictResponse(w, r, errors.New("a record with these details already exists"))
	case errors.Is(err, db.ErrInUse):
		app.conflictResponse(w, r, errors.New("the record is still referenced by bookings"))
	case errors.Is(err, db.ErrInvalidReference):
		app.badRequestResponse(w, r, errors.New("a referenced record does not exist"))
	default:
		app.internalServerError(w, r, err)
	}
}
