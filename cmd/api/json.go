package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"voyago/internal/params"
	"voyago/internal/schema"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// readJSON parses a single JSON object from the body into data.
func readJSON(w http.ResponseWriter, r *http.Request, data any) error {
	maxBytes := 1_048_578 //1mb
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(data); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body must not be empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	if decoder.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

func writeJSONError(w http.ResponseWriter, status int, message string) error {
	type envelope struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Status  int    `json:"status"`
	}

	return writeJSON(w, status, &envelope{
		Success: false,
		Message: message,
		Status:  status,
	})
}

func (app *application) jsonResponse(w http.ResponseWriter, status int, data any) error {
	type envelope struct {
		Data any `json:"data"`
	}
	return writeJSON(w, status, &envelope{Data: data})
}

// decodeAndValidate reads the body into payload and validates it, writing the
// 400 response itself. It reports whether the handler may continue.
func (app *application) decodeAndValidate(w http.ResponseWriter, r *http.Request, payload any) bool {
	if err := readJSON(w, r, payload); err != nil {
		app.badRequestResponse(w, r, err)
		return false
	}
	if err := schema.Validate(payload); err != nil {
		app.failedValidation(w, r, err)
		return false
	}
	return true
}

// decodePatch is decodeAndValidate for update payloads, which must set at
// least one field.
func (app *application) decodePatch(w http.ResponseWriter, r *http.Request, payload any) bool {
	if err := readJSON(w, r, payload); err != nil {
		app.badRequestResponse(w, r, err)
		return false
	}
	if err := schema.RequireAny(payload); err != nil {
		app.failedValidation(w, r, err)
		return false
	}
	if err := schema.Validate(payload); err != nil {
		app.failedValidation(w, r, err)
		return false
	}
	return true
}

// listResponse is the data of every paginated endpoint.
type listResponse[T any] struct {
	Items      []T               `json:"items"`
	Pagination params.Pagination `json:"pagination"`
}
