package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

var version = "1.0.0"

type healthResponse struct {
	Status  string `json:"status"`
	Env     string `json:"env"`
	Version string `json:"version"`
}

// healthCheckHandler godoc
//
//	@Summary		Health check
//	@Description	Reports service status and version. Protected by basic auth.
//	@Tags			ops
//	@Produce		json
//	@Success		200	{object}	healthResponse
//	@Failure		401	{object}	error	"Unauthorized"
//	@Router			/health [get]
func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	data := healthResponse{
		Status:  "ok",
		Env:     app.config.Env,
		Version: version,
	}

	if err := app.jsonResponse(w, http.StatusOK, data); err != nil {
		app.internalServerError(w, r, err)
	}
}

func parseIDParam(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

// optionalUUID parses an optional id from a payload; nil or blank gives nil.
// It never clears a stored id, booking patches use clear_guide for that.
func optionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (app *application) clock() time.Time {
	if app.now != nil {
		return app.now()
	}
	return time.Now().UTC()
}

// invalidateStats drops cached dashboard payloads after a write.
func (app *application) invalidateStats(ctx context.Context) {
	if app.dashboard != nil {
		app.dashboard.Invalidate(ctx)
	}
}
