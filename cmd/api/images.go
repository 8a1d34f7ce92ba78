package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"
)

const maxImageBytes = 5 * 1024 * 1024

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

type imageResponse struct {
	ImageURL string `json:"image_url"`
}

// helper: sniff first 512 bytes and reset reader
func sniffMIME(file multipart.File) (string, error) {
	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read: %w", err)
	}
	mime := http.DetectContentType(buf[:n])

	// reset so later reads start from byte 0
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("seek reset: %w", err)
	}
	return mime, nil
}

// uploadImage reads the "image" form file and stores it under folder with a
// public ID unique to this upload.
// It writes the error response itself and returns "" on failure.
func (app *application) uploadImage(w http.ResponseWriter, r *http.Request, folder string, id uuid.UUID) string {
	if app.images == nil {
		app.internalServerError(w, r, errors.New("image uploads are not configured"))
		return ""
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+1024)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("failed to parse form: %w", err))
		return ""
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, _, err := r.FormFile("image")
	if err != nil {
		app.badRequestResponse(w, r, errors.New("image file is required"))
		return ""
	}
	defer file.Close()

	mime, err := sniffMIME(file)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return ""
	}
	if !allowedImageTypes[mime] {
		app.badRequestResponse(w, r, fmt.Errorf("unsupported image type %s", mime))
		return ""
	}

	publicID := fmt.Sprintf("%s_%d", id, app.clock().UnixNano())
	url, err := app.images.Upload(r.Context(), file, folder, publicID)
	if err != nil {
		app.internalServerError(w, r, err)
		return ""
	}
	return url
}

// replaceImage removes the previous upload after the record points at the new
// one. A failure leaves an orphan in the bucket and is only logged.
func (app *application) replaceImage(ctx context.Context, previous *string, current string) {
	if previous == nil || *previous == "" || *previous == current {
		return
	}
	if err := app.images.Destroy(ctx, *previous); err != nil {
		app.logger.Warnw("failed to delete previous image", "url", *previous, "error", err)
	}
}

// uploadDestinationImageHandler godoc
//
//	@Summary		Upload destination image
//	@Tags			Admin Destinations
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			id		path		string	true	"Destination ID"
//	@Param			image	formData	file	true	"JPEG, PNG or WebP up to 5MB"
//	@Success		200		{object}	imageResponse
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		401		{object}	error	"Unauthorized"
//	@Failure		404		{object}	error	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/admin/destinations/{id}/image [post]
func (app *application) uploadDestinationImageHandler(w http.ResponseWriter, r *http.Request) {
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

	url := app.uploadImage(w, r, "destinations", id)
	if url == "" {
		return
	}

	if err := app.store.Destinations.SetImage(r.Context(), id, url); err != nil {
		app.storeError(w, r, err)
		return
	}
	app.replaceImage(r.Context(), d.ImageURL, url)

	if err := app.jsonResponse(w, http.StatusOK, imageResponse{ImageURL: url}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// uploadGuideImageHandler godoc
//
//	@Summary		Upload guide photo
//	@Tags			Admin Guides
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			id		path		string	true	"Guide ID"
//	@Param			image	formData	file	true	"JPEG, PNG or WebP up to 5MB"
//	@Success		200		{object}	imageResponse
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		401		{object}	error	"Unauthorized"
//	@Failure		404		{object}	error	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/admin/guides/{id}/image [post]
func (app *application) uploadGuideImageHandler(w http.ResponseWriter, r *http.Request) {
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

	url := app.uploadImage(w, r, "guides", id)
	if url == "" {
		return
	}

	if err := app.store.Guides.SetImage(r.Context(), id, url); err != nil {
		app.storeError(w, r, err)
		return
	}
	app.replaceImage(r.Context(), g.ImageURL, url)

	if err := app.jsonResponse(w, http.StatusOK, imageResponse{ImageURL: url}); err != nil {
		app.internalServerError(w, r, err)
	}
}
