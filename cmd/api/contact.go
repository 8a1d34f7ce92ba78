package main

import (
	"net/http"
	"strings"

	"voyago/internal/domain/contacts"
	"voyago/internal/mailer"
	"voyago/internal/schema"
)

// createContactHandler godoc
//
//	@Summary		Send a contact message
//	@Description	Stores the message, notifies the admins and forwards it to the team inbox.
//	@Tags			Contact
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		schema.ContactInput	true	"Message"
//	@Success		201		{object}	contacts.Message
//	@Failure		400		{object}	ErrorValidationResponse
//	@Failure		429		{object}	error	"Too many requests"
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Router			/contact [post]
func (app *application) createContactHandler(w http.ResponseWriter, r *http.Request) {
	var payload schema.ContactInput
	if !app.decodeAndValidate(w, r, &payload) {
		return
	}

	m := &contacts.Message{
		Name:    strings.TrimSpace(payload.Name),
		Email:   strings.ToLower(payload.Email),
		Subject: strings.TrimSpace(payload.Subject),
		Message: payload.Message,
	}
	if err := app.store.Contacts.Create(r.Context(), m); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	// the message is stored; a failed forward is only logged
	if app.mailer != nil {
		data := mailer.ContactData{Name: m.Name, Email: m.Email, Subject: m.Subject, Message: m.Message}
		if err := app.mailer.Send(mailer.ContactMessageTemplate, "Voyago team", app.config.Mail.ContactInbox, data); err != nil {
			app.logger.Errorw("failed to forward contact message", "id", m.ID, "error", err)
		}
	}

	if err := app.jsonResponse(w, http.StatusCreated, m); err != nil {
		app.internalServerError(w, r, err)
	}
}
