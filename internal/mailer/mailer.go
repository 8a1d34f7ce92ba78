package mailer

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"text/template"
)

const (
	FromName                 = "Voyago"
	maxRetries               = 3
	BookingConfirmedTemplate = "booking_confirmed.tmpl"
	ContactMessageTemplate   = "contact_message.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile, username, email string, data any) error
}

// ReplyTo is implemented by template data that wants replies to go to
// someone other than the sender, e.g. the author of a contact message.
type ReplyTo interface {
	ReplyAddress() string
}

// Rendered is a template executed into its three parts.
type Rendered struct {
	Subject string
	Plain   string
	HTML    string
}

// Render executes the "subject", "plainBody" and "htmlBody" blocks of
// templateFile. The HTML part is escaped with html/template.
func Render(templateFile string, data any) (*Rendered, error) {
	path := "templates/" + templateFile

	tmpl, err := template.New("email").ParseFS(FS, path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", templateFile, err)
	}

	var subject, plain bytes.Buffer
	if err := tmpl.ExecuteTemplate(&subject, "subject", data); err != nil {
		return nil, err
	}
	if err := tmpl.ExecuteTemplate(&plain, "plainBody", data); err != nil {
		return nil, err
	}

	htmlTmpl, err := htmltemplate.New("email").ParseFS(FS, path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", templateFile, err)
	}
	var html bytes.Buffer
	if err := htmlTmpl.ExecuteTemplate(&html, "htmlBody", data); err != nil {
		return nil, err
	}

	return &Rendered{Subject: subject.String(), Plain: plain.String(), HTML: html.String()}, nil
}
