package mailer

import (
	"fmt"
	"time"

	"gopkg.in/mail.v2"
)

type SMTPMailer struct {
	dialer    *mail.Dialer
	fromEmail string
	retryWait time.Duration
}

func NewSMTPMailer(host string, port int, username, password, fromEmail string) (*SMTPMailer, error) {
	if host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if fromEmail == "" {
		return nil, fmt.Errorf("from email is required")
	}

	return &SMTPMailer{
		dialer:    mail.NewDialer(host, port, username, password),
		fromEmail: fromEmail,
		retryWait: time.Second,
	}, nil
}

// Send renders templateFile with data and delivers it to email, retrying with
// a linear backoff.
func (m *SMTPMailer) Send(templateFile, username, email string, data any) error {
	r, err := Render(templateFile, data)
	if err != nil {
		return err
	}

	msg := mail.NewMessage()
	msg.SetAddressHeader("From", m.fromEmail, FromName)
	msg.SetAddressHeader("To", email, username)
	if rt, ok := data.(ReplyTo); ok && rt.ReplyAddress() != "" {
		msg.SetHeader("Reply-To", rt.ReplyAddress())
	}
	msg.SetHeader("Subject", r.Subject)
	msg.SetBody("text/plain", r.Plain)
	msg.AddAlternative("text/html", r.HTML)

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if lastErr = m.dialer.DialAndSend(msg); lastErr == nil {
			return nil
		}
		time.Sleep(m.retryWait * time.Duration(i+1))
	}
	return fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}

// ContactData fills contact_message.tmpl; replies go to the visitor.
type ContactData struct {
	Name    string
	Email   string
	Subject string
	Message string
}

func (c ContactData) ReplyAddress() string { return c.Email }

// LogMailer records sends instead of delivering them. It stands in when SMTP
// is not configured.
type LogMailer struct {
	Logf func(template string, args ...any)
}

func (l LogMailer) Send(templateFile, username, email string, data any) error {
	r, err := Render(templateFile, data)
	if err != nil {
		return err
	}
	if l.Logf != nil {
		l.Logf("mail not sent (smtp disabled) to=%s subject=%q", email, r.Subject)
	}
	return nil
}
