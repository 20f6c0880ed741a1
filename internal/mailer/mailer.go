package mailer

import (
	"fmt"
	"net/smtp"
)

// Mailer dispatches password-reset mail.
type Mailer interface {
	SendPasswordReset(to, resetURL string) error
}

// SMTPMailer sends mail through an authenticated SMTP relay. The value is
// immutable after construction; per-message data is passed per call so
// concurrent requests never share mutable mail state.
type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
}

// NewSMTPMailer creates a mailer for the given relay and sender credentials.
func NewSMTPMailer(host string, port int, user, password string) *SMTPMailer {
	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", host, port),
		from: user,
		auth: smtp.PlainAuth("", user, password, host),
	}
}

// SendPasswordReset mails the reset link to the given recipient.
func (m *SMTPMailer) SendPasswordReset(to, resetURL string) error {
	body := fmt.Sprintf("<p>Hi there,<br> You have been requested to reset your password.<br>"+
		"please click on the link below to reset the password.<br>"+
		"<a href='%s' target='_blank'>%s</a><br>Thank you...</p>", resetURL, resetURL)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Reset your password\r\n"+
		"MIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s\r\n",
		m.from, to, body)

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send reset mail: %w", err)
	}
	return nil
}
