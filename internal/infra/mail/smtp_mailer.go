package mail

import (
	"fmt"
	"net/smtp"
)

// SMTPMailer sends HTML email over plain SMTP. Delivery is best-effort by
// contract: callers log failures and move on.
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	sender   string
}

func NewSMTPMailer(host, port, username, password, sender string) *SMTPMailer {
	if sender == "" {
		sender = "no-reply@localhost"
	}
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		sender:   sender,
	}
}

// Send delivers one HTML email to a single recipient.
func (m *SMTPMailer) Send(to string, subject string, htmlBody string) error {
	var auth smtp.Auth
	if m.username != "" && m.password != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	addr := fmt.Sprintf("%s:%s", m.host, m.port)
	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", m.sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			htmlBody,
	)

	if err := smtp.SendMail(addr, auth, m.sender, []string{to}, msg); err != nil {
		return fmt.Errorf("error sending mail to %s via %s: %w", to, addr, err)
	}
	return nil
}
