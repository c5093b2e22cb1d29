package jobs

import (
	"fmt"
	"net/smtp"
	"strconv"
	"strings"
)

// Mailer delivers a single message.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer delivers mail over a plain SMTP relay such as Mailpit in
// development or a provider relay in production.
type SMTPMailer struct {
	Host string
	Port int
	From string
}

// Send composes the message and hands it to the relay.
func (m SMTPMailer) Send(to, subject, body string) error {
	addr := m.Host + ":" + strconv.Itoa(m.Port)
	msg := strings.Join([]string{
		"From: " + m.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")
	if err := smtp.SendMail(addr, nil, m.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("jobs: send mail to %s: %w", to, err)
	}
	return nil
}
