package main

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"
	"time"
)

// Emailer delivers the briefing and missing-field alerts over SMTP.
type Emailer struct {
	settings EmailSettings
	password string
}

// NewEmailer creates an emailer. password comes from the environment
// (SMTP_PASSWORD); an empty password disables authentication.
func NewEmailer(settings EmailSettings, password string) *Emailer {
	return &Emailer{settings: settings, password: password}
}

// SendBriefing emails the rendered briefing.
func (e *Emailer) SendBriefing(content string, date time.Time) error {
	subject := fmt.Sprintf("Daily Briefing - %s", date.Format("Monday, January 2, 2006"))
	return e.send(subject, content)
}

// SendAlert emails the list of fields that came back unavailable.
func (e *Emailer) SendAlert(missing []string, date time.Time) error {
	subject := fmt.Sprintf("Briefing Alert: %d missing fields - %s", len(missing), date.Format("2006-01-02"))
	body := "The following briefing fields were unavailable:\n\n- " + strings.Join(missing, "\n- ") + "\n"
	return e.send(subject, body)
}

func (e *Emailer) send(subject, body string) error {
	if e.settings.Host == "" || e.settings.To == "" {
		return fmt.Errorf("email not configured: host and to are required")
	}

	addr := fmt.Sprintf("%s:%d", e.settings.Host, e.settings.Port)
	msg := strings.Join([]string{
		"From: " + e.settings.From,
		"To: " + e.settings.To,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="utf-8"`,
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if e.password != "" {
		auth = smtp.PlainAuth("", e.settings.From, e.password, e.settings.Host)
	}

	if err := smtp.SendMail(addr, auth, e.settings.From, []string{e.settings.To}, []byte(msg)); err != nil {
		return fmt.Errorf("sending mail via %s: %w", addr, err)
	}

	log.Printf("Email sent: %s", subject)
	return nil
}
