package common

import "github.com/rs/zerolog"

// EmailSender is the boundary for outbound mail. Delivery infrastructure
// lives outside this service; the worker only hands order notifications
// across this interface.
type EmailSender interface {
	Send(to, subject, html string) error
}

// Email is one captured outbound message.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// InMemoryEmail records messages so tests can inspect what would be sent.
type InMemoryEmail struct {
	Outbox []Email
}

func (m *InMemoryEmail) Send(to, subject, html string) error {
	if m == nil {
		return nil
	}
	m.Outbox = append(m.Outbox, Email{To: to, Subject: subject, HTML: html})
	return nil
}

// LogEmail writes the handoff to the structured log instead of delivering.
// Used in environments with no mail pipeline attached.
type LogEmail struct {
	Logger zerolog.Logger
}

func (l LogEmail) Send(to, subject, _ string) error {
	l.Logger.Info().Str("to", to).Str("subject", subject).Msg("email handed off")
	return nil
}

// NopEmailSender drops messages silently.
type NopEmailSender struct{}

func (NopEmailSender) Send(string, string, string) error { return nil }
