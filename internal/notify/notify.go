package notify

import (
	"context"
	"encoding/json"
)

// Mail is the envelope handed to the external delivery workers. The
// server never speaks SMTP itself.
type Mail struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Backend publishes opaque payloads on a named channel.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// Mailer dispatches mail envelopes through a backend. A failed publish
// is the caller's problem: registration surfaces it as a server error
// rather than losing the activation link silently.
type Mailer struct {
	backend Backend
	channel string
}

// NewMailer constructs a Mailer publishing on the given channel.
func NewMailer(backend Backend, channel string) *Mailer {
	return &Mailer{backend: backend, channel: channel}
}

// Send publishes the envelope.
func (m *Mailer) Send(ctx context.Context, mail Mail) error {
	data, err := json.Marshal(mail)
	if err != nil {
		return err
	}
	_, err = m.backend.Publish(ctx, m.channel, data, map[string]string{
		"content-type": "application/json",
	})
	return err
}

// Close closes the underlying backend.
func (m *Mailer) Close() error {
	return m.backend.Close()
}
