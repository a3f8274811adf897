// Package mailer abstracts the outbound email provider behind a small
// interface so the delivery pipeline can be tested without network calls.
package mailer

import "context"

// Message is one outbound email, fully rendered.
type Message struct {
	From       string            `json:"from"`
	FromName   string            `json:"from_name,omitempty"`
	To         string            `json:"to"`
	ReplyTo    string            `json:"reply_to,omitempty"`
	Subject    string            `json:"subject"`
	HTML       string            `json:"html"`
	Text       string            `json:"text"`
	Headers    map[string]string `json:"headers,omitempty"`
	Categories []string          `json:"categories,omitempty"`
}

// Result reports a provider-accepted send.
type Result struct {
	MessageID string `json:"message_id"`
}

// Mailer dispatches a rendered message to the provider.
type Mailer interface {
	Send(ctx context.Context, msg Message) (Result, error)
}
