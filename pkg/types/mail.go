package types

import (
	"context"
	"time"
)

// Address is a mailbox with an optional display name.
type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Message is the envelope a mailer renders and delivers. Callers mutate it
// through the configure callback passed to Mailer.Push.
type Message struct {
	Template string    `json:"template"`
	Subject  string    `json:"subject"`
	From     Address   `json:"from"`
	To       []Address `json:"to"`
	HTMLBody string    `json:"html_body,omitempty"`
	TextBody string    `json:"text_body,omitempty"`
}

// SetSubject replaces the subject line.
func (m *Message) SetSubject(subject string) *Message {
	m.Subject = subject
	return m
}

// AddTo appends a recipient.
func (m *Message) AddTo(email, name string) *Message {
	m.To = append(m.To, Address{Email: email, Name: name})
	return m
}

// SentMessage reports a message handed to a transport.
type SentMessage struct {
	ID      string
	Subject string
	To      []Address
	SentAt  time.Time
}

// Mailer renders template with data, lets configure adjust the envelope and
// delivers it. It returns the messages actually sent; queued messages are not
// reported.
type Mailer interface {
	Push(ctx context.Context, template string, data any, configure func(*Message)) ([]SentMessage, error)
}
