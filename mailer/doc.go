// Package mailer renders registration mail from embedded templates and hands
// it to a transport, or to a queue when the email.queue setting is on.
//
// Transports:
//   - SMTPTransport delivers through net/smtp
//   - LogTransport writes the envelope to the logger and counts as sent
//
// A Mailer without a transport sends nothing and reports zero messages.
package mailer
