// Package command exposes go-command compatible handlers for the user
// registration workflow: rendering the signup form, creating the account
// inside a single transaction and dispatching the credential email.
// Outcomes are reported to a types.Listener; handlers return errors only for
// wiring faults.
package command
