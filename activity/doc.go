// Package activity persists the audit trail of registrations. The Repository
// implements types.ActivitySink and masks sensitive payload fields with
// go-masker before anything reaches the database.
package activity
