// Package settings is the persistent key/value memory consulted by the
// registration workflow (site name, member role, mail queue toggle).
//
// Values are stored one row per key and merged over configured defaults with
// go-options, so a persisted entry always wins over its default.
package settings
