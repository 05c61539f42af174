// Package registry contains the Bun-backed role registry. Roles are keyed by
// integer ids so hosts can point the member role setting at a row number;
// assignments live in user_roles and are synchronized inside the caller's
// transaction.
package registry
