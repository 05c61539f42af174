// Package accounts persists registered users with Bun. Reads go through a
// go-repository-bun repository; writes run inside a single transaction that
// also synchronizes role assignments.
package accounts
