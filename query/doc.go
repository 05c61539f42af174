// Package query exposes go-command Querier handlers that read registered
// accounts, the role catalog and the registration activity feed.
package query
