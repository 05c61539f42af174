package registration

import "github.com/goliatone/go-registration/service"

// Re-export the service package entry point so consumers can do
// `registration.New(...)` without importing internal wiring helpers.
type (
	Service  = service.Service
	Config   = service.Config
	Commands = service.Commands
	Queries  = service.Queries
)

// New constructs the go-registration runtime using the provided configuration.
func New(cfg Config) *Service {
	return service.New(cfg)
}
