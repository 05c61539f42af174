package main

import (
	"context"

	featuregate "github.com/goliatone/go-featuregate/gate"
)

// configGate resolves the signup feature from static configuration. Every
// other key is enabled.
type configGate struct {
	signup bool
}

func newConfigGate(signup bool) configGate {
	return configGate{signup: signup}
}

func (g configGate) Enabled(_ context.Context, key string, _ ...featuregate.ResolveOption) (bool, error) {
	if key == featuregate.FeatureUsersSignup {
		return g.signup, nil
	}
	return true, nil
}
