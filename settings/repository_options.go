package settings

import "github.com/goliatone/go-repository-cache/cache"

// RepositoryOption configures NewRepository.
type RepositoryOption func(*repositoryOptions)

type repositoryOptions struct {
	CacheEnabled bool
	CacheConfig  *cache.Config
}

// WithCache wraps reads in the go-repository-cache decorator. Writes made
// through the decorated repository invalidate cached lists.
func WithCache(enabled bool) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.CacheEnabled = enabled
	}
}

// WithCacheConfig sets the cache configuration used by WithCache.
func WithCacheConfig(cfg cache.Config) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.CacheConfig = &cfg
	}
}

func applyRepositoryOptions(options []RepositoryOption) repositoryOptions {
	var opts repositoryOptions
	for _, opt := range options {
		if opt != nil {
			opt(&opts)
		}
	}
	return opts
}
