package settings

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/goliatone/go-registration/pkg/types"
)

// String reads key as a string. Blank values fall back.
func String(ctx context.Context, store types.SettingsStore, key, fallback string) string {
	if store == nil {
		return fallback
	}
	if v, ok := store.Get(ctx, key, fallback).(string); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

// Bool reads key as a boolean. Strings such as "true" or "1" are accepted.
func Bool(ctx context.Context, store types.SettingsStore, key string, fallback bool) bool {
	if store == nil {
		return fallback
	}
	switch v := store.Get(ctx, key, fallback).(type) {
	case bool:
		return v
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fallback
		}
		return parsed
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	default:
		return fallback
	}
}

// Int64 reads key as an integer. JSON numbers decode as float64 and are
// converted when they carry no fraction.
func Int64(ctx context.Context, store types.SettingsStore, key string, fallback int64) int64 {
	if store == nil {
		return fallback
	}
	switch v := store.Get(ctx, key, fallback).(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case int32:
		return int64(v)
	case float64:
		if v != float64(int64(v)) {
			return fallback
		}
		return int64(v)
	case json.Number:
		parsed, err := v.Int64()
		if err != nil {
			return fallback
		}
		return parsed
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fallback
		}
		return parsed
	default:
		return fallback
	}
}
