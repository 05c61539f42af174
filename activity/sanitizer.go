package activity

import (
	"sync"

	"github.com/goliatone/go-masker"
	"github.com/goliatone/go-registration/pkg/types"
)

var defaultMaskerOnce sync.Once

// DefaultMasker returns masker.Default with credential fields registered.
func DefaultMasker() *masker.Masker {
	defaultMaskerOnce.Do(func() {
		if masker.Default == nil {
			return
		}
		registerDefaultMaskFields(masker.Default)
	})
	return masker.Default
}

// SanitizeData masks credential fields in data. A masking failure drops the
// payload rather than leaking it.
func SanitizeData(mask *masker.Masker, data map[string]any) map[string]any {
	if len(data) == 0 {
		return data
	}
	if mask == nil {
		mask = DefaultMasker()
	}
	if mask == nil {
		return map[string]any{}
	}
	masked, err := mask.Mask(cloneMap(data))
	if err != nil {
		return map[string]any{}
	}
	if out, ok := masked.(map[string]any); ok {
		return out
	}
	return map[string]any{}
}

// SanitizeRecord masks the data payload of record.
func SanitizeRecord(mask *masker.Masker, record types.ActivityRecord) types.ActivityRecord {
	record.Data = SanitizeData(mask, record.Data)
	return record
}

func registerDefaultMaskFields(mask *masker.Masker) {
	for _, field := range []string{"password", "Password", "password_hash", "PasswordHash", "secret", "Secret"} {
		mask.RegisterMaskField(field, "filled4")
	}
}

func cloneMap(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
