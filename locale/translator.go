// Package locale holds the message catalog used for form labels and mail
// subjects. Messages are registered with go-playground/universal-translator
// and use positional {0} placeholders.
package locale

import (
	"fmt"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/goliatone/go-registration/pkg/types"
)

// Message keys served by the default catalog.
const (
	KeyRegisterTitle      = "title.register"
	KeyCredentialRegister = "email.credential.register"
	KeyFieldEmail         = "label.email"
	KeyFieldFullname      = "label.fullname"
	KeySubmit             = "label.submit"
	KeyEmailTaken         = "validation.email.taken"
)

// DefaultMessages is the English catalog.
var DefaultMessages = map[string]string{
	KeyRegisterTitle:      "Register",
	KeyCredentialRegister: "Your account credentials on {0}",
	KeyFieldEmail:         "E-mail Address",
	KeyFieldFullname:      "Full Name",
	KeySubmit:             "Submit",
	KeyEmailTaken:         "{0} has already been taken",
}

// Translator resolves catalog keys. Unknown keys resolve to themselves.
type Translator struct {
	trans ut.Translator
}

var _ types.Translator = (*Translator)(nil)

// New builds an English translator seeded with DefaultMessages and extra.
// Entries in extra override the defaults.
func New(extra map[string]string) (*Translator, error) {
	english := en.New()
	uni := ut.New(english, english)
	trans, found := uni.GetTranslator(english.Locale())
	if !found {
		return nil, fmt.Errorf("locale: translator %q not found", english.Locale())
	}
	for key, text := range DefaultMessages {
		if err := trans.Add(key, text, false); err != nil {
			return nil, fmt.Errorf("locale: add %q: %w", key, err)
		}
	}
	for key, text := range extra {
		if err := trans.Add(key, text, true); err != nil {
			return nil, fmt.Errorf("locale: add %q: %w", key, err)
		}
	}
	return &Translator{trans: trans}, nil
}

// Must is New that panics on error. It suits package level defaults.
func Must(extra map[string]string) *Translator {
	t, err := New(extra)
	if err != nil {
		panic(err)
	}
	return t
}

// Translate implements types.Translator.
func (t *Translator) Translate(key string, params ...string) string {
	if t == nil || t.trans == nil {
		return key
	}
	out, err := t.trans.T(key, params...)
	if err != nil || out == "" {
		return key
	}
	return out
}

// Universal exposes the underlying translator so validators can register
// their messages on the same catalog.
func (t *Translator) Universal() ut.Translator {
	return t.trans
}
