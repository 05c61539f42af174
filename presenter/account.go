// Package presenter builds form descriptors for account screens.
package presenter

import (
	"github.com/goliatone/go-registration/locale"
	"github.com/goliatone/go-registration/pkg/types"
)

// FormUserAccount names the account form; listeners publish and receive it
// under this name.
const FormUserAccount = "user.account"

// Account presents the user account form.
type Account struct {
	translator types.Translator
}

var _ types.FormPresenter = (*Account)(nil)

// NewAccount returns an Account presenter. A nil translator leaves labels as
// their catalog keys.
func NewAccount(translator types.Translator) *Account {
	return &Account{translator: translator}
}

// Profile returns the account form bound to user and submitting to action.
func (a *Account) Profile(user *types.User, action string) *types.Form {
	return &types.Form{
		Name:   FormUserAccount,
		Action: action,
		Model:  user,
		Fields: []types.FormField{
			{Name: "email", Label: a.translate(locale.KeyFieldEmail), Type: "email", Required: true},
			{Name: "fullname", Label: a.translate(locale.KeyFieldFullname), Type: "text", Required: true},
		},
		Submit: a.translate(locale.KeySubmit),
		Attributes: map[string]string{
			"method": "POST",
			"class":  "form-horizontal",
		},
	}
}

func (a *Account) translate(key string) string {
	if a.translator == nil {
		return key
	}
	return a.translator.Translate(key)
}
