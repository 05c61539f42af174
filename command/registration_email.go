package command

import (
	"context"
	"time"

	"github.com/goliatone/go-registration/locale"
	"github.com/goliatone/go-registration/pkg/types"
	"github.com/goliatone/go-registration/settings"
	"github.com/google/uuid"
)

// TemplateCredentialRegister is the mail template carrying the initial credentials.
const TemplateCredentialRegister = "email.credential.register"

// RegistrationMail is the template payload of the credential email.
type RegistrationMail struct {
	Password string   `json:"password"`
	Site     string   `json:"site"`
	User     MailUser `json:"user"`
}

// MailUser is the serializable view of the registered account.
type MailUser struct {
	ID        uuid.UUID        `json:"id"`
	Email     string           `json:"email"`
	Fullname  string           `json:"fullname"`
	Status    types.UserStatus `json:"status"`
	Roles     []types.RoleID   `json:"roles,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

func toMailUser(user *types.User) MailUser {
	if user == nil {
		return MailUser{}
	}
	return MailUser{
		ID:        user.ID,
		Email:     user.Email,
		Fullname:  user.Fullname,
		Status:    user.Status,
		Roles:     append([]types.RoleID(nil), user.Roles...),
		CreatedAt: user.CreatedAt,
	}
}

// sendRegistrationEmail pushes the credential email and reports Created or
// CreatedWithoutNotification. It returns whether the user counts as notified.
func (c *UserRegistrationCommand) sendRegistrationEmail(ctx context.Context, listener types.Listener, user *types.User, password string) bool {
	site := settings.String(ctx, c.settings, types.SettingSiteName, types.DefaultSiteName)
	payload := RegistrationMail{
		Password: password,
		Site:     site,
		User:     toMailUser(user),
	}
	subject := c.translator.Translate(locale.KeyCredentialRegister, site)

	sent, err := c.mailer.Push(ctx, TemplateCredentialRegister, payload, func(msg *types.Message) {
		msg.SetSubject(subject).AddTo(user.Email, user.Fullname)
	})
	if err != nil {
		c.logger.Error("registration email dispatch failed", err, "user_id", user.ID)
		sent = nil
	}

	queued := settings.Bool(ctx, c.settings, types.SettingEmailQueue, false)
	if !queued && len(sent) < 1 {
		listener.CreateSucceedWithoutNotification(ctx)
		return false
	}
	listener.CreateSucceed(ctx)
	return true
}
