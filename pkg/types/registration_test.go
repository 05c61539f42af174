package types

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFieldErrors(t *testing.T) {
	errs := FieldErrors{}
	require.False(t, errs.HasErrors())

	errs.Add("email", "email is required")
	errs.Add("email", "email must be valid")
	require.True(t, errs.HasErrors())
	require.Equal(t, "email is required", errs.First("email"))
	require.Equal(t, "", errs.First("fullname"))
	require.Equal(t, []string{"email"}, errs.Fields())
}

func TestOutcomeRecorderKeepsLastOutcome(t *testing.T) {
	ctx := context.Background()
	rec := &OutcomeRecorder{}
	require.Equal(t, OutcomeNone, rec.Outcome())

	rec.CreateFailed(ctx, FailureView{Error: "boom"})
	require.Equal(t, OutcomeCreationFailed, rec.Outcome())
	require.Equal(t, "boom", rec.Failure().Error)
	require.Equal(t, 1, rec.Calls())

	user := &User{Email: "a@example.com"}
	rec.IndexSucceed(ctx, FormView{User: user, Form: &Form{Name: "account"}})
	require.Equal(t, OutcomeFormRendered, rec.Outcome())
	require.Same(t, user, rec.View().User)
	require.Equal(t, 2, rec.Calls())
}

func TestUserClone(t *testing.T) {
	user := &User{Email: "a@example.com", Password: "secret", PasswordHash: "hash", Roles: []RoleID{2}}
	clone := user.Clone()
	clone.Roles[0] = 1
	require.Equal(t, RoleID(2), user.Roles[0])
	require.Equal(t, "secret", clone.Password)
}

func TestFormExtend(t *testing.T) {
	form := &Form{Fields: []FormField{{Name: "email"}}}
	form.Extend(func(f *Form) { f.Submit = "Register" })
	require.Equal(t, "Register", form.Submit)

	_, ok := form.Field("email")
	require.True(t, ok)
	_, ok = form.Field("missing")
	require.False(t, ok)
}

func TestRegistrationInputNormalize(t *testing.T) {
	in := RegistrationInput{Email: "  a@example.com ", Fullname: " Ada "}.Normalize()
	require.Equal(t, "a@example.com", in.Email)
	require.Equal(t, "Ada", in.Fullname)
}
