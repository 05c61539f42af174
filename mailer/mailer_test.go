package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/goliatone/go-registration/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type credentialData struct {
	Password string
	Site     string
	User     struct {
		Email    string
		Fullname string
	}
}

func newCredentialData() credentialData {
	data := credentialData{Password: "aB3dE", Site: "Orchestra Platform"}
	data.User.Email = "ada@example.com"
	data.User.Fullname = "Ada <Lovelace>"
	return data
}

func TestRenderer_DefaultTemplates(t *testing.T) {
	r, err := NewRenderer(nil)
	require.NoError(t, err)

	html, text, err := r.Render("email.credential.register", newCredentialData())
	require.NoError(t, err)
	require.Contains(t, html, "aB3dE")
	require.Contains(t, html, "Ada &lt;Lovelace&gt;")
	require.Contains(t, text, "Ada <Lovelace>")
	require.Contains(t, text, "Welcome to Orchestra Platform")

	_, _, err = r.Render("missing", nil)
	require.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestRenderer_TextOnlyTemplates(t *testing.T) {
	r, err := NewRenderer(fstest.MapFS{
		"greeting.txt": &fstest.MapFile{Data: []byte("hello {{.}}")},
	})
	require.NoError(t, err)

	html, text, err := r.Render("greeting", "world")
	require.NoError(t, err)
	require.Empty(t, html)
	require.Equal(t, "hello world", text)
}

func TestMailer_PushSendsInline(t *testing.T) {
	transport := &recordingTransport{}
	m := newTestMailer(t, Config{Transport: transport})

	sent, err := m.Push(context.Background(), "email.credential.register", newCredentialData(), func(msg *types.Message) {
		msg.SetSubject("Your account credentials on Orchestra Platform").AddTo("ada@example.com", "Ada")
	})
	require.NoError(t, err)
	require.Len(t, sent, 1)
	require.Equal(t, "Your account credentials on Orchestra Platform", sent[0].Subject)
	require.Equal(t, []types.Address{{Email: "ada@example.com", Name: "Ada"}}, sent[0].To)
	require.Equal(t, fixedTime, sent[0].SentAt)

	require.Len(t, transport.messages, 1)
	require.Equal(t, types.Address{Email: "noreply@example.com", Name: "Orchestra"}, transport.messages[0].From)
	require.Contains(t, transport.messages[0].HTMLBody, "aB3dE")
}

func TestMailer_PushQueuesWhenEnabled(t *testing.T) {
	transport := &recordingTransport{}
	queue := &recordingQueue{}
	m := newTestMailer(t, Config{
		Transport: transport,
		Queue:     queue,
		Settings:  mapSettings{types.SettingEmailQueue: true},
	})

	sent, err := m.Push(context.Background(), "email.credential.register", newCredentialData(), func(msg *types.Message) {
		msg.AddTo("ada@example.com", "Ada")
	})
	require.NoError(t, err)
	require.Empty(t, sent)
	require.Empty(t, transport.messages)
	require.Len(t, queue.messages, 1)
	require.Equal(t, "email.credential.register", queue.messages[0].Template)
}

func TestMailer_PushSendsInlineWhenQueueSettingOff(t *testing.T) {
	transport := &recordingTransport{}
	queue := &recordingQueue{}
	m := newTestMailer(t, Config{
		Transport: transport,
		Queue:     queue,
		Settings:  mapSettings{types.SettingEmailQueue: false},
	})

	sent, err := m.Push(context.Background(), "email.credential.register", newCredentialData(), func(msg *types.Message) {
		msg.AddTo("ada@example.com", "Ada")
	})
	require.NoError(t, err)
	require.Len(t, sent, 1)
	require.Empty(t, queue.messages)
}

func TestMailer_Failures(t *testing.T) {
	ctx := context.Background()

	m := newTestMailer(t, Config{Transport: &recordingTransport{err: errors.New("relay down")}})
	_, err := m.Push(ctx, "email.credential.register", newCredentialData(), func(msg *types.Message) {
		msg.AddTo("ada@example.com", "")
	})
	require.EqualError(t, err, "relay down")

	_, err = m.Push(ctx, "email.credential.register", newCredentialData(), nil)
	require.ErrorIs(t, err, ErrNoRecipients)

	_, err = m.Push(ctx, "unknown.template", nil, nil)
	require.ErrorIs(t, err, ErrTemplateNotFound)

	queueFailure := newTestMailer(t, Config{
		Queue:    &recordingQueue{err: errors.New("broker down")},
		Settings: mapSettings{types.SettingEmailQueue: "true"},
	})
	_, err = queueFailure.Push(ctx, "email.credential.register", newCredentialData(), func(msg *types.Message) {
		msg.AddTo("ada@example.com", "")
	})
	require.EqualError(t, err, "broker down")
}

func TestMailer_WithoutTransportSendsNothing(t *testing.T) {
	m := newTestMailer(t, Config{})
	sent, err := m.Push(context.Background(), "email.credential.register", newCredentialData(), func(msg *types.Message) {
		msg.AddTo("ada@example.com", "")
	})
	require.NoError(t, err)
	require.Empty(t, sent)
}

func TestSMTPTransport_BuildsMultipartMessage(t *testing.T) {
	transport, err := NewSMTPTransport(SMTPConfig{Host: "smtp.example.com", Port: 2525, Username: "user", Password: "pass"})
	require.NoError(t, err)

	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotBody string
	)
	transport.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotBody = addr, from, to, string(msg)
		return nil
	}

	err = transport.Send(context.Background(), &types.Message{
		Subject:  "Welcome",
		From:     types.Address{Email: "noreply@example.com", Name: "Orchestra"},
		To:       []types.Address{{Email: "ada@example.com", Name: "Ada"}},
		HTMLBody: "<p>hi</p>",
		TextBody: "hi",
	})
	require.NoError(t, err)
	require.Equal(t, "smtp.example.com:2525", gotAddr)
	require.Equal(t, "noreply@example.com", gotFrom)
	require.Equal(t, []string{"ada@example.com"}, gotTo)
	require.Contains(t, gotBody, "Subject: Welcome\r\n")
	require.Contains(t, gotBody, "To: Ada <ada@example.com>\r\n")
	require.Contains(t, gotBody, "multipart/alternative")
	require.Contains(t, gotBody, "<p>hi</p>")
	require.True(t, strings.Index(gotBody, "text/plain") < strings.Index(gotBody, "text/html"))
}

func TestSMTPTransport_RequiresHost(t *testing.T) {
	_, err := NewSMTPTransport(SMTPConfig{})
	require.Error(t, err)
}

var fixedTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestMailer(t *testing.T, cfg Config) *Mailer {
	t.Helper()
	cfg.From = types.Address{Email: "noreply@example.com", Name: "Orchestra"}
	cfg.Clock = fixedClock{t: fixedTime}
	cfg.IDGen = fixedIDGenerator{id: uuid.MustParse("11111111-1111-1111-1111-111111111111")}
	m, err := New(cfg)
	require.NoError(t, err)
	return m
}

type recordingTransport struct {
	messages []*types.Message
	err      error
}

func (r *recordingTransport) Name() string { return "recording" }

func (r *recordingTransport) Send(_ context.Context, msg *types.Message) error {
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, msg)
	return nil
}

type recordingQueue struct {
	messages []*types.Message
	err      error
}

func (r *recordingQueue) Enqueue(_ context.Context, msg *types.Message) error {
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, msg)
	return nil
}

type mapSettings map[string]any

func (m mapSettings) Get(_ context.Context, key string, fallback any) any {
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time {
	return c.t
}

type fixedIDGenerator struct {
	id uuid.UUID
}

func (g fixedIDGenerator) UUID() uuid.UUID {
	return g.id
}
