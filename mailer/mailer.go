package mailer

import (
	"context"
	"errors"

	"github.com/goliatone/go-registration/pkg/types"
	"github.com/goliatone/go-registration/settings"
)

// ErrNoRecipients indicates a message without any To address.
var ErrNoRecipients = errors.New("mailer: message has no recipients")

// Queue accepts rendered messages for deferred delivery.
type Queue interface {
	Enqueue(ctx context.Context, msg *types.Message) error
}

// Config wires a Mailer.
type Config struct {
	Renderer  *Renderer
	Transport Transport
	Queue     Queue
	Settings  types.SettingsStore
	From      types.Address
	Clock     types.Clock
	IDGen     types.IDGenerator
	Logger    types.Logger
}

// Mailer implements types.Mailer.
type Mailer struct {
	renderer  *Renderer
	transport Transport
	queue     Queue
	settings  types.SettingsStore
	from      types.Address
	clock     types.Clock
	idGen     types.IDGenerator
	logger    types.Logger
}

var _ types.Mailer = (*Mailer)(nil)

// New constructs a Mailer. A nil Renderer uses the embedded templates.
func New(cfg Config) (*Mailer, error) {
	renderer := cfg.Renderer
	if renderer == nil {
		var err error
		renderer, err = NewRenderer(nil)
		if err != nil {
			return nil, err
		}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	idGen := cfg.IDGen
	if idGen == nil {
		idGen = types.UUIDGenerator{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &Mailer{
		renderer:  renderer,
		transport: cfg.Transport,
		queue:     cfg.Queue,
		settings:  cfg.Settings,
		from:      cfg.From,
		clock:     clock,
		idGen:     idGen,
		logger:    logger,
	}, nil
}

// Push renders template, applies configure and either queues or sends the
// message. Queued messages are not reported as sent.
func (m *Mailer) Push(ctx context.Context, template string, data any, configure func(*types.Message)) ([]types.SentMessage, error) {
	msg, err := m.Compose(template, data, configure)
	if err != nil {
		return nil, err
	}
	if m.queue != nil && settings.Bool(ctx, m.settings, types.SettingEmailQueue, false) {
		if err := m.queue.Enqueue(ctx, msg); err != nil {
			return nil, err
		}
		m.logger.Debug("mail queued", "template", template, "to", formatAddresses(msg.To))
		return nil, nil
	}
	return m.Send(ctx, msg)
}

// Compose renders template into a message addressed from the configured sender.
func (m *Mailer) Compose(template string, data any, configure func(*types.Message)) (*types.Message, error) {
	html, text, err := m.renderer.Render(template, data)
	if err != nil {
		return nil, err
	}
	msg := &types.Message{
		Template: template,
		From:     m.from,
		HTMLBody: html,
		TextBody: text,
	}
	if configure != nil {
		configure(msg)
	}
	return msg, nil
}

// Send delivers msg through the transport right away.
func (m *Mailer) Send(ctx context.Context, msg *types.Message) ([]types.SentMessage, error) {
	if msg == nil || len(msg.To) == 0 {
		return nil, ErrNoRecipients
	}
	if m.transport == nil {
		m.logger.Info("mail transport disabled, message dropped", "template", msg.Template)
		return nil, nil
	}
	if err := m.transport.Send(ctx, msg); err != nil {
		return nil, err
	}
	sent := types.SentMessage{
		ID:      m.idGen.UUID().String(),
		Subject: msg.Subject,
		To:      append([]types.Address(nil), msg.To...),
		SentAt:  m.clock.Now(),
	}
	m.logger.Debug("mail sent", "transport", m.transport.Name(), "message_id", sent.ID)
	return []types.SentMessage{sent}, nil
}
