package mailer

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/goliatone/go-registration/pkg/types"
)

// Transport delivers a rendered message.
type Transport interface {
	Name() string
	Send(ctx context.Context, msg *types.Message) error
}

// SMTPConfig configures SMTPTransport.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

type sendMailFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// SMTPTransport sends mail with net/smtp.
type SMTPTransport struct {
	addr     string
	auth     smtp.Auth
	sendMail sendMailFunc
}

// NewSMTPTransport validates cfg and builds the transport. Credentials are
// optional for local relays.
func NewSMTPTransport(cfg SMTPConfig) (*SMTPTransport, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("mailer: smtp host is required")
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPTransport{
		addr:     cfg.Host + ":" + strconv.Itoa(port),
		auth:     auth,
		sendMail: smtp.SendMail,
	}, nil
}

// Name implements Transport.
func (t *SMTPTransport) Name() string { return "smtp" }

// Send implements Transport.
func (t *SMTPTransport) Send(ctx context.Context, msg *types.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := buildMIME(msg)
	if err != nil {
		return err
	}
	to := make([]string, 0, len(msg.To))
	for _, addr := range msg.To {
		to = append(to, addr.Email)
	}
	if err := t.sendMail(t.addr, t.auth, msg.From.Email, to, body); err != nil {
		return fmt.Errorf("mailer: smtp send: %w", err)
	}
	return nil
}

// LogTransport writes messages to a logger instead of delivering them.
type LogTransport struct {
	logger types.Logger
}

// NewLogTransport builds a LogTransport.
func NewLogTransport(logger types.Logger) *LogTransport {
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &LogTransport{logger: logger}
}

// Name implements Transport.
func (t *LogTransport) Name() string { return "log" }

// Send implements Transport.
func (t *LogTransport) Send(_ context.Context, msg *types.Message) error {
	t.logger.Info("mail delivered to log",
		"template", msg.Template,
		"subject", msg.Subject,
		"to", formatAddresses(msg.To),
	)
	return nil
}

func buildMIME(msg *types.Message) ([]byte, error) {
	var buf bytes.Buffer
	writeHeader := func(key, value string) {
		buf.WriteString(key + ": " + value + "\r\n")
	}
	writeHeader("From", formatAddress(msg.From))
	writeHeader("To", formatAddresses(msg.To))
	writeHeader("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	writeHeader("MIME-Version", "1.0")

	switch {
	case msg.HTMLBody != "" && msg.TextBody != "":
		mw := multipart.NewWriter(&buf)
		writeHeader("Content-Type", "multipart/alternative; boundary="+mw.Boundary())
		buf.WriteString("\r\n")
		for _, part := range []struct{ contentType, body string }{
			{"text/plain; charset=UTF-8", msg.TextBody},
			{"text/html; charset=UTF-8", msg.HTMLBody},
		} {
			w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {part.contentType}})
			if err != nil {
				return nil, err
			}
			if _, err := w.Write([]byte(part.body)); err != nil {
				return nil, err
			}
		}
		if err := mw.Close(); err != nil {
			return nil, err
		}
	case msg.HTMLBody != "":
		writeHeader("Content-Type", "text/html; charset=UTF-8")
		buf.WriteString("\r\n" + msg.HTMLBody + "\r\n")
	default:
		writeHeader("Content-Type", "text/plain; charset=UTF-8")
		buf.WriteString("\r\n" + msg.TextBody + "\r\n")
	}
	return buf.Bytes(), nil
}

func formatAddress(addr types.Address) string {
	if addr.Name == "" {
		return addr.Email
	}
	return mime.QEncoding.Encode("utf-8", addr.Name) + " <" + addr.Email + ">"
}

func formatAddresses(addrs []types.Address) string {
	out := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		out = append(out, formatAddress(addr))
	}
	return strings.Join(out, ", ")
}
