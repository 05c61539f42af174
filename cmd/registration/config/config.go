package config

import (
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-persistence-bun"
)

// BaseConfig holds all configuration for the registration CLI.
type BaseConfig struct {
	Persistence  PersistenceConfig  `json:"persistence"`
	Mail         MailConfig         `json:"mail"`
	Broker       BrokerConfig       `json:"broker"`
	Registration RegistrationConfig `json:"registration"`
}

// PersistenceConfig implements persistence.Config interface
type PersistenceConfig struct {
	Debug          bool          `json:"debug" default:"false"`
	Driver         string        `json:"driver" default:"sqlite"`
	Server         string        `json:"server" env:"DB_SERVER" default:"file:registration.db?_journal_mode=WAL&_fk=1"`
	PingTimeout    time.Duration `json:"ping_timeout" default:"5s"`
	OtelIdentifier string        `json:"otel_identifier" default:"go-registration"`
}

func (c PersistenceConfig) GetDebug() bool                { return c.Debug }
func (c PersistenceConfig) GetDriver() string             { return c.Driver }
func (c PersistenceConfig) GetServer() string             { return c.Server }
func (c PersistenceConfig) GetPingTimeout() time.Duration { return c.PingTimeout }
func (c PersistenceConfig) GetOtelIdentifier() string     { return c.OtelIdentifier }

// MailConfig selects and configures the mail transport. Transport is one of
// "smtp", "log" or "none".
type MailConfig struct {
	Transport string `json:"transport" env:"MAIL_TRANSPORT" default:"log"`
	Host      string `json:"host" env:"SMTP_HOST"`
	Port      int    `json:"port" env:"SMTP_PORT" default:"587"`
	Username  string `json:"username" env:"SMTP_USERNAME"`
	Password  string `json:"password" env:"SMTP_PASSWORD"`
	FromEmail string `json:"from_email" env:"MAIL_FROM" default:"noreply@example.com"`
	FromName  string `json:"from_name" default:"Orchestra Platform"`
}

// BrokerConfig points at the RabbitMQ broker used for queued mail. An empty
// URL disables queueing.
type BrokerConfig struct {
	URL        string `json:"url" env:"AMQP_URL"`
	Exchange   string `json:"exchange" default:"registration.mail"`
	Queue      string `json:"queue" default:"registration.mail.send"`
	RoutingKey string `json:"routing_key" default:"mail.send"`
}

// RegistrationConfig seeds the settings store and the signup gate.
type RegistrationConfig struct {
	SiteName      string `json:"site_name" default:"Orchestra Platform"`
	MemberRoleID  int64  `json:"member_role_id" default:"2"`
	EmailQueue    bool   `json:"email_queue" env:"EMAIL_QUEUE"`
	SignupEnabled bool   `json:"signup_enabled" default:"true"`
	CacheSettings bool   `json:"cache_settings" default:"true"`
}

// GetPersistence returns persistence config
func (c *BaseConfig) GetPersistence() persistence.Config {
	return c.Persistence
}

// Validate implements config.Validable interface
func (c *BaseConfig) Validate() error {
	switch strings.ToLower(c.Mail.Transport) {
	case "", "log", "none":
	case "smtp":
		if strings.TrimSpace(c.Mail.Host) == "" {
			return errors.New("config: mail.host is required for the smtp transport")
		}
	default:
		return errors.New("config: mail.transport must be smtp, log or none")
	}
	if c.Registration.EmailQueue && strings.TrimSpace(c.Broker.URL) == "" {
		return errors.New("config: broker.url is required when email_queue is enabled")
	}
	return nil
}
