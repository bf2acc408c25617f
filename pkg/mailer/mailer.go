package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	mail "github.com/wneessen/go-mail"
)

// Config contains SMTP settings for outbound notification email.
type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	ReplyTo   string
	UseTLS    bool
	UseSSL    bool
}

// Service sends notification email over SMTP. With no host/from configured
// the service is a logging no-op.
type Service struct {
	cfg    Config
	logger zerolog.Logger
}

// New constructs a mailer service instance.
func New(cfg Config, logger zerolog.Logger) *Service {
	if cfg.Port <= 0 {
		cfg.Port = 587
	}

	return &Service{
		cfg:    cfg,
		logger: logger.With().Str("component", "mailer").Logger(),
	}
}

// Enabled reports whether SMTP delivery is configured.
func (s *Service) Enabled() bool {
	return s.cfg.Host != "" && s.cfg.FromEmail != ""
}

// Send delivers a plain-text message with an optional HTML alternative.
func (s *Service) Send(ctx context.Context, to, subject, textBody, htmlBody string) error {
	if !s.Enabled() {
		s.logger.Debug().Msg("smtp not configured, skipping email")
		return nil
	}

	msg := mail.NewMsg()
	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.FromEmail); err != nil {
			return fmt.Errorf("invalid from address: %w", err)
		}
	} else {
		if err := msg.From(s.cfg.FromEmail); err != nil {
			return fmt.Errorf("invalid from address: %w", err)
		}
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	if s.cfg.ReplyTo != "" {
		if err := msg.ReplyTo(s.cfg.ReplyTo); err != nil {
			return fmt.Errorf("invalid reply-to address: %w", err)
		}
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, textBody)
	if htmlBody != "" {
		msg.AddAlternativeString(mail.TypeTextHTML, htmlBody)
	}

	options := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTimeout(10 * time.Second),
	}
	if s.cfg.Username != "" {
		options = append(options,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	switch {
	case s.cfg.UseSSL:
		options = append(options, mail.WithSSLPort(false))
	case s.cfg.UseTLS:
		options = append(options, mail.WithTLSPortPolicy(mail.TLSMandatory))
	default:
		options = append(options, mail.WithTLSPortPolicy(mail.NoTLS))
	}

	client, err := mail.NewClient(s.cfg.Host, options...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
