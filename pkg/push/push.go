package push

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"
)

// ErrSubscriptionGone indicates the push service rejected the endpoint as
// permanently invalid; the caller should prune the stored subscription.
var ErrSubscriptionGone = errors.New("push subscription gone")

// Config contains the VAPID material required for Web Push delivery.
type Config struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subscriber      string
	TTL             int
}

// Service sends Web Push messages signed with the configured VAPID keys.
// With no keys configured the service is a logging no-op.
type Service struct {
	cfg    Config
	logger zerolog.Logger
}

// New constructs a push service instance.
func New(cfg Config, logger zerolog.Logger) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = 86400
	}
	if cfg.Subscriber == "" {
		cfg.Subscriber = "admin@school.local"
	}

	return &Service{
		cfg:    cfg,
		logger: logger.With().Str("component", "push").Logger(),
	}
}

// Enabled reports whether VAPID keys are configured.
func (s *Service) Enabled() bool {
	return s.cfg.VAPIDPublicKey != "" && s.cfg.VAPIDPrivateKey != ""
}

// Send delivers an encrypted payload to a single subscription endpoint.
// A 404/410 response returns ErrSubscriptionGone.
func (s *Service) Send(ctx context.Context, endpoint, p256dh, auth string, payload []byte) error {
	if !s.Enabled() {
		s.logger.Debug().Msg("vapid keys not configured, skipping push")
		return nil
	}

	subscription := &webpush.Subscription{
		Endpoint: endpoint,
		Keys: webpush.Keys{
			P256dh: p256dh,
			Auth:   auth,
		},
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, subscription, &webpush.Options{
		Subscriber:      s.cfg.Subscriber,
		VAPIDPublicKey:  s.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: s.cfg.VAPIDPrivateKey,
		TTL:             s.cfg.TTL,
	})
	if err != nil {
		return fmt.Errorf("failed to send push: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrSubscriptionGone
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("push endpoint returned status %d", resp.StatusCode)
	}

	return nil
}
