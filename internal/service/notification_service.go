package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/suggestbox-go-api/internal/models"
	"github.com/noah-isme/suggestbox-go-api/internal/observability"
	"github.com/noah-isme/suggestbox-go-api/internal/repository"
	"github.com/noah-isme/suggestbox-go-api/pkg/push"
)

// Notification event kinds.
const (
	eventSuggestionCreated  = "new_suggestion"
	eventSuggestionAnswered = "answered"
)

const deliveryTimeout = 10 * time.Second

// PushSender delivers a Web Push payload to one subscription endpoint.
type PushSender interface {
	Enabled() bool
	Send(ctx context.Context, endpoint, p256dh, auth string, payload []byte) error
}

// EmailSender delivers a notification email.
type EmailSender interface {
	Enabled() bool
	Send(ctx context.Context, to, subject, textBody, htmlBody string) error
}

// NotificationService is the best-effort dispatcher for suggestion events.
// All delivery runs detached from the triggering request: failures are
// logged, dead subscriptions are pruned, and nothing ever propagates back to
// the write that raised the event.
type NotificationService interface {
	SuggestionNotifier
}

type notificationService struct {
	subs          repository.PushSubscriptionRepository
	history       repository.NotificationLogRepository
	push          PushSender
	mail          EmailSender
	nats          *nats.Conn
	natsSubject   string
	publicBaseURL string
	logger        zerolog.Logger
}

// NewNotificationService constructs the dispatcher. The NATS connection is
// optional; with it, every event is additionally published for external
// consumers.
func NewNotificationService(
	subs repository.PushSubscriptionRepository,
	history repository.NotificationLogRepository,
	pushSender PushSender,
	mailSender EmailSender,
	natsConn *nats.Conn,
	publicBaseURL string,
	logger zerolog.Logger,
) NotificationService {
	return &notificationService{
		subs:          subs,
		history:       history,
		push:          pushSender,
		mail:          mailSender,
		nats:          natsConn,
		natsSubject:   "suggestbox.suggestions",
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger.With().Str("component", "notification_service").Logger(),
	}
}

func (s *notificationService) SuggestionCreated(suggestion models.Suggestion) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()
		s.dispatchCreated(ctx, suggestion)
	}()
}

func (s *notificationService) SuggestionAnswered(suggestion models.Suggestion) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()
		s.dispatchAnswered(ctx, suggestion)
	}()
}

func (s *notificationService) dispatchCreated(ctx context.Context, suggestion models.Suggestion) {
	s.publishEvent(eventSuggestionCreated, suggestion)

	if !s.push.Enabled() {
		s.logger.Debug().Msg("push not configured, skipping admin fan-out")
		return
	}

	subscriptions, err := s.subs.ListForAdmins(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list admin subscriptions")
		return
	}

	payload := pushPayload(
		fmt.Sprintf("New suggestion: %s", truncate(suggestion.Title, 30)),
		"A student submitted a new suggestion.",
		suggestion.ID,
	)
	for _, sub := range subscriptions {
		s.deliverPush(ctx, eventSuggestionCreated, suggestion, sub, payload)
	}
}

func (s *notificationService) dispatchAnswered(ctx context.Context, suggestion models.Suggestion) {
	s.publishEvent(eventSuggestionAnswered, suggestion)

	if s.push.Enabled() {
		subscriptions, err := s.subs.ListForStudent(ctx, suggestion.StudentKey)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to list student subscriptions")
		} else {
			payload := pushPayload("Your suggestion has an answer", truncate(suggestion.Title, 60), suggestion.ID)
			for _, sub := range subscriptions {
				s.deliverPush(ctx, eventSuggestionAnswered, suggestion, sub, payload)
			}
		}
	}

	if suggestion.NotificationEmail != nil && *suggestion.NotificationEmail != "" {
		s.deliverEmail(ctx, suggestion)
	}
}

func (s *notificationService) deliverPush(ctx context.Context, event string, suggestion models.Suggestion, sub models.PushSubscription, payload []byte) {
	err := s.push.Send(ctx, sub.Endpoint, sub.P256dh, sub.Auth, payload)
	switch {
	case err == nil:
		observability.Notifications().WithLabelValues(models.NotificationChannelPush, models.NotificationOutcomeSent).Inc()
		s.record(ctx, event, models.NotificationChannelPush, suggestion, sub, models.NotificationOutcomeSent, nil)
	case errors.Is(err, push.ErrSubscriptionGone):
		if pruneErr := s.subs.DeleteByID(ctx, sub.ID); pruneErr != nil {
			s.logger.Warn().Err(pruneErr).Uint("subscription_id", sub.ID).Msg("failed to prune dead subscription")
		}
		observability.Notifications().WithLabelValues(models.NotificationChannelPush, models.NotificationOutcomePruned).Inc()
		s.logger.Info().Uint("subscription_id", sub.ID).Msg("pruned dead push subscription")
		s.record(ctx, event, models.NotificationChannelPush, suggestion, sub, models.NotificationOutcomePruned, err)
	default:
		observability.Notifications().WithLabelValues(models.NotificationChannelPush, models.NotificationOutcomeFailed).Inc()
		s.logger.Warn().Err(err).Uint("subscription_id", sub.ID).Msg("push delivery failed")
		s.record(ctx, event, models.NotificationChannelPush, suggestion, sub, models.NotificationOutcomeFailed, err)
	}
}

func (s *notificationService) deliverEmail(ctx context.Context, suggestion models.Suggestion) {
	to := *suggestion.NotificationEmail
	if !s.mail.Enabled() {
		s.logger.Debug().Msg("smtp not configured, skipping answer email")
		return
	}

	answer := ""
	if suggestion.Answer != nil {
		answer = *suggestion.Answer
	}

	link := s.answerLink(suggestion)
	textBody := fmt.Sprintf(
		"Hello,\n\nThe student council answered your suggestion.\n\nSuggestion: %s\n\nAnswer:\n%s\n\nView it here:\n%s\n",
		suggestion.Title, answer, link,
	)
	htmlBody := answerEmailHTML(suggestion.Title, answer, link)

	err := s.mail.Send(ctx, to, "Your suggestion received an answer", textBody, htmlBody)
	outcome := models.NotificationOutcomeSent
	if err != nil {
		outcome = models.NotificationOutcomeFailed
		s.logger.Warn().Err(err).Uint("suggestion_id", suggestion.ID).Msg("answer email delivery failed")
	}

	observability.Notifications().WithLabelValues(models.NotificationChannelEmail, outcome).Inc()

	entry := models.NotificationLog{
		Event:        eventSuggestionAnswered,
		Channel:      models.NotificationChannelEmail,
		SubjectKind:  "student",
		SubjectRef:   suggestion.StudentKey,
		SuggestionID: suggestion.ID,
		Outcome:      outcome,
		Detail:       datatypes.JSONMap{"to": maskEmail(to)},
	}
	if err != nil {
		entry.Detail["error"] = err.Error()
	}
	if logErr := s.history.Create(ctx, &entry); logErr != nil {
		s.logger.Warn().Err(logErr).Msg("failed to record notification log")
	}
}

func (s *notificationService) record(ctx context.Context, event, channel string, suggestion models.Suggestion, sub models.PushSubscription, outcome string, cause error) {
	entry := models.NotificationLog{
		Event:        event,
		Channel:      channel,
		SuggestionID: suggestion.ID,
		Outcome:      outcome,
		Detail:       datatypes.JSONMap{"endpoint": truncate(sub.Endpoint, 64)},
	}
	switch {
	case sub.AdminID != nil:
		entry.SubjectKind = "admin"
		entry.SubjectRef = strconv.FormatUint(uint64(*sub.AdminID), 10)
	case sub.StudentKey != nil:
		entry.SubjectKind = "student"
		entry.SubjectRef = *sub.StudentKey
	}
	if cause != nil {
		entry.Detail["error"] = cause.Error()
	}

	if err := s.history.Create(ctx, &entry); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record notification log")
	}
}

func (s *notificationService) publishEvent(event string, suggestion models.Suggestion) {
	if s.nats == nil {
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"event":         event,
		"suggestion_id": suggestion.ID,
		"grade":         suggestion.Grade,
		"status":        suggestion.Status,
		"occurred_at":   time.Now().UTC(),
	})
	if err != nil {
		return
	}

	subject := s.natsSubject + "." + event
	if err := s.nats.Publish(subject, payload); err != nil {
		s.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish suggestion event")
	}
}

func (s *notificationService) answerLink(suggestion models.Suggestion) string {
	base := s.publicBaseURL
	if base == "" {
		base = "http://localhost:8080"
	}

	query := url.Values{}
	query.Set("sk", suggestion.StudentKey)
	query.Set("sid", strconv.FormatUint(uint64(suggestion.ID), 10))
	return base + "/me.html?" + query.Encode()
}

func pushPayload(title, body string, suggestionID uint) []byte {
	payload, _ := json.Marshal(map[string]string{
		"title": title,
		"body":  body,
		"icon":  "/assets/icon.png",
		"tag":   fmt.Sprintf("suggestion-%d", suggestionID),
	})
	return payload
}

func answerEmailHTML(title, answer, link string) string {
	safeTitle := html.EscapeString(title)
	safeAnswer := strings.ReplaceAll(html.EscapeString(answer), "\n", "<br />")
	safeLink := html.EscapeString(link)

	return fmt.Sprintf(`<!doctype html>
<html>
  <body style="font-family: Arial, sans-serif; color: #0f172a;">
    <p>Hello,</p>
    <p>The student council answered your suggestion.</p>
    <p><strong>Suggestion:</strong> %s</p>
    <p><strong>Answer:</strong><br />%s</p>
    <p><a href="%s">View the answer</a></p>
  </body>
</html>`, safeTitle, safeAnswer, safeLink)
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit]) + "…"
}

func maskEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***"
	}
	local := parts[0]
	if len(local) <= 2 {
		local = local[:1] + "***"
	} else {
		local = local[:1] + "***" + local[len(local)-1:]
	}
	return local + "@" + parts[1]
}
