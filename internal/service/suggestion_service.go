package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/suggestbox-go-api/internal/dto"
	"github.com/noah-isme/suggestbox-go-api/internal/models"
	"github.com/noah-isme/suggestbox-go-api/internal/observability"
	"github.com/noah-isme/suggestbox-go-api/internal/repository"
)

var (
	// ErrNotFound indicates no suggestion matches the id within the caller's scope.
	ErrNotFound = errors.New("suggestion not found")
	// ErrLocked indicates the suggestion is answered and owner mutations are refused.
	ErrLocked = errors.New("suggestion locked")
	// ErrDuplicate indicates an identical submission arrived moments ago.
	ErrDuplicate = errors.New("duplicate suggestion")
	// ErrStoreUnavailable indicates the persistent store failed outside the
	// domain error paths.
	ErrStoreUnavailable = errors.New("store unavailable")
)

const dedupeTTL = 2 * time.Minute

// SuggestionNotifier receives lifecycle events for best-effort delivery.
// Implementations must return immediately and never fail the caller.
type SuggestionNotifier interface {
	SuggestionCreated(suggestion models.Suggestion)
	SuggestionAnswered(suggestion models.Suggestion)
}

// SuggestionService exposes the suggestion lifecycle for both roles.
type SuggestionService interface {
	Create(ctx context.Context, studentKey string, req dto.SuggestionCreateRequest) (dto.SuggestionResponse, error)
	ListForOwner(ctx context.Context, studentKey string, answeredSince *time.Time) ([]dto.SuggestionResponse, error)
	ListForAdmin(ctx context.Context, filter dto.SuggestionFilter) (dto.SuggestionListResponse, error)
	UpdateByOwner(ctx context.Context, id uint, studentKey string, req dto.SuggestionUpdateRequest) (dto.SuggestionResponse, error)
	SetNotificationEmail(ctx context.Context, id uint, studentKey, email string) (dto.SuggestionResponse, error)
	DeleteByOwner(ctx context.Context, id uint, studentKey string) error
	Answer(ctx context.Context, id uint, req dto.SuggestionAnswerRequest) (dto.SuggestionResponse, error)
	DeleteByAdmin(ctx context.Context, id uint) error
}

type suggestionService struct {
	repo      repository.SuggestionRepository
	cache     *redis.Client
	validator *validator.Validate
	notifier  SuggestionNotifier
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewSuggestionService constructs the suggestion lifecycle service. The redis
// client is optional; without it the duplicate-create guard is disabled.
func NewSuggestionService(repo repository.SuggestionRepository, cache *redis.Client, validate *validator.Validate, notifier SuggestionNotifier, logger zerolog.Logger) SuggestionService {
	return &suggestionService{
		repo:      repo,
		cache:     cache,
		validator: validate,
		notifier:  notifier,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "suggestion_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/suggestbox-go-api/internal/service/suggestion"),
	}
}

func (s *suggestionService) Create(ctx context.Context, studentKey string, req dto.SuggestionCreateRequest) (dto.SuggestionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "suggestion.create", trace.WithAttributes(
		attribute.Int("suggestion.grade", req.Grade),
	))
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		observability.Suggestions().WithLabelValues("create", "invalid").Inc()
		return dto.SuggestionResponse{}, err
	}

	title := strings.TrimSpace(s.sanitizer.Sanitize(req.Title))
	content := strings.TrimSpace(s.sanitizer.Sanitize(req.Content))

	if s.cache != nil {
		key := fmt.Sprintf("suggestion:dedupe:%s", computeChecksum(studentKey, title, content))
		ok, err := s.cache.SetNX(ctx, key, 1, dedupeTTL).Result()
		if err != nil {
			s.logger.Warn().Err(err).Msg("dedupe check failed, allowing submission")
		} else if !ok {
			span.SetStatus(codes.Error, "duplicate submission")
			observability.Suggestions().WithLabelValues("create", "duplicate").Inc()
			return dto.SuggestionResponse{}, ErrDuplicate
		}
	}

	suggestion := models.Suggestion{
		StudentKey: studentKey,
		Grade:      req.Grade,
		Title:      title,
		Content:    content,
		Status:     models.SuggestionStatusPending,
	}
	if email := normalizeEmail(req.NotificationEmail); email != "" {
		suggestion.NotificationEmail = &email
	}

	if err := s.repo.Create(ctx, &suggestion); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		observability.Suggestions().WithLabelValues("create", "error").Inc()
		return dto.SuggestionResponse{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	observability.Suggestions().WithLabelValues("create", "ok").Inc()
	s.logger.Info().Uint("suggestion_id", suggestion.ID).Int("grade", suggestion.Grade).Msg("suggestion created")

	s.notifier.SuggestionCreated(suggestion)

	return dto.NewSuggestionResponse(suggestion, true), nil
}

func (s *suggestionService) ListForOwner(ctx context.Context, studentKey string, answeredSince *time.Time) ([]dto.SuggestionResponse, error) {
	items, err := s.repo.ListForOwner(ctx, studentKey, answeredSince)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return dto.NewSuggestionResponseSlice(items, true), nil
}

func (s *suggestionService) ListForAdmin(ctx context.Context, filter dto.SuggestionFilter) (dto.SuggestionListResponse, error) {
	filter.Page = maxInt(filter.Page, 1)
	filter.PageSize = clampPageSize(filter.PageSize)

	items, total, err := s.repo.ListForAdmin(ctx, filter)
	if err != nil {
		return dto.SuggestionListResponse{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	pagination := dto.PaginationMeta{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalItems: total,
	}
	if filter.PageSize > 0 {
		pagination.TotalPages = int(math.Ceil(float64(total) / float64(filter.PageSize)))
	} else {
		pagination.TotalPages = 1
	}

	return dto.SuggestionListResponse{
		Items:      dto.NewSuggestionResponseSlice(items, false),
		Pagination: pagination,
	}, nil
}

func (s *suggestionService) UpdateByOwner(ctx context.Context, id uint, studentKey string, req dto.SuggestionUpdateRequest) (dto.SuggestionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SuggestionResponse{}, err
	}

	changes := map[string]interface{}{}
	if req.Grade != nil {
		changes["grade"] = *req.Grade
	}
	if req.Title != nil {
		changes["title"] = strings.TrimSpace(s.sanitizer.Sanitize(*req.Title))
	}
	if req.Content != nil {
		changes["content"] = strings.TrimSpace(s.sanitizer.Sanitize(*req.Content))
	}
	if len(changes) == 0 {
		suggestion, err := s.ownerGet(ctx, id, studentKey)
		if err != nil {
			return dto.SuggestionResponse{}, err
		}
		return dto.NewSuggestionResponse(suggestion, true), nil
	}

	updated, err := s.repo.UpdateByOwner(ctx, id, studentKey, changes)
	if err != nil {
		return dto.SuggestionResponse{}, translateOwnerErr(err)
	}

	observability.Suggestions().WithLabelValues("update", "ok").Inc()

	return dto.NewSuggestionResponse(updated, true), nil
}

func (s *suggestionService) SetNotificationEmail(ctx context.Context, id uint, studentKey, email string) (dto.SuggestionResponse, error) {
	payload := dto.NotificationEmailRequest{Email: normalizeEmail(email)}
	if err := s.validator.Struct(payload); err != nil {
		return dto.SuggestionResponse{}, err
	}

	changes := map[string]interface{}{"notification_email": nil}
	if payload.Email != "" {
		changes["notification_email"] = payload.Email
	}

	updated, err := s.repo.UpdateByOwner(ctx, id, studentKey, changes)
	if err != nil {
		return dto.SuggestionResponse{}, translateOwnerErr(err)
	}

	return dto.NewSuggestionResponse(updated, true), nil
}

func (s *suggestionService) DeleteByOwner(ctx context.Context, id uint, studentKey string) error {
	if err := s.repo.DeleteByOwner(ctx, id, studentKey); err != nil {
		return translateOwnerErr(err)
	}

	observability.Suggestions().WithLabelValues("delete", "ok").Inc()

	return nil
}

func (s *suggestionService) Answer(ctx context.Context, id uint, req dto.SuggestionAnswerRequest) (dto.SuggestionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "suggestion.answer", trace.WithAttributes(
		attribute.Int("suggestion.id", int(id)),
	))
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.SuggestionResponse{}, err
	}

	answer := strings.TrimSpace(s.sanitizer.Sanitize(req.Answer))

	answered, wasPending, err := s.repo.Answer(ctx, id, answer, time.Now().UTC())
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SuggestionResponse{}, ErrNotFound
		}
		observability.Suggestions().WithLabelValues("answer", "error").Inc()
		return dto.SuggestionResponse{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	observability.Suggestions().WithLabelValues("answer", "ok").Inc()
	s.logger.Info().Uint("suggestion_id", id).Bool("first_answer", wasPending).Msg("suggestion answered")

	// Re-answering only rewrites the text; subscribers were already told.
	if wasPending {
		s.notifier.SuggestionAnswered(answered)
	}

	return dto.NewSuggestionResponse(answered, false), nil
}

func (s *suggestionService) DeleteByAdmin(ctx context.Context, id uint) error {
	if err := s.repo.DeleteByAdmin(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	observability.Suggestions().WithLabelValues("delete", "ok").Inc()

	return nil
}

func (s *suggestionService) ownerGet(ctx context.Context, id uint, studentKey string) (models.Suggestion, error) {
	suggestion, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Suggestion{}, ErrNotFound
		}
		return models.Suggestion{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if suggestion.StudentKey != studentKey {
		return models.Suggestion{}, ErrNotFound
	}
	return suggestion, nil
}

func translateOwnerErr(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrLocked):
		return ErrLocked
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func computeChecksum(parts ...string) string {
	hasher := sha256.New()
	for _, part := range parts {
		hasher.Write([]byte(strings.TrimSpace(strings.ToLower(part))))
		hasher.Write([]byte("|"))
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

func maxInt(value, floor int) int {
	if value < floor {
		return floor
	}
	return value
}

func clampPageSize(size int) int {
	switch {
	case size <= 0:
		return 20
	case size > 100:
		return 100
	default:
		return size
	}
}
