package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/suggestbox-go-api/internal/dto"
	"github.com/noah-isme/suggestbox-go-api/internal/middleware"
	"github.com/noah-isme/suggestbox-go-api/internal/service"
	"github.com/noah-isme/suggestbox-go-api/internal/utils"
)

// SuggestionHandler handles the student-facing suggestion lifecycle.
type SuggestionHandler struct {
	service service.SuggestionService
	logger  zerolog.Logger
}

// NewSuggestionHandler constructs a suggestion handler.
func NewSuggestionHandler(service service.SuggestionService, logger zerolog.Logger) *SuggestionHandler {
	return &SuggestionHandler{
		service: service,
		logger:  logger.With().Str("component", "suggestion_handler").Logger(),
	}
}

// RegisterPublic wires the submission route. The router is expected to carry
// the optional student key middleware so first-time submitters get a key.
func (h *SuggestionHandler) RegisterPublic(router fiber.Router) {
	router.Post("", h.create)
}

// RegisterOwner wires the owner routes. The router is expected to carry the
// required student key middleware.
func (h *SuggestionHandler) RegisterOwner(router fiber.Router) {
	router.Get("", h.listOwn)
	router.Patch("/:id", h.update)
	router.Patch("/:id/notification-email", h.setNotificationEmail)
	router.Delete("/:id", h.remove)
}

func (h *SuggestionHandler) create(c *fiber.Ctx) error {
	studentKey, ok := middleware.StudentKeyFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, utils.CodeUnauthorized, "Missing student key")
	}

	var payload dto.SuggestionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, utils.CodeValidation, "Invalid request payload")
	}

	response, err := h.service.Create(c.Context(), studentKey, payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, utils.CodeValidation, err.Error())
		case errors.Is(err, service.ErrDuplicate):
			return utils.SendError(c, fiber.StatusTooManyRequests, utils.CodeDuplicate, "Identical suggestion was submitted moments ago")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to create suggestion")
			return utils.SendError(c, fiber.StatusServiceUnavailable, utils.CodeDependencyUnavailable, "Failed to store suggestion")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "suggestion submitted", response)
}

func (h *SuggestionHandler) listOwn(c *fiber.Ctx) error {
	studentKey, ok := middleware.StudentKeyFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, utils.CodeUnauthorized, "Missing student key")
	}

	var answeredSince *time.Time
	if raw := c.Query("answered_since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, utils.CodeValidation, "answered_since must be an RFC 3339 timestamp")
		}
		answeredSince = &parsed
	}

	items, err := h.service.ListForOwner(c.Context(), studentKey, answeredSince)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list own suggestions")
		return utils.SendError(c, fiber.StatusServiceUnavailable, utils.CodeDependencyUnavailable, "Failed to load suggestions")
	}

	return utils.SendSuccess(c, "suggestions retrieved", items)
}

func (h *SuggestionHandler) update(c *fiber.Ctx) error {
	studentKey, ok := middleware.StudentKeyFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, utils.CodeUnauthorized, "Missing student key")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, utils.CodeValidation, "Invalid suggestion id")
	}

	var payload dto.SuggestionUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, utils.CodeValidation, "Invalid request payload")
	}

	response, err := h.service.UpdateByOwner(c.Context(), id, studentKey, payload)
	if err != nil {
		return h.ownerError(c, err, "failed to update suggestion")
	}

	return utils.SendSuccess(c, "suggestion updated", response)
}

func (h *SuggestionHandler) setNotificationEmail(c *fiber.Ctx) error {
	studentKey, ok := middleware.StudentKeyFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, utils.CodeUnauthorized, "Missing student key")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, utils.CodeValidation, "Invalid suggestion id")
	}

	var payload dto.NotificationEmailRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, utils.CodeValidation, "Invalid request payload")
	}

	response, err := h.service.SetNotificationEmail(c.Context(), id, studentKey, payload.Email)
	if err != nil {
		return h.ownerError(c, err, "failed to set notification email")
	}

	return utils.SendSuccess(c, "notification email updated", response)
}

func (h *SuggestionHandler) remove(c *fiber.Ctx) error {
	studentKey, ok := middleware.StudentKeyFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, utils.CodeUnauthorized, "Missing student key")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, utils.CodeValidation, "Invalid suggestion id")
	}

	if err := h.service.DeleteByOwner(c.Context(), id, studentKey); err != nil {
		return h.ownerError(c, err, "failed to delete suggestion")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *SuggestionHandler) ownerError(c *fiber.Ctx, err error, logMsg string) error {
	switch {
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, utils.CodeValidation, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return utils.SendError(c, fiber.StatusNotFound, utils.CodeNotFound, "Suggestion not found")
	case errors.Is(err, service.ErrLocked):
		return utils.SendError(c, fiber.StatusConflict, utils.CodeLocked, "Answered suggestions can no longer be changed")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(logMsg)
		return utils.SendError(c, fiber.StatusServiceUnavailable, utils.CodeDependencyUnavailable, "Suggestion store unavailable")
	}
}
