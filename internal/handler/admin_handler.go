package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/suggestbox-go-api/internal/dto"
	"github.com/noah-isme/suggestbox-go-api/internal/middleware"
	"github.com/noah-isme/suggestbox-go-api/internal/service"
	"github.com/noah-isme/suggestbox-go-api/internal/utils"
)

// AdminHandler handles authentication and the admin suggestion console.
type AdminHandler struct {
	auth        service.AuthService
	suggestions service.SuggestionService
	logger      zerolog.Logger
}

// NewAdminHandler constructs an admin handler.
func NewAdminHandler(auth service.AuthService, suggestions service.SuggestionService, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		auth:        auth,
		suggestions: suggestions,
		logger:      logger.With().Str("component", "admin_handler").Logger(),
	}
}

// RegisterPublic wires the unauthenticated login route.
func (h *AdminHandler) RegisterPublic(router fiber.Router) {
	router.Post("/login", h.login)
}

// RegisterProtected wires the token-guarded admin routes.
func (h *AdminHandler) RegisterProtected(router fiber.Router) {
	router.Get("/me", h.me)
	router.Get("/suggestions", h.list)
	router.Patch("/suggestions/:id/answer", h.answer)
	router.Delete("/suggestions/:id", h.remove)
}

func (h *AdminHandler) login(c *fiber.Ctx) error {
	var payload dto.AdminLoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, utils.CodeValidation, "Invalid request payload")
	}

	payload.Username = strings.TrimSpace(payload.Username)
	if payload.Username == "" || payload.Password == "" {
		return utils.SendError(c, fiber.StatusBadRequest, utils.CodeValidation, "Username and password are required")
	}

	token, err := h.auth.Login(c.Context(), payload.Username, payload.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return utils.SendError(c, fiber.StatusUnauthorized, utils.CodeUnauthorized, "Invalid username or password")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("login failed")
		return utils.SendError(c, fiber.StatusServiceUnavailable, utils.CodeDependencyUnavailable, "Login temporarily unavailable")
	}

	return utils.SendSuccess(c, "login successful", token)
}

func (h *AdminHandler) me(c *fiber.Ctx) error {
	adminID, ok := middleware.AdminIDFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, utils.CodeUnauthorized, "Missing admin identity")
	}

	admin, err := h.auth.CurrentAdmin(c.Context(), adminID)
	if err != nil {
		if errors.Is(err, service.ErrTokenInvalid) {
			return utils.SendError(c, fiber.StatusUnauthorized, utils.CodeUnauthorized, "Invalid token")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load admin profile")
		return utils.SendError(c, fiber.StatusServiceUnavailable, utils.CodeDependencyUnavailable, "Failed to load profile")
	}

	return utils.SendSuccess(c, "profile retrieved", admin)
}

func (h *AdminHandler) list(c *fiber.Ctx) error {
	filter := dto.SuggestionFilter{
		Status: strings.TrimSpace(c.Query("status")),
		Query:  strings.TrimSpace(c.Query("q")),
	}

	grade, err := parseQueryInt(c, "grade")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, utils.CodeValidation, "grade must be an integer")
	}
	if grade > 0 {
		filter.Grade = &grade
	}

	if filter.Page, err = parseQueryInt(c, "page"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, utils.CodeValidation, "page must be an integer")
	}
	if filter.PageSize, err = parseQueryInt(c, "page_size"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, utils.CodeValidation, "page_size must be an integer")
	}

	response, err := h.suggestions.ListForAdmin(c.Context(), filter)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list suggestions")
		return utils.SendError(c, fiber.StatusServiceUnavailable, utils.CodeDependencyUnavailable, "Failed to load suggestions")
	}

	return utils.SendSuccess(c, "suggestions retrieved", response)
}

func (h *AdminHandler) answer(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, utils.CodeValidation, "Invalid suggestion id")
	}

	var payload dto.SuggestionAnswerRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, utils.CodeValidation, "Invalid request payload")
	}

	response, err := h.suggestions.Answer(c.Context(), id, payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, utils.CodeValidation, err.Error())
		case errors.Is(err, service.ErrNotFound):
			return utils.SendError(c, fiber.StatusNotFound, utils.CodeNotFound, "Suggestion not found")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to answer suggestion")
			return utils.SendError(c, fiber.StatusServiceUnavailable, utils.CodeDependencyUnavailable, "Failed to store answer")
		}
	}

	return utils.SendSuccess(c, "answer recorded", response)
}

func (h *AdminHandler) remove(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, utils.CodeValidation, "Invalid suggestion id")
	}

	if err := h.suggestions.DeleteByAdmin(c.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, utils.CodeNotFound, "Suggestion not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to delete suggestion")
		return utils.SendError(c, fiber.StatusServiceUnavailable, utils.CodeDependencyUnavailable, "Failed to delete suggestion")
	}

	return c.SendStatus(fiber.StatusNoContent)
}
