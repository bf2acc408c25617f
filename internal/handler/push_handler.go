package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/suggestbox-go-api/internal/dto"
	"github.com/noah-isme/suggestbox-go-api/internal/middleware"
	"github.com/noah-isme/suggestbox-go-api/internal/models"
	"github.com/noah-isme/suggestbox-go-api/internal/repository"
	"github.com/noah-isme/suggestbox-go-api/internal/utils"
)

// PushHandler manages Web Push subscriptions for students and admins.
type PushHandler struct {
	repo           repository.PushSubscriptionRepository
	validator      *validator.Validate
	vapidPublicKey string
	logger         zerolog.Logger
}

// NewPushHandler constructs a push subscription handler.
func NewPushHandler(repo repository.PushSubscriptionRepository, validate *validator.Validate, vapidPublicKey string, logger zerolog.Logger) *PushHandler {
	return &PushHandler{
		repo:           repo,
		validator:      validate,
		vapidPublicKey: vapidPublicKey,
		logger:         logger.With().Str("component", "push_handler").Logger(),
	}
}

// Register wires the push routes. Student subscribe accepts a missing key and
// mints one, the admin variant sits behind token auth, and unsubscribing only
// needs the endpoint itself.
func (h *PushHandler) Register(router fiber.Router, adminAuth fiber.Handler) {
	router.Get("/public-key", h.publicKey)
	router.Post("/subscribe", middleware.StudentKeyOptional(), h.subscribeStudent)
	router.Delete("/unsubscribe", h.unsubscribe)
	router.Post("/admin/subscribe", adminAuth, h.subscribeAdmin)
}

func (h *PushHandler) publicKey(c *fiber.Ctx) error {
	if h.vapidPublicKey == "" {
		return utils.SendError(c, fiber.StatusNotFound, utils.CodeNotFound, "Push notifications are not configured")
	}
	return utils.SendSuccess(c, "public key retrieved", fiber.Map{"public_key": h.vapidPublicKey})
}

func (h *PushHandler) subscribeStudent(c *fiber.Ctx) error {
	studentKey, ok := middleware.StudentKeyFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, utils.CodeUnauthorized, "Missing student key")
	}

	sub := models.PushSubscription{StudentKey: &studentKey}
	return h.subscribe(c, sub)
}

func (h *PushHandler) subscribeAdmin(c *fiber.Ctx) error {
	adminID, ok := middleware.AdminIDFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, utils.CodeUnauthorized, "Missing admin identity")
	}

	sub := models.PushSubscription{AdminID: &adminID}
	return h.subscribe(c, sub)
}

func (h *PushHandler) subscribe(c *fiber.Ctx, sub models.PushSubscription) error {
	var payload dto.PushSubscribeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, utils.CodeValidation, "Invalid request payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, utils.CodeValidation, err.Error())
	}

	sub.Endpoint = payload.Endpoint
	sub.P256dh = payload.Keys.P256dh
	sub.Auth = payload.Keys.Auth

	if err := h.repo.Upsert(c.Context(), &sub); err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to store push subscription")
		return utils.SendError(c, fiber.StatusServiceUnavailable, utils.CodeDependencyUnavailable, "Failed to store subscription")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "subscription stored", dto.NewPushSubscriptionResponse(sub))
}

func (h *PushHandler) unsubscribe(c *fiber.Ctx) error {
	var payload dto.PushUnsubscribeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, utils.CodeValidation, "Invalid request payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, utils.CodeValidation, err.Error())
	}

	removed, err := h.repo.DeleteByEndpoint(c.Context(), payload.Endpoint)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to remove push subscription")
		return utils.SendError(c, fiber.StatusServiceUnavailable, utils.CodeDependencyUnavailable, "Failed to remove subscription")
	}
	if removed == 0 {
		return utils.SendError(c, fiber.StatusNotFound, utils.CodeNotFound, "Subscription not found")
	}

	return c.SendStatus(fiber.StatusNoContent)
}
