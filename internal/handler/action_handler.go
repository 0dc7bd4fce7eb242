package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/pplp-network/settlement-api/internal/dto"
	"github.com/pplp-network/settlement-api/internal/repository"
	"github.com/pplp-network/settlement-api/internal/service"
	"github.com/pplp-network/settlement-api/internal/utils"
)

// ActionHandler manages action ledger endpoints.
type ActionHandler struct {
	service   service.ActionService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewActionHandler builds an action handler instance.
func NewActionHandler(service service.ActionService, validator *validator.Validate, logger zerolog.Logger) *ActionHandler {
	return &ActionHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "action_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ActionHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.record)
}

func (h *ActionHandler) record(c *fiber.Ctx) error {
	var payload dto.ActionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	// Ordinary callers can only record activity for themselves.
	if userRoleFromContext(c) != "admin" {
		payload.OwnerID = userIDFromContext(c)
	}

	action, err := h.service.Record(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "action recorded", action)
}

func (h *ActionHandler) list(c *fiber.Ctx) error {
	filter := repository.ActionFilter{}

	if userRoleFromContext(c) == "admin" {
		if owner := c.Query("owner_id"); owner != "" {
			filter.OwnerID = &owner
		}
	} else {
		owner := userIDFromContext(c)
		filter.OwnerID = &owner
	}

	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}
	if kind := c.Query("kind"); kind != "" {
		filter.Kind = &kind
	}

	actions, err := h.service.List(c.Context(), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "actions retrieved", actions)
}

func (h *ActionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrInvalidActionKind):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
