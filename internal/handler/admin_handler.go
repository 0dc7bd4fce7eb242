package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/pplp-network/settlement-api/internal/dto"
	"github.com/pplp-network/settlement-api/internal/service"
	"github.com/pplp-network/settlement-api/internal/utils"
)

// AdminHandler exposes the maintenance operations: batch reclamation,
// treasury reconciliation, and score recompute.
type AdminHandler struct {
	reclaim   service.ReclaimService
	treasury  service.TreasuryService
	actions   service.ActionService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAdminHandler builds an admin handler instance.
func NewAdminHandler(reclaim service.ReclaimService, treasury service.TreasuryService, actions service.ActionService, validator *validator.Validate, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		reclaim:   reclaim,
		treasury:  treasury,
		actions:   actions,
		validator: validator,
		logger:    logger.With().Str("component", "admin_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group. The group
// is expected to already carry admin RBAC and rate limiting.
func (h *AdminHandler) Register(router fiber.Router) {
	router.Post("/reclaim", h.runReclaim)
	router.Get("/treasury/scan", h.scanTreasury)
	router.Post("/treasury/backfill", h.backfillTreasury)
	router.Post("/actions/recompute", h.recomputeScores)
}

func (h *AdminHandler) runReclaim(c *fiber.Ctx) error {
	summary, err := h.reclaim.Run(c.Context(), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "reclamation finished", summary)
}

func (h *AdminHandler) scanTreasury(c *fiber.Ctx) error {
	result, err := h.treasury.Scan(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "treasury scan finished", result)
}

func (h *AdminHandler) backfillTreasury(c *fiber.Ctx) error {
	var payload dto.BackfillRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.treasury.Backfill(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "treasury backfill finished", result)
}

func (h *AdminHandler) recomputeScores(c *fiber.Ctx) error {
	result, err := h.actions.Recompute(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "score recompute finished", result)
}

func (h *AdminHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrReclaimCooldown):
		return utils.SendError(c, fiber.StatusTooManyRequests, "reclamation already ran recently")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
