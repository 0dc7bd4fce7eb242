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

// MintRequestHandler manages mint request lifecycle and signing endpoints.
type MintRequestHandler struct {
	requests  service.MintRequestService
	multisig  service.MultisigService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewMintRequestHandler builds a mint request handler instance.
func NewMintRequestHandler(requests service.MintRequestService, multisig service.MultisigService, validator *validator.Validate, logger zerolog.Logger) *MintRequestHandler {
	return &MintRequestHandler{
		requests:  requests,
		multisig:  multisig,
		validator: validator,
		logger:    logger.With().Str("component", "mint_request_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group. The sign
// route is deliberately open to any authenticated caller: authorization
// is by signing address, not session identity.
func (h *MintRequestHandler) Register(router fiber.Router, adminOnly fiber.Handler, createLimit, signLimit fiber.Handler) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", adminOnly, createLimit, h.createBatch)
	router.Post("/:id/sign", signLimit, h.sign)
	router.Post("/:id/reject", adminOnly, h.reject)
}

func (h *MintRequestHandler) list(c *fiber.Ctx) error {
	filter := repository.MintRequestFilter{}

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

	requests, err := h.requests.List(c.Context(), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "mint requests retrieved", requests)
}

func (h *MintRequestHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	request, err := h.requests.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	if userRoleFromContext(c) != "admin" && request.OwnerID != userIDFromContext(c) {
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	}

	return utils.SendSuccess(c, "mint request retrieved", request)
}

func (h *MintRequestHandler) createBatch(c *fiber.Ctx) error {
	outcome, err := h.requests.CreateForAll(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}

	summary := dto.ReclaimSummary{
		Created:         outcome.Created,
		SkippedNoWallet: outcome.SkippedNoWallet,
		Errors:          outcome.Errors,
	}

	return utils.SendSuccess(c, "mint requests created", summary)
}

func (h *MintRequestHandler) sign(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SignRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	request, err := h.multisig.Sign(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "signature collected", request)
}

func (h *MintRequestHandler) reject(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	request, err := h.requests.Reject(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "mint request rejected", request)
}

func (h *MintRequestHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrRequestNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "mint request not found")
	case errors.Is(err, service.ErrUnknownSigner):
		return utils.SendError(c, fiber.StatusForbidden, "address is not a governance signer")
	case errors.Is(err, service.ErrGroupSigned):
		return utils.SendError(c, fiber.StatusConflict, "governance group already signed this request")
	case errors.Is(err, service.ErrBadSignature):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "signature verification failed")
	case errors.Is(err, service.ErrRequestClosed):
		return utils.SendError(c, fiber.StatusConflict, "mint request no longer accepts signatures")
	case errors.Is(err, repository.ErrIllegalTransition):
		return utils.SendError(c, fiber.StatusConflict, "illegal mint request transition")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
