package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/pplp-network/settlement-api/internal/config"
	"github.com/pplp-network/settlement-api/internal/dto"
	"github.com/pplp-network/settlement-api/internal/models"
	"github.com/pplp-network/settlement-api/internal/observability"
	"github.com/pplp-network/settlement-api/internal/repository"
	"github.com/pplp-network/settlement-api/pkg/chain"
)

// ErrUnknownSigner indicates the address maps to no governance group.
var ErrUnknownSigner = errors.New("address is not a governance signer")

// ErrGroupSigned indicates the signer's group already approved the
// request. Resubmissions fail identically whether the signature bytes
// match the first approval or not.
var ErrGroupSigned = errors.New("governance group already signed this request")

// ErrBadSignature indicates cryptographic verification failed.
var ErrBadSignature = errors.New("signature verification failed")

// ErrRequestClosed indicates the request is signed or rejected.
var ErrRequestClosed = errors.New("mint request no longer accepts signatures")

// MultisigService collects governance approvals toward the full-quorum
// signing of a mint request. The three groups may sign in any order;
// there is no leader.
type MultisigService interface {
	Sign(ctx context.Context, requestID uint, payload dto.SignRequest) (dto.MintRequestResponse, error)
}

type multisigService struct {
	requests  repository.MintRequestRepository
	signers   *config.SignerSet
	events    EventPublisher
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewMultisigService constructs a MultisigService instance.
func NewMultisigService(requestRepo repository.MintRequestRepository, signers *config.SignerSet, events EventPublisher, validate *validator.Validate, logger zerolog.Logger) MultisigService {
	if events == nil {
		events = noopPublisher{}
	}

	return &multisigService{
		requests:  requestRepo,
		signers:   signers,
		events:    events,
		validator: validate,
		logger:    logger.With().Str("component", "multisig_service").Logger(),
	}
}

// Sign verifies one governance signer's approval and folds it into the
// request's signature map. The request reaches signed exactly when all
// three groups are present.
func (s *multisigService) Sign(ctx context.Context, requestID uint, payload dto.SignRequest) (dto.MintRequestResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.MintRequestResponse{}, err
	}

	signer, ok := s.signers.Resolve(payload.SignerAddress)
	if !ok {
		observability.Signatures().WithLabelValues("unknown_signer").Inc()
		return dto.MintRequestResponse{}, ErrUnknownSigner
	}

	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MintRequestResponse{}, ErrRequestNotFound
		}
		return dto.MintRequestResponse{}, err
	}

	if request.IsTerminal() {
		observability.Signatures().WithLabelValues("closed").Inc()
		return dto.MintRequestResponse{}, ErrRequestClosed
	}

	// Duplicate-group rejection comes before verification so a repeat
	// submission fails the same way regardless of its signature bytes.
	if request.HasGroup(signer.Group) {
		observability.Signatures().WithLabelValues("duplicate").Inc()
		return dto.MintRequestResponse{}, ErrGroupSigned
	}

	verifyErr := chain.VerifySignature(chain.SignPayload{
		Recipient:    request.Recipient,
		ActionHash:   request.ActionHash,
		AmountBase:   request.AmountBase,
		EvidenceHash: request.EvidenceHash,
		Nonce:        request.Nonce,
	}, signer.Address, payload.Signature)
	if verifyErr != nil {
		observability.Signatures().WithLabelValues("invalid").Inc()
		s.logger.Warn().
			Uint("request_id", requestID).
			Str("signer", signer.Address).
			Str("group", signer.Group).
			Err(verifyErr).
			Msg("signature verification failed")
		return dto.MintRequestResponse{}, ErrBadSignature
	}

	updated, err := s.requests.AppendSignature(ctx, requestID, models.MintSignature{
		Group:         signer.Group,
		SignerAddress: signer.Address,
		SignerName:    signer.Name,
		Signature:     payload.Signature,
	}, len(config.GovernanceGroups))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateGroup):
			observability.Signatures().WithLabelValues("duplicate").Inc()
			return dto.MintRequestResponse{}, ErrGroupSigned
		case errors.Is(err, repository.ErrRequestClosed):
			observability.Signatures().WithLabelValues("closed").Inc()
			return dto.MintRequestResponse{}, ErrRequestClosed
		default:
			return dto.MintRequestResponse{}, err
		}
	}

	observability.Signatures().WithLabelValues("accepted").Inc()
	s.logger.Info().
		Uint("request_id", requestID).
		Str("group", signer.Group).
		Str("status", updated.Status).
		Msg("governance signature collected")

	if updated.Status == models.MintRequestStatusSigned {
		s.events.Publish(SettlementEvent{
			Type:      EventRequestSigned,
			RequestID: updated.ID,
			OwnerID:   updated.OwnerID,
			Status:    updated.Status,
		})
	}

	return dto.NewMintRequestResponse(updated), nil
}
