package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/pplp-network/settlement-api/internal/dto"
	"github.com/pplp-network/settlement-api/internal/models"
	"github.com/pplp-network/settlement-api/internal/observability"
	"github.com/pplp-network/settlement-api/internal/repository"
	"github.com/pplp-network/settlement-api/pkg/chain"
)

// ErrRequestNotFound indicates the mint request does not exist.
var ErrRequestNotFound = errors.New("mint request not found")

// ErrNoWallet indicates a recipient has no known wallet address. This is
// a reportable skip, not a failure.
var ErrNoWallet = errors.New("recipient has no wallet address")

// ErrNothingToMint indicates the owner has no claimable actions.
var ErrNothingToMint = errors.New("no claimable actions")

// NonceReader reads the token contract's per-address replay nonce.
type NonceReader interface {
	Nonce(ctx context.Context, address string) uint64
}

// BatchOutcome aggregates the result of creating requests for every
// owner with claimable actions.
type BatchOutcome struct {
	Created         int
	SkippedNoWallet int
	Errors          []string
}

// MintRequestService owns the mint request lifecycle: creation via the
// atomic action claim, status queries, and rejection.
type MintRequestService interface {
	CreateForOwner(ctx context.Context, ownerID string) (dto.MintRequestResponse, error)
	CreateForAll(ctx context.Context) (BatchOutcome, error)
	Reject(ctx context.Context, id uint) (dto.MintRequestResponse, error)
	Get(ctx context.Context, id uint) (dto.MintRequestResponse, error)
	List(ctx context.Context, filter repository.MintRequestFilter) ([]dto.MintRequestResponse, error)
}

type mintRequestService struct {
	requests   repository.MintRequestRepository
	actions    repository.ActionRepository
	profiles   repository.ProfileRepository
	nonces     NonceReader
	events     EventPublisher
	actionName string
	actionHash string
	decimals   int
	logger     zerolog.Logger
	now        func() time.Time
}

// NewMintRequestService constructs a MintRequestService instance.
func NewMintRequestService(
	requestRepo repository.MintRequestRepository,
	actionRepo repository.ActionRepository,
	profileRepo repository.ProfileRepository,
	nonces NonceReader,
	events EventPublisher,
	actionName string,
	decimals int,
	logger zerolog.Logger,
) MintRequestService {
	if events == nil {
		events = noopPublisher{}
	}

	return &mintRequestService{
		requests:   requestRepo,
		actions:    actionRepo,
		profiles:   profileRepo,
		nonces:     nonces,
		events:     events,
		actionName: actionName,
		actionHash: chain.ActionHash(actionName),
		decimals:   decimals,
		logger:     logger.With().Str("component", "mint_request_service").Logger(),
		now:        time.Now,
	}
}

// CreateForOwner batches every unassigned eligible action of the owner
// into one new mint request. The nonce is read before the claim
// transaction opens so a slow RPC cannot hold row locks.
func (s *mintRequestService) CreateForOwner(ctx context.Context, ownerID string) (dto.MintRequestResponse, error) {
	profile, err := s.profiles.GetByUserID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MintRequestResponse{}, ErrNoWallet
		}
		return dto.MintRequestResponse{}, err
	}
	if !profile.HasWallet() {
		return dto.MintRequestResponse{}, ErrNoWallet
	}

	nonce := s.nonces.Nonce(ctx, profile.WalletAddress)
	createdAt := s.now().UTC()

	request, err := s.requests.ClaimAndCreate(ctx, ownerID, func(actions []models.ActionRecord) (models.MintRequest, error) {
		var amount int64
		kinds := make([]string, len(actions))
		ids := make([]uint, len(actions))
		for i, action := range actions {
			amount += action.MintAmount
			kinds[i] = action.Kind
			ids[i] = action.ID
		}

		if amount <= 0 {
			return models.MintRequest{}, ErrNothingToMint
		}

		return models.MintRequest{
			OwnerID:      ownerID,
			Recipient:    profile.WalletAddress,
			Amount:       amount,
			AmountBase:   s.toBaseUnits(amount),
			EvidenceHash: chain.EvidenceHash(kinds, ownerID, createdAt),
			ActionName:   s.actionName,
			ActionHash:   s.actionHash,
			Nonce:        nonce,
			ActionIDs:    ids,
		}, nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNoClaimableActions) {
			return dto.MintRequestResponse{}, ErrNothingToMint
		}
		return dto.MintRequestResponse{}, err
	}

	observability.MintRequestsCreated().Inc()
	s.events.Publish(SettlementEvent{
		Type:      EventRequestCreated,
		RequestID: request.ID,
		OwnerID:   request.OwnerID,
		Status:    request.Status,
	})

	s.logger.Info().
		Uint("request_id", request.ID).
		Str("owner_id", ownerID).
		Int64("amount", request.Amount).
		Uint64("nonce", request.Nonce).
		Msg("mint request created")

	return dto.NewMintRequestResponse(request), nil
}

// CreateForAll creates one request per owner holding unassigned eligible
// actions. Owners without a wallet are counted as skipped; per-owner
// failures are collected and never abort the batch.
func (s *mintRequestService) CreateForAll(ctx context.Context) (BatchOutcome, error) {
	unassigned, err := s.actions.ListUnassigned(ctx)
	if err != nil {
		return BatchOutcome{}, err
	}

	owners := make([]string, 0)
	seen := make(map[string]bool)
	for _, action := range unassigned {
		if !seen[action.OwnerID] {
			seen[action.OwnerID] = true
			owners = append(owners, action.OwnerID)
		}
	}

	var outcome BatchOutcome
	for _, owner := range owners {
		_, err := s.CreateForOwner(ctx, owner)
		switch {
		case err == nil:
			outcome.Created++
		case errors.Is(err, ErrNoWallet):
			outcome.SkippedNoWallet++
		case errors.Is(err, ErrNothingToMint):
			// Another creation claimed the actions first; nothing to report.
		default:
			outcome.Errors = appendErrorSample(outcome.Errors, fmt.Sprintf("owner %s: %v", owner, err))
		}
	}

	return outcome, nil
}

// Reject moves the request into the terminal rejected state. Releasing
// its actions is deliberately left to the reclamation job so rejection
// stays fast and side-effect-light.
func (s *mintRequestService) Reject(ctx context.Context, id uint) (dto.MintRequestResponse, error) {
	request, err := s.requests.Transition(ctx, id, models.MintRequestStatusRejected)
	if err != nil {
		return dto.MintRequestResponse{}, s.mapRepoError(err)
	}

	s.events.Publish(SettlementEvent{
		Type:      EventRequestRejected,
		RequestID: request.ID,
		OwnerID:   request.OwnerID,
		Status:    request.Status,
	})

	s.logger.Info().Uint("request_id", id).Msg("mint request rejected")

	return dto.NewMintRequestResponse(request), nil
}

func (s *mintRequestService) Get(ctx context.Context, id uint) (dto.MintRequestResponse, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return dto.MintRequestResponse{}, s.mapRepoError(err)
	}

	return dto.NewMintRequestResponse(request), nil
}

func (s *mintRequestService) List(ctx context.Context, filter repository.MintRequestFilter) ([]dto.MintRequestResponse, error) {
	requests, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewMintRequestResponseSlice(requests), nil
}

func (s *mintRequestService) mapRepoError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrRequestNotFound
	case errors.Is(err, repository.ErrRequestClosed):
		return ErrRequestClosed
	default:
		return err
	}
}

// toBaseUnits converts display units to the token's base-unit integer
// string (amount × 10^decimals), computed on big.Int to stay exact.
func (s *mintRequestService) toBaseUnits(amount int64) string {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(s.decimals)), nil)
	return new(big.Int).Mul(big.NewInt(amount), scale).String()
}
