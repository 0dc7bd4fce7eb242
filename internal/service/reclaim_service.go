package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/pplp-network/settlement-api/internal/dto"
	"github.com/pplp-network/settlement-api/internal/models"
	"github.com/pplp-network/settlement-api/internal/observability"
	"github.com/pplp-network/settlement-api/internal/repository"
)

// ErrReclaimCooldown indicates the admin triggered reclamation again
// inside the cooldown window.
var ErrReclaimCooldown = errors.New("reclamation already ran recently")

// ReclaimService retires rejected requests, releases their actions, and
// re-batches everything unclaimed into fresh requests. The whole run is
// idempotent: a second run with no new activity is a no-op.
type ReclaimService interface {
	Run(ctx context.Context, adminID string) (dto.ReclaimSummary, error)
}

type reclaimService struct {
	requests repository.MintRequestRepository
	actions  repository.ActionRepository
	minter   MintRequestService
	locks    *redis.Client
	cooldown time.Duration
	logger   zerolog.Logger
}

// NewReclaimService constructs a ReclaimService instance. The redis
// client guards the per-admin cooldown; passing nil disables it (tests).
func NewReclaimService(requestRepo repository.MintRequestRepository, actionRepo repository.ActionRepository, minter MintRequestService, locks *redis.Client, cooldown time.Duration, logger zerolog.Logger) ReclaimService {
	if cooldown <= 0 {
		cooldown = time.Minute
	}

	return &reclaimService{
		requests: requestRepo,
		actions:  actionRepo,
		minter:   minter,
		locks:    locks,
		cooldown: cooldown,
		logger:   logger.With().Str("component", "reclaim_service").Logger(),
	}
}

func (s *reclaimService) Run(ctx context.Context, adminID string) (dto.ReclaimSummary, error) {
	if s.locks != nil {
		key := fmt.Sprintf("reclaim:cooldown:%s", adminID)
		ok, err := s.locks.SetNX(ctx, key, 1, s.cooldown).Result()
		if err != nil {
			return dto.ReclaimSummary{}, err
		}
		if !ok {
			return dto.ReclaimSummary{}, ErrReclaimCooldown
		}
	}

	observability.ReclaimRuns().Inc()

	var summary dto.ReclaimSummary

	rejected, err := s.requests.ListByStatus(ctx, models.MintRequestStatusRejected)
	if err != nil {
		return dto.ReclaimSummary{}, err
	}

	for _, request := range rejected {
		released, err := s.requests.ReleaseAndDelete(ctx, request.ID)
		if err != nil {
			summary.Errors = appendErrorSample(summary.Errors, fmt.Sprintf("request %d: %v", request.ID, err))
			continue
		}
		summary.RejectedCleaned++
		summary.ActionsReleased += released
	}

	// Requests deleted without cleanup can strand actions in rejected
	// status; sweep them back into the pool.
	stray, err := s.actions.ResetRejected(ctx)
	if err != nil {
		return summary, err
	}
	summary.ActionsReleased += stray

	outcome, err := s.minter.CreateForAll(ctx)
	if err != nil {
		return summary, err
	}

	summary.Created = outcome.Created
	summary.SkippedNoWallet = outcome.SkippedNoWallet
	for _, sample := range outcome.Errors {
		summary.Errors = appendErrorSample(summary.Errors, sample)
	}

	s.logger.Info().
		Int("rejected_cleaned", summary.RejectedCleaned).
		Int64("actions_released", summary.ActionsReleased).
		Int("created", summary.Created).
		Int("skipped_no_wallet", summary.SkippedNoWallet).
		Int("errors", len(summary.Errors)).
		Msg("batch reclamation finished")

	return summary, nil
}
