package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/pplp-network/settlement-api/internal/dto"
	"github.com/pplp-network/settlement-api/internal/models"
	"github.com/pplp-network/settlement-api/internal/repository"
	"github.com/pplp-network/settlement-api/internal/scoring"
)

// ErrInvalidActionKind indicates an activity kind outside the reward formula.
var ErrInvalidActionKind = errors.New("invalid action kind")

// Cap on error strings carried back in batch summaries.
const maxErrorSamples = 20

// ActionService appends scored activity to the action ledger and runs
// formula recomputes over unsettled records.
type ActionService interface {
	Record(ctx context.Context, payload dto.ActionCreateRequest) (dto.ActionResponse, error)
	List(ctx context.Context, filter repository.ActionFilter) ([]dto.ActionResponse, error)
	Recompute(ctx context.Context) (dto.RecomputeResponse, error)
}

type actionService struct {
	actions   repository.ActionRepository
	engine    *scoring.Engine
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewActionService constructs an ActionService instance.
func NewActionService(actionRepo repository.ActionRepository, engine *scoring.Engine, validate *validator.Validate, logger zerolog.Logger) ActionService {
	return &actionService{
		actions:   actionRepo,
		engine:    engine,
		validator: validate,
		logger:    logger.With().Str("component", "action_service").Logger(),
	}
}

func (s *actionService) Record(ctx context.Context, payload dto.ActionCreateRequest) (dto.ActionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ActionResponse{}, err
	}

	if !models.IsValidActionKind(payload.Kind) {
		return dto.ActionResponse{}, fmt.Errorf("%w: %s", ErrInvalidActionKind, payload.Kind)
	}

	result, err := s.engine.Score(payload.Kind, scoring.Inputs{
		Quality:   payload.Quality,
		Impact:    payload.Impact,
		Integrity: payload.Integrity,
		Unity:     payload.Unity,
	})
	if err != nil {
		return dto.ActionResponse{}, err
	}

	action := models.ActionRecord{
		OwnerID:             payload.OwnerID,
		Kind:                payload.Kind,
		BaseReward:          result.BaseReward.String(),
		QualityMultiplier:   payload.Quality,
		ImpactMultiplier:    payload.Impact,
		IntegrityMultiplier: payload.Integrity,
		UnityMultiplier:     payload.Unity,
		Score:               result.Score.StringFixed(2),
		MintAmount:          result.MintAmount,
		Status:              models.ActionStatusApproved,
		Eligible:            true,
	}

	if err := s.actions.Create(ctx, &action); err != nil {
		return dto.ActionResponse{}, err
	}

	s.logger.Info().
		Uint("action_id", action.ID).
		Str("owner_id", action.OwnerID).
		Str("kind", action.Kind).
		Int64("mint_amount", action.MintAmount).
		Msg("action recorded")

	return dto.NewActionResponse(action), nil
}

func (s *actionService) List(ctx context.Context, filter repository.ActionFilter) ([]dto.ActionResponse, error) {
	actions, err := s.actions.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewActionResponseSlice(actions), nil
}

// Recompute re-runs the scoring formula over every unsettled action and
// overwrites scores that changed. Actions linked to signed requests are
// never touched: their amount is already part of an executable claim.
func (s *actionService) Recompute(ctx context.Context) (dto.RecomputeResponse, error) {
	actions, err := s.actions.ListUnsettled(ctx)
	if err != nil {
		return dto.RecomputeResponse{}, err
	}

	var summary dto.RecomputeResponse
	for _, action := range actions {
		result, err := s.engine.Score(action.Kind, scoring.Inputs{
			Quality:   action.QualityMultiplier,
			Impact:    action.ImpactMultiplier,
			Integrity: action.IntegrityMultiplier,
			Unity:     action.UnityMultiplier,
		})
		if err != nil {
			summary.Errors = appendErrorSample(summary.Errors, fmt.Sprintf("action %d: %v", action.ID, err))
			continue
		}

		score := result.Score.StringFixed(2)
		if score == action.Score && result.MintAmount == action.MintAmount {
			summary.Unchanged++
			continue
		}

		if err := s.actions.UpdateScore(ctx, action.ID, score, result.MintAmount); err != nil {
			summary.Errors = appendErrorSample(summary.Errors, fmt.Sprintf("action %d: %v", action.ID, err))
			continue
		}
		summary.Recomputed++
	}

	s.logger.Info().
		Int("recomputed", summary.Recomputed).
		Int("unchanged", summary.Unchanged).
		Int("errors", len(summary.Errors)).
		Msg("score recompute finished")

	return summary, nil
}

func appendErrorSample(samples []string, message string) []string {
	if len(samples) >= maxErrorSamples {
		return samples
	}
	return append(samples, message)
}
