package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/pplp-network/settlement-api/internal/models"
)

// ActionFilter allows narrowing action queries.
type ActionFilter struct {
	OwnerID *string
	Status  *string
	Kind    *string
}

// ActionRepository defines data operations for the action ledger.
// Records are append-mostly: status and assignment mutate, rows never
// disappear.
type ActionRepository interface {
	Create(ctx context.Context, action *models.ActionRecord) error
	GetByID(ctx context.Context, id uint) (models.ActionRecord, error)
	List(ctx context.Context, filter ActionFilter) ([]models.ActionRecord, error)
	ListUnassigned(ctx context.Context) ([]models.ActionRecord, error)
	ListByRequest(ctx context.Context, requestID uint) ([]models.ActionRecord, error)
	ListUnsettled(ctx context.Context) ([]models.ActionRecord, error)
	UpdateScore(ctx context.Context, id uint, score string, mintAmount int64) error
	ResetRejected(ctx context.Context) (int64, error)
}

type actionRepository struct {
	db *gorm.DB
}

// NewActionRepository instantiates the repository.
func NewActionRepository(db *gorm.DB) ActionRepository {
	return &actionRepository{db: db}
}

func (r *actionRepository) Create(ctx context.Context, action *models.ActionRecord) error {
	return r.db.WithContext(ctx).Create(action).Error
}

func (r *actionRepository) GetByID(ctx context.Context, id uint) (models.ActionRecord, error) {
	var action models.ActionRecord
	if err := r.db.WithContext(ctx).First(&action, id).Error; err != nil {
		return models.ActionRecord{}, err
	}

	return action, nil
}

func (r *actionRepository) List(ctx context.Context, filter ActionFilter) ([]models.ActionRecord, error) {
	query := r.db.WithContext(ctx).Model(&models.ActionRecord{})

	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}

	var actions []models.ActionRecord
	if err := query.Order("created_at DESC").Find(&actions).Error; err != nil {
		return nil, err
	}

	return actions, nil
}

// ListUnassigned returns every eligible approved action that no mint
// request has claimed yet, across all owners.
func (r *actionRepository) ListUnassigned(ctx context.Context) ([]models.ActionRecord, error) {
	var actions []models.ActionRecord
	if err := r.db.WithContext(ctx).
		Where("status = ?", models.ActionStatusApproved).
		Where("eligible = ?", true).
		Where("mint_request_id IS NULL").
		Where("mint_amount > 0").
		Order("id ASC").
		Find(&actions).Error; err != nil {
		return nil, err
	}

	return actions, nil
}

func (r *actionRepository) ListByRequest(ctx context.Context, requestID uint) ([]models.ActionRecord, error) {
	var actions []models.ActionRecord
	if err := r.db.WithContext(ctx).
		Where("mint_request_id = ?", requestID).
		Order("id ASC").
		Find(&actions).Error; err != nil {
		return nil, err
	}

	return actions, nil
}

// ListUnsettled returns actions whose mint amount may still be rewritten
// by a formula recompute: unassigned approved actions plus actions linked
// to requests that have not completed signing.
func (r *actionRepository) ListUnsettled(ctx context.Context) ([]models.ActionRecord, error) {
	var actions []models.ActionRecord
	if err := r.db.WithContext(ctx).
		Where("status = ? OR status = ?", models.ActionStatusApproved, models.ActionStatusPendingSig).
		Order("id ASC").
		Find(&actions).Error; err != nil {
		return nil, err
	}

	return actions, nil
}

func (r *actionRepository) UpdateScore(ctx context.Context, id uint, score string, mintAmount int64) error {
	return r.db.WithContext(ctx).
		Model(&models.ActionRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"score":       score,
			"mint_amount": mintAmount,
		}).Error
}

// ResetRejected releases any action stuck in rejected status back to the
// unassigned pool. Covers requests that were deleted without cleanup.
func (r *actionRepository) ResetRejected(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ActionRecord{}).
		Where("status = ?", models.ActionStatusRejected).
		Updates(map[string]interface{}{
			"status":          models.ActionStatusApproved,
			"mint_request_id": nil,
		})

	return result.RowsAffected, result.Error
}
