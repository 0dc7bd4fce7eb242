package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pplp-network/settlement-api/internal/models"
)

// ErrNoClaimableActions indicates an owner has no unassigned eligible
// actions with a positive mint amount.
var ErrNoClaimableActions = errors.New("no claimable actions for owner")

// ErrDuplicateGroup indicates the governance group already signed the request.
var ErrDuplicateGroup = errors.New("governance group already signed")

// ErrRequestClosed indicates the request is in a terminal state.
var ErrRequestClosed = errors.New("mint request is closed")

// ErrIllegalTransition indicates a state machine edge that does not exist.
var ErrIllegalTransition = errors.New("illegal mint request transition")

// MintRequestFilter narrows mint request queries.
type MintRequestFilter struct {
	OwnerID *string
	Status  *string
}

// MintRequestRepository owns all writes to the mint request table and
// the transactional claim of action records. No other component mutates
// either table directly.
type MintRequestRepository interface {
	GetByID(ctx context.Context, id uint) (models.MintRequest, error)
	List(ctx context.Context, filter MintRequestFilter) ([]models.MintRequest, error)
	ListByStatus(ctx context.Context, status string) ([]models.MintRequest, error)
	ClaimAndCreate(ctx context.Context, ownerID string, build BuildRequestFunc) (models.MintRequest, error)
	Transition(ctx context.Context, id uint, target string) (models.MintRequest, error)
	AppendSignature(ctx context.Context, requestID uint, signature models.MintSignature, quorum int) (models.MintRequest, error)
	ReleaseAndDelete(ctx context.Context, requestID uint) (int64, error)
}

// BuildRequestFunc assembles a MintRequest from the locked set of
// claimable actions. It runs inside the claim transaction, so it must
// not perform its own database writes.
type BuildRequestFunc func(actions []models.ActionRecord) (models.MintRequest, error)

type mintRequestRepository struct {
	db *gorm.DB
}

// NewMintRequestRepository instantiates the repository.
func NewMintRequestRepository(db *gorm.DB) MintRequestRepository {
	return &mintRequestRepository{db: db}
}

func (r *mintRequestRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.MintRequest{}).Preload("Signatures")
}

func (r *mintRequestRepository) GetByID(ctx context.Context, id uint) (models.MintRequest, error) {
	var request models.MintRequest
	if err := r.baseQuery(ctx).First(&request, id).Error; err != nil {
		return models.MintRequest{}, err
	}

	return request, nil
}

func (r *mintRequestRepository) List(ctx context.Context, filter MintRequestFilter) ([]models.MintRequest, error) {
	query := r.baseQuery(ctx)

	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var requests []models.MintRequest
	if err := query.Order("created_at DESC").Find(&requests).Error; err != nil {
		return nil, err
	}

	return requests, nil
}

func (r *mintRequestRepository) ListByStatus(ctx context.Context, status string) ([]models.MintRequest, error) {
	return r.List(ctx, MintRequestFilter{Status: &status})
}

// ClaimAndCreate atomically claims every unassigned eligible action of
// the owner and creates the mint request they constitute. The action
// rows are locked for the duration of the transaction, so two
// concurrent creations for the same owner cannot double-count a record.
func (r *mintRequestRepository) ClaimAndCreate(ctx context.Context, ownerID string, build BuildRequestFunc) (models.MintRequest, error) {
	var created models.MintRequest

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var actions []models.ActionRecord
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("owner_id = ?", ownerID).
			Where("status = ?", models.ActionStatusApproved).
			Where("eligible = ?", true).
			Where("mint_request_id IS NULL").
			Where("mint_amount > 0").
			Order("id ASC").
			Find(&actions).Error; err != nil {
			return err
		}

		if len(actions) == 0 {
			return ErrNoClaimableActions
		}

		request, err := build(actions)
		if err != nil {
			return err
		}

		request.Status = models.MintRequestStatusPendingSig
		if err := tx.Create(&request).Error; err != nil {
			return err
		}

		ids := make([]uint, len(actions))
		for i, action := range actions {
			ids[i] = action.ID
		}

		if err := tx.Model(&models.ActionRecord{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"status":          models.ActionStatusPendingSig,
				"mint_request_id": request.ID,
			}).Error; err != nil {
			return err
		}

		created = request
		return nil
	})
	if err != nil {
		return models.MintRequest{}, err
	}

	return created, nil
}

// Transition moves the request along a legal state machine edge. The
// status check and the write happen in one conditional UPDATE, so a
// concurrent transition cannot slip through between read and write.
func (r *mintRequestRepository) Transition(ctx context.Context, id uint, target string) (models.MintRequest, error) {
	var request models.MintRequest

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&request, id).Error; err != nil {
			return err
		}

		if request.IsTerminal() {
			return ErrRequestClosed
		}
		if !request.CanTransition(target) {
			return ErrIllegalTransition
		}

		if err := tx.Model(&models.MintRequest{}).
			Where("id = ?", id).
			Update("status", target).Error; err != nil {
			return err
		}

		// Constituent actions follow the request into rejection and keep
		// their reference until the reclamation job releases them.
		if target == models.MintRequestStatusRejected {
			if err := tx.Model(&models.ActionRecord{}).
				Where("mint_request_id = ?", id).
				Update("status", models.ActionStatusRejected).Error; err != nil {
				return err
			}
		}

		request.Status = target
		return nil
	})
	if err != nil {
		return models.MintRequest{}, err
	}

	return r.GetByID(ctx, id)
}

// AppendSignature inserts a governance group's approval under a row lock
// on the request. Group presence is a check-and-set: the read, the
// insert, and the possible transition to signed commit together. The
// unique index on (request, group) backstops the check at the storage
// layer.
func (r *mintRequestRepository) AppendSignature(ctx context.Context, requestID uint, signature models.MintSignature, quorum int) (models.MintRequest, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var request models.MintRequest
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&request, requestID).Error; err != nil {
			return err
		}

		if request.IsTerminal() {
			return ErrRequestClosed
		}

		var existing int64
		if err := tx.Model(&models.MintSignature{}).
			Where("mint_request_id = ?", requestID).
			Where("\"group\" = ?", signature.Group).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrDuplicateGroup
		}

		signature.MintRequestID = requestID
		if err := tx.Create(&signature).Error; err != nil {
			return err
		}

		var total int64
		if err := tx.Model(&models.MintSignature{}).
			Where("mint_request_id = ?", requestID).
			Count(&total).Error; err != nil {
			return err
		}

		next := models.MintRequestStatusSigning
		if int(total) >= quorum {
			next = models.MintRequestStatusSigned
		}

		if next != request.Status {
			if err := tx.Model(&models.MintRequest{}).
				Where("id = ?", requestID).
				Update("status", next).Error; err != nil {
				return err
			}
		}

		if next == models.MintRequestStatusSigned {
			if err := tx.Model(&models.ActionRecord{}).
				Where("mint_request_id = ?", requestID).
				Update("status", models.ActionStatusSigned).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return models.MintRequest{}, err
	}

	return r.GetByID(ctx, requestID)
}

// ReleaseAndDelete returns the constituent actions of a rejected request
// to the unassigned pool and removes the request row, which has no
// further value once reclaimed. Returns the number of released actions.
func (r *mintRequestRepository) ReleaseAndDelete(ctx context.Context, requestID uint) (int64, error) {
	var released int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var request models.MintRequest
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&request, requestID).Error; err != nil {
			return err
		}

		if request.Status != models.MintRequestStatusRejected {
			return ErrIllegalTransition
		}

		result := tx.Model(&models.ActionRecord{}).
			Where("mint_request_id = ?", requestID).
			Updates(map[string]interface{}{
				"status":          models.ActionStatusApproved,
				"mint_request_id": nil,
			})
		if result.Error != nil {
			return result.Error
		}
		released = result.RowsAffected

		if err := tx.Where("mint_request_id = ?", requestID).
			Delete(&models.MintSignature{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.MintRequest{}, requestID).Error
	})
	if err != nil {
		return 0, err
	}

	return released, nil
}
