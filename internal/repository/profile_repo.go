package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pplp-network/settlement-api/internal/models"
)

// ProfileRepository reads the mirrored recipient profiles. Wallet
// matching is exact (case-insensitive hex), never fuzzy.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (models.RecipientProfile, error)
	GetByWallet(ctx context.Context, wallet string) (models.RecipientProfile, error)
	Upsert(ctx context.Context, profile *models.RecipientProfile) error
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository instantiates the repository.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID string) (models.RecipientProfile, error) {
	var profile models.RecipientProfile
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile).Error; err != nil {
		return models.RecipientProfile{}, err
	}

	return profile, nil
}

func (r *profileRepository) GetByWallet(ctx context.Context, wallet string) (models.RecipientProfile, error) {
	var profile models.RecipientProfile
	if err := r.db.WithContext(ctx).
		Where("LOWER(wallet_address) = ?", strings.ToLower(wallet)).
		First(&profile).Error; err != nil {
		return models.RecipientProfile{}, err
	}

	return profile, nil
}

// Upsert mirrors a profile from the identity system.
func (r *profileRepository) Upsert(ctx context.Context, profile *models.RecipientProfile) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"display_name", "wallet_address", "updated_at"}),
		}).
		Create(profile).Error
}
