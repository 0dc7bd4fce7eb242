package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pplp-network/settlement-api/internal/models"
)

// LedgerRepository defines data operations for the treasury settlement
// ledger. The transaction hash is the natural dedup key: inserts for a
// hash that already exists are silently skipped, never duplicated.
type LedgerRepository interface {
	Insert(ctx context.Context, entry *models.TreasuryLedgerEntry) (bool, error)
	ListAll(ctx context.Context) ([]models.TreasuryLedgerEntry, error)
	ExistingHashes(ctx context.Context) (map[string]bool, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository instantiates the repository.
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

// Insert writes one ledger entry. Returns false when a row with the same
// transaction hash already exists and nothing was written.
func (r *ledgerRepository) Insert(ctx context.Context, entry *models.TreasuryLedgerEntry) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tx_hash"}},
			DoNothing: true,
		}).
		Create(entry)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *ledgerRepository) ListAll(ctx context.Context) ([]models.TreasuryLedgerEntry, error) {
	var entries []models.TreasuryLedgerEntry
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *ledgerRepository) ExistingHashes(ctx context.Context) (map[string]bool, error) {
	var hashes []string
	if err := r.db.WithContext(ctx).
		Model(&models.TreasuryLedgerEntry{}).
		Pluck("tx_hash", &hashes).Error; err != nil {
		return nil, err
	}

	set := make(map[string]bool, len(hashes))
	for _, hash := range hashes {
		set[hash] = true
	}

	return set, nil
}
