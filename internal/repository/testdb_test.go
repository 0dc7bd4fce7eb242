package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pplp-network/settlement-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.ActionRecord{},
		&models.MintRequest{},
		&models.MintSignature{},
		&models.RecipientProfile{},
		&models.TreasuryLedgerEntry{},
	))

	return db
}

func seedAction(t *testing.T, db *gorm.DB, ownerID, kind string, mintAmount int64) models.ActionRecord {
	t.Helper()

	action := models.ActionRecord{
		OwnerID:             ownerID,
		Kind:                kind,
		BaseReward:          "10",
		QualityMultiplier:   1,
		ImpactMultiplier:    1,
		IntegrityMultiplier: 1,
		UnityMultiplier:     1,
		Score:               "10.00",
		MintAmount:          mintAmount,
		Status:              models.ActionStatusApproved,
		Eligible:            true,
	}
	require.NoError(t, db.Create(&action).Error)

	return action
}
