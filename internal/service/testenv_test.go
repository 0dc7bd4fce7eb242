package service

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pplp-network/settlement-api/internal/config"
	"github.com/pplp-network/settlement-api/internal/models"
	"github.com/pplp-network/settlement-api/internal/repository"
	"github.com/pplp-network/settlement-api/pkg/chain"
)

type testEnv struct {
	db       *gorm.DB
	actions  repository.ActionRepository
	requests repository.MintRequestRepository
	profiles repository.ProfileRepository
	ledger   repository.LedgerRepository
	validate *validator.Validate
	logger   zerolog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
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

	return &testEnv{
		db:       db,
		actions:  repository.NewActionRepository(db),
		requests: repository.NewMintRequestRepository(db),
		profiles: repository.NewProfileRepository(db),
		ledger:   repository.NewLedgerRepository(db),
		validate: validator.New(),
		logger:   zerolog.Nop(),
	}
}

func (e *testEnv) seedProfile(t *testing.T, userID, wallet string) {
	t.Helper()
	require.NoError(t, e.profiles.Upsert(context.Background(), &models.RecipientProfile{
		UserID:        userID,
		DisplayName:   userID,
		WalletAddress: wallet,
	}))
}

func (e *testEnv) seedAction(t *testing.T, ownerID, kind string, mintAmount int64) models.ActionRecord {
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
	require.NoError(t, e.db.Create(&action).Error)

	return action
}

// stubNonce returns a fixed nonce without any RPC round trip.
type stubNonce struct {
	nonce uint64
	calls int
}

func (s *stubNonce) Nonce(ctx context.Context, address string) uint64 {
	s.calls++
	return s.nonce
}

// recordingPublisher collects published events for assertions.
type recordingPublisher struct {
	events []SettlementEvent
}

func (p *recordingPublisher) Publish(event SettlementEvent) {
	p.events = append(p.events, event)
}

func (p *recordingPublisher) typesSeen() []string {
	types := make([]string, len(p.events))
	for i, event := range p.events {
		types[i] = event.Type
	}
	return types
}

// testSigner is a governance signer with its private key, so tests can
// produce real personal-sign signatures.
type testSigner struct {
	key     *ecdsa.PrivateKey
	address string
	group   string
}

func newTestSigner(t *testing.T, group string) testSigner {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	return testSigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey).Hex(),
		group:   group,
	}
}

func (s testSigner) sign(t *testing.T, payload chain.SignPayload) string {
	t.Helper()

	sig, err := crypto.Sign(chain.TextDigest(payload.Message()), s.key)
	require.NoError(t, err)

	// Present the recovery id the way wallets do.
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig)
}

func newTestSignerSet(t *testing.T, signers ...testSigner) *config.SignerSet {
	t.Helper()

	entries := make([]config.GovernanceSigner, len(signers))
	for i, signer := range signers {
		entries[i] = config.GovernanceSigner{
			Address: signer.address,
			Group:   signer.group,
			Name:    "signer " + signer.group,
		}
	}

	raw, err := json.Marshal(entries)
	require.NoError(t, err)

	set, err := config.LoadSigners(string(raw), "")
	require.NoError(t, err)

	return set
}
