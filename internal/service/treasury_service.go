package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/pplp-network/settlement-api/internal/dto"
	"github.com/pplp-network/settlement-api/internal/models"
	"github.com/pplp-network/settlement-api/internal/observability"
	"github.com/pplp-network/settlement-api/internal/repository"
	"github.com/pplp-network/settlement-api/pkg/indexer"
)

// TransferSource pages the authoritative on-chain transfer history.
type TransferSource interface {
	OutgoingTransfers(ctx context.Context, wallet string) ([]indexer.TokenTransfer, error)
}

// TreasuryService reconciles on-chain treasury transfers against the
// off-chain settlement ledger. Both modes are idempotent: the
// transaction hash is the dedup key throughout.
type TreasuryService interface {
	Scan(ctx context.Context) (dto.ScanResponse, error)
	Backfill(ctx context.Context, payload dto.BackfillRequest) (dto.BackfillResponse, error)
}

type treasuryService struct {
	ledger    repository.LedgerRepository
	profiles  repository.ProfileRepository
	source    TransferSource
	treasury  string
	decimals  int
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewTreasuryService constructs a TreasuryService instance.
func NewTreasuryService(ledgerRepo repository.LedgerRepository, profileRepo repository.ProfileRepository, source TransferSource, treasuryAddress string, decimals int, validate *validator.Validate, logger zerolog.Logger) TreasuryService {
	return &treasuryService{
		ledger:    ledgerRepo,
		profiles:  profileRepo,
		source:    source,
		treasury:  treasuryAddress,
		decimals:  decimals,
		validator: validate,
		logger:    logger.With().Str("component", "treasury_service").Logger(),
	}
}

// Scan compares the full outgoing transfer history of the treasury
// against recorded ledger rows. Unmatched transfers are mapped to
// recipient profiles by exact wallet address only; anything unmappable
// is reported for manual review, never auto-inserted.
func (s *treasuryService) Scan(ctx context.Context) (dto.ScanResponse, error) {
	transfers, err := s.source.OutgoingTransfers(ctx, s.treasury)
	if err != nil {
		return dto.ScanResponse{}, fmt.Errorf("transfer history scan failed: %w", err)
	}

	recorded, err := s.ledger.ListAll(ctx)
	if err != nil {
		return dto.ScanResponse{}, err
	}

	known := make(map[string]bool, len(recorded))
	recordedTotal := new(big.Int)
	for _, entry := range recorded {
		known[strings.ToLower(entry.TxHash)] = true
		if value, ok := new(big.Int).SetString(entry.AmountBase, 10); ok {
			recordedTotal.Add(recordedTotal, value)
		}
	}

	onchainTotal := new(big.Int)
	missing := make([]dto.UnmatchedTransfer, 0)
	unmappable := 0

	for _, transfer := range transfers {
		if value, ok := new(big.Int).SetString(transfer.Value, 10); ok {
			onchainTotal.Add(onchainTotal, value)
		}

		if known[strings.ToLower(transfer.Hash)] {
			continue
		}

		unmatched := dto.UnmatchedTransfer{
			TxHash:    transfer.Hash,
			Recipient: transfer.To,
			ValueBase: transfer.Value,
		}

		profile, err := s.profiles.GetByWallet(ctx, transfer.To)
		switch {
		case err == nil:
			unmatched.UserID = profile.UserID
			unmatched.Mappable = true
		case errors.Is(err, gorm.ErrRecordNotFound):
			unmappable++
		default:
			return dto.ScanResponse{}, err
		}

		missing = append(missing, unmatched)
	}

	observability.TreasuryMissingTransfers().Set(float64(len(missing)))

	s.logger.Info().
		Int("onchain_transfers", len(transfers)).
		Int("recorded_transfers", len(recorded)).
		Int("missing", len(missing)).
		Int("unmappable", unmappable).
		Msg("treasury scan finished")

	return dto.ScanResponse{
		OnchainTransfers:  len(transfers),
		OnchainTotalBase:  onchainTotal.String(),
		RecordedTransfers: len(recorded),
		RecordedTotalBase: recordedTotal.String(),
		Missing:           missing,
		UnmappableCount:   unmappable,
	}, nil
}

// Backfill inserts ledger rows for the admin-approved transfer hashes.
// Hashes already recorded and destinations that cannot be mapped to a
// recipient are skipped, not failed; the engine never guesses an owner.
func (s *treasuryService) Backfill(ctx context.Context, payload dto.BackfillRequest) (dto.BackfillResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BackfillResponse{}, err
	}

	transfers, err := s.source.OutgoingTransfers(ctx, s.treasury)
	if err != nil {
		return dto.BackfillResponse{}, fmt.Errorf("transfer history fetch failed: %w", err)
	}

	byHash := make(map[string]indexer.TokenTransfer, len(transfers))
	for _, transfer := range transfers {
		byHash[strings.ToLower(transfer.Hash)] = transfer
	}

	var summary dto.BackfillResponse
	for _, rawHash := range payload.TxHashes {
		hash := strings.ToLower(strings.TrimSpace(rawHash))
		transfer, ok := byHash[hash]
		if !ok {
			summary.Errors = appendErrorSample(summary.Errors, fmt.Sprintf("%s: not found in treasury history", rawHash))
			continue
		}

		profile, err := s.profiles.GetByWallet(ctx, transfer.To)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				summary.SkippedUnmapped++
				continue
			}
			return summary, err
		}

		entry := models.TreasuryLedgerEntry{
			TxHash:     transfer.Hash,
			UserID:     profile.UserID,
			Recipient:  transfer.To,
			Amount:     s.toDisplayUnits(transfer.Value),
			AmountBase: transfer.Value,
			Kind:       models.LedgerKindClaim,
			Source:     models.LedgerSourceBackfill,
		}

		inserted, err := s.ledger.Insert(ctx, &entry)
		if err != nil {
			summary.Errors = appendErrorSample(summary.Errors, fmt.Sprintf("%s: %v", rawHash, err))
			continue
		}

		if inserted {
			summary.Inserted++
		} else {
			summary.SkippedExisting++
		}
	}

	s.logger.Info().
		Int("inserted", summary.Inserted).
		Int("skipped_existing", summary.SkippedExisting).
		Int("skipped_unmapped", summary.SkippedUnmapped).
		Int("errors", len(summary.Errors)).
		Msg("treasury backfill finished")

	return summary, nil
}

func (s *treasuryService) toDisplayUnits(baseValue string) int64 {
	value, ok := new(big.Int).SetString(baseValue, 10)
	if !ok {
		return 0
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(s.decimals)), nil)
	return new(big.Int).Div(value, scale).Int64()
}
