package models

import "time"

// Ledger entry kinds. Claims come from executed mint requests, donations
// from direct treasury transfers.
const (
	LedgerKindClaim    = "claim"
	LedgerKindDonation = "donation"
)

// Ledger entry sources. Backfilled rows were reconstructed from on-chain
// history by the reconciliation job rather than written at settlement time.
const (
	LedgerSourceSettlement = "settlement"
	LedgerSourceBackfill   = "backfill"
)

// TreasuryLedgerEntry is the off-chain record of one outgoing treasury
// transfer. TxHash is the natural dedup key against on-chain history.
type TreasuryLedgerEntry struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TxHash     string    `gorm:"size:66;not null;uniqueIndex" json:"tx_hash"`
	UserID     string    `gorm:"size:64;index" json:"user_id"`
	Recipient  string    `gorm:"size:42;not null;index" json:"recipient"`
	Amount     int64     `gorm:"not null" json:"amount"`
	AmountBase string    `gorm:"size:80;not null" json:"amount_base"`
	Kind       string    `gorm:"size:16;not null" json:"kind"`
	Source     string    `gorm:"size:16;not null" json:"source"`
	CreatedAt  time.Time `json:"created_at"`
}
