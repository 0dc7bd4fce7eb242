package models

import "time"

// RecipientProfile mirrors the identity system's view of a user for
// settlement purposes: the wallet that receives minted rewards. It is
// read-mostly here; the identity service owns the source of truth.
type RecipientProfile struct {
	UserID        string    `gorm:"primaryKey;size:64" json:"user_id"`
	DisplayName   string    `gorm:"size:128" json:"display_name"`
	WalletAddress string    `gorm:"size:42;index" json:"wallet_address"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasWallet reports whether a mint can be addressed to this profile.
func (p RecipientProfile) HasWallet() bool {
	return p.WalletAddress != ""
}
