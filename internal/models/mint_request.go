package models

import (
	"time"

	"gorm.io/datatypes"
)

// Mint request lifecycle states. signed and rejected are terminal.
const (
	MintRequestStatusPendingSig = "pending_sig"
	MintRequestStatusSigning    = "signing"
	MintRequestStatusSigned     = "signed"
	MintRequestStatusRejected   = "rejected"
)

// MintRequest aggregates the unassigned approved actions of one
// recipient into a single on-chain mint claim. It becomes executable
// only once all three governance groups have signed.
type MintRequest struct {
	ID             uint                       `gorm:"primaryKey" json:"id"`
	OwnerID        string                     `gorm:"size:64;not null;index" json:"owner_id"`
	Recipient      string                     `gorm:"size:42;not null;index" json:"recipient"`
	Amount         int64                      `gorm:"not null" json:"amount"`
	AmountBase     string                     `gorm:"size:80;not null" json:"amount_base"`
	EvidenceHash   string                     `gorm:"size:66;not null" json:"evidence_hash"`
	ActionName     string                     `gorm:"size:64;not null" json:"action_name"`
	ActionHash     string                     `gorm:"size:66;not null" json:"action_hash"`
	Nonce          uint64                     `gorm:"not null" json:"nonce"`
	Status         string                     `gorm:"size:32;not null;index" json:"status"`
	ActionIDs      datatypes.JSONSlice[uint]  `json:"action_ids"`
	Signatures     []MintSignature            `gorm:"constraint:OnDelete:CASCADE" json:"signatures"`
	CreatedAt      time.Time                  `json:"created_at"`
	UpdatedAt      time.Time                  `json:"updated_at"`
}

// MintSignature is one governance group's approval of a mint request.
// The composite unique index makes duplicate-group signing impossible
// at the storage layer, independent of service-level checks.
type MintSignature struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	MintRequestID uint      `gorm:"not null;uniqueIndex:idx_request_group" json:"mint_request_id"`
	Group         string    `gorm:"size:16;not null;uniqueIndex:idx_request_group" json:"group"`
	SignerAddress string    `gorm:"size:42;not null" json:"signer_address"`
	SignerName    string    `gorm:"size:128" json:"signer_name"`
	Signature     string    `gorm:"type:text;not null" json:"signature"`
	CreatedAt     time.Time `json:"created_at"`
}

// SignedGroups returns the set of governance groups present in the
// signature map.
func (m MintRequest) SignedGroups() map[string]bool {
	groups := make(map[string]bool, len(m.Signatures))
	for _, sig := range m.Signatures {
		groups[sig.Group] = true
	}
	return groups
}

// HasGroup reports whether the given governance group already signed.
func (m MintRequest) HasGroup(group string) bool {
	return m.SignedGroups()[group]
}

// IsTerminal reports whether the request can no longer change state.
func (m MintRequest) IsTerminal() bool {
	return m.Status == MintRequestStatusSigned || m.Status == MintRequestStatusRejected
}

// CanTransition reports whether moving to the target status is a legal
// state machine edge.
func (m MintRequest) CanTransition(target string) bool {
	switch target {
	case MintRequestStatusSigning:
		return m.Status == MintRequestStatusPendingSig
	case MintRequestStatusSigned:
		return m.Status == MintRequestStatusPendingSig || m.Status == MintRequestStatusSigning
	case MintRequestStatusRejected:
		return m.Status == MintRequestStatusPendingSig || m.Status == MintRequestStatusSigning
	default:
		return false
	}
}
