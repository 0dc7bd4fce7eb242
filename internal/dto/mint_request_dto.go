package dto

import (
	"time"

	"github.com/pplp-network/settlement-api/internal/models"
)

// SignRequest carries one governance signer's approval of a mint request.
type SignRequest struct {
	SignerAddress string `json:"signer_address" validate:"required,eth_addr"`
	Signature     string `json:"signature" validate:"required"`
}

// SignatureResponse is one collected governance approval.
type SignatureResponse struct {
	Group         string    `json:"group"`
	SignerAddress string    `json:"signer_address"`
	SignerName    string    `json:"signer_name"`
	SignedAt      time.Time `json:"signed_at"`
}

// MintRequestResponse is the API representation of a mint request.
type MintRequestResponse struct {
	ID           uint                `json:"id"`
	OwnerID      string              `json:"owner_id"`
	Recipient    string              `json:"recipient"`
	Amount       int64               `json:"amount"`
	AmountBase   string              `json:"amount_base"`
	EvidenceHash string              `json:"evidence_hash"`
	ActionName   string              `json:"action_name"`
	ActionHash   string              `json:"action_hash"`
	Nonce        uint64              `json:"nonce"`
	Status       string              `json:"status"`
	ActionIDs    []uint              `json:"action_ids"`
	Signatures   []SignatureResponse `json:"signatures"`
	SignedGroups []string            `json:"signed_groups"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// NewMintRequestResponse converts a model into its API representation.
func NewMintRequestResponse(request models.MintRequest) MintRequestResponse {
	signatures := make([]SignatureResponse, len(request.Signatures))
	groups := make([]string, len(request.Signatures))
	for i, sig := range request.Signatures {
		signatures[i] = SignatureResponse{
			Group:         sig.Group,
			SignerAddress: sig.SignerAddress,
			SignerName:    sig.SignerName,
			SignedAt:      sig.CreatedAt,
		}
		groups[i] = sig.Group
	}

	return MintRequestResponse{
		ID:           request.ID,
		OwnerID:      request.OwnerID,
		Recipient:    request.Recipient,
		Amount:       request.Amount,
		AmountBase:   request.AmountBase,
		EvidenceHash: request.EvidenceHash,
		ActionName:   request.ActionName,
		ActionHash:   request.ActionHash,
		Nonce:        request.Nonce,
		Status:       request.Status,
		ActionIDs:    request.ActionIDs,
		Signatures:   signatures,
		SignedGroups: groups,
		CreatedAt:    request.CreatedAt,
		UpdatedAt:    request.UpdatedAt,
	}
}

// NewMintRequestResponseSlice converts a slice of models.
func NewMintRequestResponseSlice(requests []models.MintRequest) []MintRequestResponse {
	responses := make([]MintRequestResponse, len(requests))
	for i, request := range requests {
		responses[i] = NewMintRequestResponse(request)
	}
	return responses
}

// ReclaimSummary reports the outcome of one batch reclamation run.
// Per-owner errors are collected, never fatal to the batch.
type ReclaimSummary struct {
	RejectedCleaned int      `json:"rejected_cleaned"`
	ActionsReleased int64    `json:"actions_released"`
	Created         int      `json:"created"`
	SkippedNoWallet int      `json:"skipped_no_wallet"`
	Errors          []string `json:"errors,omitempty"`
}
