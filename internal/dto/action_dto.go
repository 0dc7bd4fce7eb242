package dto

import (
	"time"

	"github.com/pplp-network/settlement-api/internal/models"
)

// ActionCreateRequest records one scored activity event for a user.
type ActionCreateRequest struct {
	OwnerID   string  `json:"owner_id" validate:"required"`
	Kind      string  `json:"kind" validate:"required"`
	Quality   float64 `json:"quality" validate:"gte=0"`
	Impact    float64 `json:"impact" validate:"gte=0"`
	Integrity float64 `json:"integrity" validate:"gte=0"`
	Unity     float64 `json:"unity" validate:"gte=0"`
}

// ActionResponse is the API representation of an action record.
type ActionResponse struct {
	ID            uint      `json:"id"`
	OwnerID       string    `json:"owner_id"`
	Kind          string    `json:"kind"`
	Score         string    `json:"score"`
	MintAmount    int64     `json:"mint_amount"`
	Status        string    `json:"status"`
	MintRequestID *uint     `json:"mint_request_id"`
	Eligible      bool      `json:"eligible"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewActionResponse converts a model into its API representation.
func NewActionResponse(action models.ActionRecord) ActionResponse {
	return ActionResponse{
		ID:            action.ID,
		OwnerID:       action.OwnerID,
		Kind:          action.Kind,
		Score:         action.Score,
		MintAmount:    action.MintAmount,
		Status:        action.Status,
		MintRequestID: action.MintRequestID,
		Eligible:      action.Eligible,
		CreatedAt:     action.CreatedAt,
	}
}

// NewActionResponseSlice converts a slice of models.
func NewActionResponseSlice(actions []models.ActionRecord) []ActionResponse {
	responses := make([]ActionResponse, len(actions))
	for i, action := range actions {
		responses[i] = NewActionResponse(action)
	}
	return responses
}

// RecomputeResponse summarises a formula recompute run over unsettled actions.
type RecomputeResponse struct {
	Recomputed int      `json:"recomputed"`
	Unchanged  int      `json:"unchanged"`
	Errors     []string `json:"errors,omitempty"`
}
