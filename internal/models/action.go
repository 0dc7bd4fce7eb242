package models

import "time"

// Settlement status values for an ActionRecord. An action starts out
// approved and unassigned, is claimed by a mint request, and follows
// that request's fate.
const (
	ActionStatusApproved   = "approved"
	ActionStatusPendingSig = "pending_sig"
	ActionStatusSigned     = "signed"
	ActionStatusRejected   = "rejected"
)

// Action kinds recognised by the scoring formula.
const (
	ActionKindPost         = "post"
	ActionKindComment      = "comment"
	ActionKindReaction     = "reaction"
	ActionKindShare        = "share"
	ActionKindFriend       = "friend"
	ActionKindLivestream   = "livestream"
	ActionKindNewUserBonus = "new_user_bonus"
	ActionKindDonate       = "donate"
)

// ActionKinds lists every valid action kind.
var ActionKinds = []string{
	ActionKindPost,
	ActionKindComment,
	ActionKindReaction,
	ActionKindShare,
	ActionKindFriend,
	ActionKindLivestream,
	ActionKindNewUserBonus,
	ActionKindDonate,
}

// IsValidActionKind reports whether kind is a known action kind.
func IsValidActionKind(kind string) bool {
	for _, k := range ActionKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// ActionRecord is one scored unit of user activity. Records are the
// audit trail of the settlement engine: they are never deleted, only
// reassigned between mint requests.
type ActionRecord struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	OwnerID             string    `gorm:"size:64;not null;index" json:"owner_id"`
	Kind                string    `gorm:"size:32;not null" json:"kind"`
	BaseReward          string    `gorm:"size:32;not null" json:"base_reward"`
	QualityMultiplier   float64   `gorm:"not null;default:1" json:"quality_multiplier"`
	ImpactMultiplier    float64   `gorm:"not null;default:1" json:"impact_multiplier"`
	IntegrityMultiplier float64   `gorm:"not null;default:1" json:"integrity_multiplier"`
	UnityMultiplier     float64   `gorm:"not null;default:1" json:"unity_multiplier"`
	Score               string    `gorm:"size:32;not null" json:"score"`
	MintAmount          int64     `gorm:"not null" json:"mint_amount"`
	Status              string    `gorm:"size:32;not null;index" json:"status"`
	MintRequestID       *uint     `gorm:"index" json:"mint_request_id"`
	Eligible            bool      `gorm:"not null;default:true" json:"eligible"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// IsUnassigned reports whether the record is back in the mintable pool.
func (a ActionRecord) IsUnassigned() bool {
	return a.Status == ActionStatusApproved && a.MintRequestID == nil
}
