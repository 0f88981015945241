package models

import "time"

// ClubCodeStatus соответствует ENUM в БД.
type ClubCodeStatus string

const (
	ClubCodeActive  ClubCodeStatus = "active"
	ClubCodeRevoked ClubCodeStatus = "revoked"
)

// ClubCode — разовый код, по которому будущий ассистент привязывается к клубу.
type ClubCode struct {
	ID        int            `json:"id" db:"id"`
	ClubID    int            `json:"club_id" db:"club_id"`
	Code      string         `json:"code" db:"code"`
	MaxUses   int            `json:"max_uses" db:"max_uses"`
	Uses      int            `json:"uses" db:"uses"`
	Status    ClubCodeStatus `json:"status" db:"status"`
	ExpiresAt time.Time      `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

func (c *ClubCode) Exhausted() bool {
	return c.Uses >= c.MaxUses
}

// AssistantRequestStatus соответствует ENUM в БД.
type AssistantRequestStatus string

const (
	AssistantPending  AssistantRequestStatus = "pending"
	AssistantApproved AssistantRequestStatus = "approved"
	AssistantRejected AssistantRequestStatus = "rejected"
)

// AssistantRequest создаётся при использовании кода и ждёт решения главного тренера.
type AssistantRequest struct {
	ID        int                    `json:"id" db:"id"`
	ClubID    int                    `json:"club_id" db:"club_id"`
	ProfileID int                    `json:"profile_id" db:"profile_id"`
	CodeID    int                    `json:"code_id" db:"code_id"`
	Status    AssistantRequestStatus `json:"status" db:"status"`
	CreatedAt time.Time              `json:"created_at" db:"created_at"`

	Profile *Profile `json:"profile,omitempty" db:"-"`
}
