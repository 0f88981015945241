package models

import "time"

// PlayerPosition соответствует ENUM в БД.
type PlayerPosition string

const (
	PositionSetter        PlayerPosition = "setter"
	PositionOutsideHitter PlayerPosition = "outside_hitter"
	PositionOpposite      PlayerPosition = "opposite"
	PositionMiddleBlocker PlayerPosition = "middle_blocker"
	PositionLibero        PlayerPosition = "libero"
)

func (p PlayerPosition) Valid() bool {
	switch p {
	case PositionSetter, PositionOutsideHitter, PositionOpposite, PositionMiddleBlocker, PositionLibero:
		return true
	}
	return false
}

type Player struct {
	ID         int            `json:"id" db:"id"`
	TeamID     int            `json:"team_id" db:"team_id"`
	FullName   string         `json:"full_name" db:"full_name"`
	DocumentID string         `json:"document_id" db:"document_id"`
	BirthDate  time.Time      `json:"birth_date" db:"birth_date"`
	Position   PlayerPosition `json:"position" db:"position"`
	HeightCm   *int           `json:"height_cm,omitempty" db:"height_cm"`
	WeightKg   *int           `json:"weight_kg,omitempty" db:"weight_kg"`
	Allergies  *string        `json:"allergies,omitempty" db:"allergies"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`

	Team       *Team       `json:"team,omitempty" db:"-"`
	InjuryLogs []InjuryLog `json:"injury_logs,omitempty" db:"-"`
}

// RecoveryStatus представляет состояние восстановления после травмы.
type RecoveryStatus string

const (
	RecoveryRecovering RecoveryStatus = "recovering"
	RecoveryRecovered  RecoveryStatus = "recovered"
	RecoveryChronic    RecoveryStatus = "chronic"
)

func (s RecoveryStatus) Valid() bool {
	switch s {
	case RecoveryRecovering, RecoveryRecovered, RecoveryChronic:
		return true
	}
	return false
}

// InjuryLog is append-only history: rows are never updated or deleted.
type InjuryLog struct {
	ID          int            `json:"id" db:"id"`
	PlayerID    int            `json:"player_id" db:"player_id"`
	InjuryDate  time.Time      `json:"injury_date" db:"injury_date"`
	Description string         `json:"description" db:"description"`
	Status      RecoveryStatus `json:"status" db:"status"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}
