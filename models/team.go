package models

import "time"

// TeamCategory представляет возрастную категорию команды.
type TeamCategory string

const (
	CategoryU12    TeamCategory = "U12"
	CategoryU14    TeamCategory = "U14"
	CategoryU16    TeamCategory = "U16"
	CategoryU18    TeamCategory = "U18"
	CategorySenior TeamCategory = "senior"
)

func (c TeamCategory) Valid() bool {
	switch c {
	case CategoryU12, CategoryU14, CategoryU16, CategoryU18, CategorySenior:
		return true
	}
	return false
}

type Team struct {
	ID        int          `json:"id" db:"id"`
	ClubID    int          `json:"club_id" db:"club_id"`
	Name      string       `json:"name" db:"name"`
	Category  TeamCategory `json:"category" db:"category"`
	Year      int          `json:"year" db:"year"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`

	Club    *Club    `json:"club,omitempty" db:"-"`
	Players []Player `json:"players,omitempty" db:"-"`
}
