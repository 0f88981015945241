package models

import "time"

// Role соответствует ENUM в БД.
type Role string

const (
	RoleHeadCoach      Role = "head_coach"
	RoleAssistantCoach Role = "assistant_coach"
	RoleAdmin          Role = "admin"
)

// Capability checks are evaluated here once instead of comparing role strings
// at every call site.

func (r Role) CanManageClub() bool {
	return r == RoleHeadCoach || r == RoleAdmin
}

func (r Role) CanEditRoster() bool {
	return r == RoleHeadCoach || r == RoleAssistantCoach || r == RoleAdmin
}

func (r Role) CanApproveAssistants() bool {
	return r == RoleHeadCoach || r == RoleAdmin
}

func (r Role) CanModerateEvents() bool {
	return r == RoleHeadCoach || r == RoleAdmin
}

func (r Role) Valid() bool {
	switch r {
	case RoleHeadCoach, RoleAssistantCoach, RoleAdmin:
		return true
	}
	return false
}

type Profile struct {
	ID           int       `json:"id" db:"id"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Email        string    `json:"email" db:"email"`
	Role         Role      `json:"role" db:"role"`
	ClubID       *int      `json:"club_id,omitempty" db:"club_id"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	Club *Club `json:"club,omitempty" db:"-"`
}
