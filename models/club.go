package models

import "time"

type Club struct {
	ID           int       `json:"id" db:"id"`
	OwnerID      int       `json:"owner_id" db:"owner_id"`
	Name         string    `json:"name" db:"name"`
	City         string    `json:"city" db:"city"`
	FoundedAt    time.Time `json:"founded_at" db:"founded_at"`
	ContactEmail *string   `json:"contact_email,omitempty" db:"contact_email"`
	ContactPhone *string   `json:"contact_phone,omitempty" db:"contact_phone"`
	LegalID      *string   `json:"legal_id,omitempty" db:"legal_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	CrestKey *string `json:"-" db:"crest_key"`
	CrestURL *string `json:"crest_url,omitempty" db:"-"`

	Owner *Profile `json:"owner,omitempty" db:"-"`
	Teams []Team   `json:"teams,omitempty" db:"-"`
}
