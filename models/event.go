package models

import "time"

// EventType соответствует ENUM в БД.
type EventType string

const (
	EventTournament EventType = "tournament"
	EventTope       EventType = "tope"
)

func (t EventType) Valid() bool {
	return t == EventTournament || t == EventTope
}

// EventStatus управляет видимостью события.
type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventClosed    EventStatus = "closed"
	EventCanceled  EventStatus = "canceled"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventDraft, EventPublished, EventClosed, EventCanceled:
		return true
	}
	return false
}

type Event struct {
	ID              int         `json:"id" db:"id"`
	OrganizerID     int         `json:"organizer_id" db:"organizer_id"`
	ClubID          int         `json:"club_id" db:"club_id"`
	Name            string      `json:"name" db:"name"`
	Type            EventType   `json:"type" db:"type"`
	Date            time.Time   `json:"date" db:"date"`
	City            string      `json:"city" db:"city"`
	Location        string      `json:"location" db:"location"`
	Description     *string     `json:"description,omitempty" db:"description"`
	Benefits        []string    `json:"benefits" db:"benefits"`
	MaxParticipants *int        `json:"max_participants,omitempty" db:"max_participants"`
	RegDeadline     *time.Time  `json:"registration_deadline,omitempty" db:"registration_deadline"`
	Status          EventStatus `json:"status" db:"status"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`

	CrestKey *string `json:"-" db:"crest_key"`
	CrestURL *string `json:"crest_url,omitempty" db:"-"`

	Registrations []EventRegistration `json:"registrations,omitempty" db:"-"`
	Messages      []EventChatMessage  `json:"messages,omitempty" db:"-"`
}

// RegistrationStatus соответствует ENUM в БД.
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationAccepted RegistrationStatus = "accepted"
	RegistrationRejected RegistrationStatus = "rejected"
)

func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationPending, RegistrationAccepted, RegistrationRejected:
		return true
	}
	return false
}

type EventRegistration struct {
	ID        int                `json:"id" db:"id"`
	EventID   int                `json:"event_id" db:"event_id"`
	TeamID    int                `json:"team_id" db:"team_id"`
	CoachID   int                `json:"coach_id" db:"coach_id"`
	Status    RegistrationStatus `json:"status" db:"status"`
	Questions *string            `json:"questions,omitempty" db:"questions"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`

	Team *Team `json:"team,omitempty" db:"-"`
}

type EventChatMessage struct {
	ID        int       `json:"id" db:"id"`
	EventID   int       `json:"event_id" db:"event_id"`
	SenderID  int       `json:"sender_id" db:"sender_id"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Sender *Profile `json:"sender,omitempty" db:"-"`
}
