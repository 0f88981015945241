package models

import "time"

// SessionType соответствует ENUM в БД.
type SessionType string

const (
	SessionMatch     SessionType = "match"
	SessionTraining  SessionType = "training"
	SessionScrimmage SessionType = "scrimmage"
)

func (t SessionType) Valid() bool {
	switch t {
	case SessionMatch, SessionTraining, SessionScrimmage:
		return true
	}
	return false
}

// Session — одна сыгранная встреча или тренировка, по которой ведётся счёт.
type Session struct {
	ID        int         `json:"id" db:"id"`
	ClubID    int         `json:"club_id" db:"club_id"`
	TeamID    int         `json:"team_id" db:"team_id"`
	CreatorID int         `json:"creator_id" db:"creator_id"`
	Type      SessionType `json:"type" db:"type"`
	Title     string      `json:"title" db:"title"`
	Opponent  *string     `json:"opponent,omitempty" db:"opponent"`
	Date      time.Time   `json:"date" db:"date"`
	Location  string      `json:"location" db:"location"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`

	Sets    []Set    `json:"sets,omitempty" db:"-"`
	Actions []Action `json:"actions,omitempty" db:"-"`
}

// Set — одна партия внутри сессии с двумя текущими счетами.
type Set struct {
	ID            int `json:"id" db:"id"`
	SessionID     int `json:"session_id" db:"session_id"`
	SetNumber     int `json:"set_number" db:"set_number"`
	TeamScore     int `json:"team_score" db:"team_score"`
	OpponentScore int `json:"opponent_score" db:"opponent_score"`
}

const setTargetScore = 25

// CurrentSet returns the set a new action should be recorded against: the
// first set where both scores are still below 25, otherwise the last one.
// Deuce and extended sets are not modeled; the caller gets a best guess.
func CurrentSet(sets []Set) *Set {
	if len(sets) == 0 {
		return nil
	}
	for i := range sets {
		if sets[i].TeamScore < setTargetScore && sets[i].OpponentScore < setTargetScore {
			return &sets[i]
		}
	}
	return &sets[len(sets)-1]
}

// ActionType соответствует ENUM в БД.
type ActionType string

const (
	ActionServe  ActionType = "serve"
	ActionPass   ActionType = "pass"
	ActionSet    ActionType = "set"
	ActionAttack ActionType = "attack"
	ActionBlock  ActionType = "block"
	ActionDig    ActionType = "dig"
	ActionFree   ActionType = "free"
	ActionFault  ActionType = "error"
)

func (t ActionType) Valid() bool {
	switch t {
	case ActionServe, ActionPass, ActionSet, ActionAttack, ActionBlock, ActionDig, ActionFree, ActionFault:
		return true
	}
	return false
}

// ActionResult определяет, как действие повлияло на счёт.
type ActionResult string

const (
	ResultPoint    ActionResult = "point"
	ResultError    ActionResult = "error"
	ResultContinue ActionResult = "continue"
)

func (r ActionResult) Valid() bool {
	switch r {
	case ResultPoint, ResultError, ResultContinue:
		return true
	}
	return false
}

// Action — одно зафиксированное игровое действие.
type Action struct {
	ID        int          `json:"id" db:"id"`
	SessionID int          `json:"session_id" db:"session_id"`
	SetID     int          `json:"set_id" db:"set_id"`
	TeamID    int          `json:"team_id" db:"team_id"`
	PlayerID  *int         `json:"player_id,omitempty" db:"player_id"`
	CreatorID int          `json:"creator_id" db:"creator_id"`
	Type      ActionType   `json:"action_type" db:"action_type"`
	Result    ActionResult `json:"result" db:"result"`
	Zone      *int         `json:"zone,omitempty" db:"zone"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

// PlayerActionSummary агрегирует действия игрока для табло статистики.
type PlayerActionSummary struct {
	PlayerID *int       `json:"player_id,omitempty"`
	Type     ActionType `json:"action_type"`
	Points   int        `json:"points"`
	Errors   int        `json:"errors"`
	Total    int        `json:"total"`
}
