package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed       = errors.New("validation failed")
	ErrPasswordTooShort       = errors.New("password is too short")
	ErrClubNameRequired       = errors.New("club name is required")
	ErrTeamNameRequired       = errors.New("team name is required")
	ErrPlayerNameRequired     = errors.New("player name is required")
	ErrInvalidCategory        = errors.New("invalid team category")
	ErrInvalidPosition        = errors.New("invalid player position")
	ErrInvalidRecoveryStatus  = errors.New("invalid recovery status")
	ErrInvalidSessionType     = errors.New("invalid session type")
	ErrInvalidActionType      = errors.New("invalid action type")
	ErrInvalidActionResult    = errors.New("invalid action result")
	ErrInvalidEventType       = errors.New("invalid event type")
	ErrInvalidEventStatus     = errors.New("invalid event status")
	ErrInvalidRegStatus       = errors.New("invalid registration status")
	ErrCodeExpired            = errors.New("club code has expired")
	ErrCodeExhausted          = errors.New("club code has no uses left")
	ErrCodeRevoked            = errors.New("club code has been revoked")
	ErrAlreadyInClub          = errors.New("profile already belongs to a club")
	ErrRegistrationClosed     = errors.New("event registration is closed")
	ErrEventFull              = errors.New("event has reached max participants")
	ErrChatMessageEmpty       = errors.New("chat message body is empty")

	// Ошибки конфликтов
	ErrEmailConflict        = errors.New("email address is already in use")
	ErrClubOwnerConflict    = errors.New("head coach already owns a club")
	ErrTeamNameConflict     = errors.New("team name is already in use in this club")
	ErrPlayerDocConflict    = errors.New("player document id is already registered")
	ErrRegistrationConflict = errors.New("team is already registered for this event")

	// Ошибки аутентификации и авторизации
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")

	// Ошибки, специфичные для сущностей
	ErrProfileNotFound      = errors.New("profile not found")
	ErrClubNotFound         = errors.New("club not found")
	ErrTeamNotFound         = errors.New("team not found")
	ErrPlayerNotFound       = errors.New("player not found")
	ErrClubCodeNotFound     = errors.New("club code not found")
	ErrAssistantReqNotFound = errors.New("assistant request not found")
	ErrEventNotFound        = errors.New("event not found")
	ErrRegistrationNotFound = errors.New("event registration not found")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSetNotFound          = errors.New("set not found")
	ErrActionNotFound       = errors.New("no action to undo")
)
