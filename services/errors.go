package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed   = errors.New("validation failed") // Общая ошибка валидации
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidBookingType = errors.New("invalid booking type")
	ErrInvalidDate        = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidTime        = errors.New("time must be in HH:MM format")
	ErrTeamNameRequired   = errors.New("team name is required")
	ErrNotEnoughPlayers   = errors.New("not enough players to proceed")
	ErrTeamFull           = errors.New("team is full")
	ErrSessionNotActive   = errors.New("team session is not active")
	ErrTeamNotForming     = errors.New("team registration is already finalized")
	ErrRequestNotPending  = errors.New("matchmaking request is not pending")

	// Ошибки конфликтов
	ErrUserEmailConflict = errors.New("email address is already in use")
	ErrSlotTaken         = errors.New("slot is already reserved")
	ErrSlotBusy          = errors.New("slot is being processed by another request, try again")
	ErrSlotUnavailable   = errors.New("no available slot for the requested time")
	ErrFieldInUse        = errors.New("field has tournaments linked to it")
	ErrAlreadyInSession  = errors.New("user already joined this session")
	ErrAlreadyInTeam     = errors.New("user already joined this team")

	// Ошибки аутентификации и авторизации
	ErrAuthenticationFailed   = errors.New("authentication failed") // Общая ошибка аутентификации
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrCaptainActionForbidden = errors.New("only the team captain can perform this action")
	ErrCannotRemoveCaptain    = errors.New("cannot remove the team captain")
	ErrAdminRequired          = errors.New("admin access required")

	// Ошибки, специфичные для сущностей (могут дублировать ErrNotFound, но дают больше контекста)
	ErrUserNotFound        = errors.New("user not found")
	ErrFieldNotFound       = errors.New("field not found")
	ErrSlotNotFound        = errors.New("slot not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrSessionNotFound     = errors.New("team session not found")
	ErrRequestNotFound     = errors.New("matchmaking request not found")
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrTeamNotFound        = errors.New("team not found")
	ErrPlayerNotInTeam     = errors.New("player is not in this team")

	// Ошибки внешних зависимостей
	ErrFileUploadFailed = errors.New("file upload failed")
)
