package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed      = errors.New("validation failed")
	ErrPasswordTooShort      = errors.New("password is too short")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrScoresInvalid         = errors.New("scores must be non-negative integers")
	ErrPredictionLocked      = errors.New("match has kicked off, prediction is locked")
	ErrWinnerPickRequired    = errors.New("knockout prediction with level scores requires a winner pick")
	ErrWinnerPickInvalid     = errors.New("winner pick must be one of the two predicted teams")
	ErrWinnerPickNotAllowed  = errors.New("winner pick is only valid for knockout matches")
	ErrMatchNotCompleted     = errors.New("match has no final result yet")
	ErrMatchNotLevel         = errors.New("penalty winner is only valid for a level score")
	ErrMatchWinnerInvalid    = errors.New("winner must be one of the two teams of the match")
	ErrInviteExpired         = errors.New("invite has expired")
	ErrUserAlreadyInSquad    = errors.New("user is already in a squad")
	ErrCannotRemoveOwner     = errors.New("cannot remove the squad owner")
	ErrSquadNameRequired     = errors.New("squad name is required")
	ErrScheduleExists        = errors.New("tournament schedule already exists")
	ErrScheduleMissing       = errors.New("tournament schedule has not been generated yet")
	ErrThirdPicksUnavailable = errors.New("this tournament layout has no best-third qualifiers")

	// Ошибки конфликтов
	ErrUserEmailConflict    = errors.New("email address is already in use")
	ErrUserNicknameConflict = errors.New("nickname is already in use")
	ErrTeamCodeConflict     = errors.New("team code is already in use")
	ErrSquadNameConflict    = errors.New("squad name is already in use")

	// Ошибки аутентификации и авторизации
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")
	ErrOwnerActionForbidden = errors.New("only the squad owner can perform this action")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound       = errors.New("user not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrPredictionNotFound = errors.New("prediction not found")
	ErrSquadNotFound      = errors.New("squad not found")
	ErrInviteNotFound     = errors.New("invite not found")
)
