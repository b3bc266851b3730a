package services

import "errors"

// Engine failure taxonomy. Every operation surfaces one of these
// families; nothing is swallowed. ErrConcurrentModification is the
// only condition callers are expected to retry (re-read, reapply) —
// the engine itself never retries.
var (
	// Absent entities.
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrGroupNotFound       = errors.New("group not found")
	ErrMatchNotFound       = errors.New("match not found")
	ErrDisputeNotFound     = errors.New("no actionable dispute found")

	// Duplicates.
	ErrTournamentNameConflict = errors.New("tournament name already in use")
	ErrTeamNameConflict       = errors.New("team name already registered for this tournament")
	ErrCoachConflict          = errors.New("coach already has a team in this tournament")
	ErrSeedConflict           = errors.New("seed already taken in this tournament")
	ErrGroupNameConflict      = errors.New("group name already in use in this tournament")

	// State machine violations.
	ErrInvalidPhaseTransition = errors.New("invalid tournament phase transition")
	ErrInvalidTransition      = errors.New("invalid state transition")
	ErrRegistrationClosed     = errors.New("tournament registration is not open")

	// Optimistic concurrency: the supplied version token no longer
	// matches the stored one. Re-read and retry.
	ErrConcurrentModification = errors.New("match was modified concurrently, re-read and retry")

	// Advancement prerequisites.
	ErrRoundIncomplete = errors.New("not all matches of the round are terminal")

	// Capability checks.
	ErrForbidden = errors.New("operation not allowed for this actor")

	// Input validation.
	ErrValidationFailed = errors.New("validation failed")
	ErrNameRequired     = errors.New("name is required")
	ErrInvalidFormat    = errors.New("unknown tournament format")
	ErrNegativeScore    = errors.New("scores must be non-negative")
	ErrDrawNotAllowed   = errors.New("a bracket match cannot end in a draw")
	ErrReasonRequired   = errors.New("reason text is required")
	ErrReasonTooLong    = errors.New("reason text exceeds the allowed length")
)

// MaxReasonLength bounds free-text reasons and resolutions.
const MaxReasonLength = 500
