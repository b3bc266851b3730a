package models

import "time"

// TournamentPhase mirrors the tournament_phase ENUM in the database.
type TournamentPhase string

const (
	PhaseDraft      TournamentPhase = "DRAFT"
	PhaseRegOpen    TournamentPhase = "REG_OPEN"
	PhaseInProgress TournamentPhase = "IN_PROGRESS"
	PhaseCompleted  TournamentPhase = "COMPLETED"
)

// NextPhase returns the only phase a tournament may move to from p.
// Phase order is monotonic forward-only; there is no operation that
// moves a tournament backward.
func (p TournamentPhase) NextPhase() (TournamentPhase, bool) {
	switch p {
	case PhaseDraft:
		return PhaseRegOpen, true
	case PhaseRegOpen:
		return PhaseInProgress, true
	case PhaseInProgress:
		return PhaseCompleted, true
	default:
		return "", false
	}
}

type TournamentFormat string

const (
	FormatKnockout      TournamentFormat = "knockout"
	FormatGroupKnockout TournamentFormat = "group_knockout"
)

func (f TournamentFormat) Valid() bool {
	return f == FormatKnockout || f == FormatGroupKnockout
}

type Tournament struct {
	ID        int              `json:"id" db:"id"`
	Name      string           `json:"name" db:"name"`
	Format    TournamentFormat `json:"format" db:"format"`
	Rules     *string          `json:"rules,omitempty" db:"rules"`
	Phase     TournamentPhase  `json:"phase" db:"phase"`
	CrestKey  *string          `json:"-" db:"crest_key"`
	CrestURL  *string          `json:"crest_url,omitempty" db:"-"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt time.Time        `json:"updated_at" db:"updated_at"`

	// Populated by services when a caller asked for the full picture.
	Participants []*Participant `json:"participants,omitempty" db:"-"`
	Groups       []*Group       `json:"groups,omitempty" db:"-"`
	Matches      []*Match       `json:"matches,omitempty" db:"-"`
}
