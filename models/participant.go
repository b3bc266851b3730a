package models

import "time"

// Participant is a team registered into a tournament. CoachID is the
// identity of the owning coach as minted by the external auth
// collaborator; the engine only compares it, never resolves it.
type Participant struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	GroupID      *int      `json:"group_id,omitempty" db:"group_id"`
	TeamName     string    `json:"team_name" db:"team_name"`
	CoachID      int64     `json:"coach_id" db:"coach_id"`
	Seed         int       `json:"seed" db:"seed"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
