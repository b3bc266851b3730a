package models

import "time"

// Group is a round-robin pool within a tournament. DoubleRound selects
// two legs (home/away) per pairing instead of one.
type Group struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Name         string    `json:"name" db:"name"`
	DoubleRound  bool      `json:"double_round" db:"double_round"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`

	Participants []*Participant `json:"participants,omitempty" db:"-"`
}
