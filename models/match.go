package models

import "time"

// MatchStatus mirrors the match_status ENUM in the database.
type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchReported  MatchStatus = "reported"
	MatchConfirmed MatchStatus = "confirmed"
	MatchForfeited MatchStatus = "forfeited"
	MatchDisputed  MatchStatus = "disputed"
)

// Terminal reports whether no further scoring mutation is allowed
// without an explicit dispute-resolution reopen.
func (s MatchStatus) Terminal() bool {
	return s == MatchConfirmed || s == MatchForfeited
}

// ForfeitScore is the walkover sentinel credited to the designated
// winner of a forfeited match.
const ForfeitScore = 3

// Match is one row of the match ledger. Version is the optimistic
// concurrency token: every mutating operation must present the
// caller's last-known value, and the store applies the write only if
// it still matches, bumping it on success.
type Match struct {
	ID           int         `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	GroupID      *int        `json:"group_id,omitempty" db:"group_id"`
	Round        int         `json:"round" db:"round"`
	Slot         int         `json:"slot" db:"slot"`
	Leg          int         `json:"leg" db:"leg"`
	HomeID       *int        `json:"home_id,omitempty" db:"home_id"`
	AwayID       *int        `json:"away_id,omitempty" db:"away_id"`
	HomeScore    *int        `json:"home_score,omitempty" db:"home_score"`
	AwayScore    *int        `json:"away_score,omitempty" db:"away_score"`
	Status       MatchStatus `json:"status" db:"status"`
	ReporterID   *int64      `json:"reporter_id,omitempty" db:"reporter_id"`
	ConfirmerID  *int64      `json:"confirmer_id,omitempty" db:"confirmer_id"`
	WinnerID     *int        `json:"winner_id,omitempty" db:"winner_id"`
	Deadline     *time.Time  `json:"deadline,omitempty" db:"deadline"`
	Note         *string     `json:"note,omitempty" db:"note"`
	Version      int         `json:"version" db:"version"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// Involves reports whether the given participant plays in this match.
func (m *Match) Involves(participantID int) bool {
	if m.HomeID != nil && *m.HomeID == participantID {
		return true
	}
	return m.AwayID != nil && *m.AwayID == participantID
}
