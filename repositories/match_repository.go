package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/offsideleague/league-engine/models"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	// ErrMatchSlotTaken surfaces the unique (tournament, group, round,
	// slot, leg) constraint: a concurrent generator already wrote this
	// fixture. Callers converge by re-reading the round.
	ErrMatchSlotTaken = errors.New("match slot already exists")
	// ErrMatchVersionConflict means the conditional write matched no row
	// because the version token went stale. Always retryable after a
	// re-read.
	ErrMatchVersionConflict = errors.New("match version token is stale")
	ErrMatchParticipantInvalid = errors.New("match references unknown participant")
)

type MatchRepository interface {
	Create(ctx context.Context, m *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error)
	// ListBracketRound returns bracket matches (no group) of one round.
	ListBracketRound(ctx context.Context, tournamentID, round int) ([]*models.Match, error)
	ListByGroup(ctx context.Context, groupID int) ([]*models.Match, error)
	MaxBracketRound(ctx context.Context, tournamentID int) (int, error)
	ListDueBefore(ctx context.Context, cutoff time.Time) ([]*models.Match, error)
	// Update applies the full mutable state of m only while the persisted
	// version still equals expectedVersion, atomically bumping the token.
	// On success m carries the new version and updated_at.
	Update(ctx context.Context, m *models.Match, expectedVersion int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, tournament_id, group_id, round, slot, leg, home_id, away_id,
	home_score, away_score, status, reporter_id, confirmer_id, winner_id,
	deadline, note, version, created_at, updated_at`

func scanMatch(row interface{ Scan(...interface{}) error }) (*models.Match, error) {
	m := &models.Match{}
	err := row.Scan(
		&m.ID,
		&m.TournamentID,
		&m.GroupID,
		&m.Round,
		&m.Slot,
		&m.Leg,
		&m.HomeID,
		&m.AwayID,
		&m.HomeScore,
		&m.AwayScore,
		&m.Status,
		&m.ReporterID,
		&m.ConfirmerID,
		&m.WinnerID,
		&m.Deadline,
		&m.Note,
		&m.Version,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, m *models.Match) error {
	query := `
		INSERT INTO matches
			(tournament_id, group_id, round, slot, leg, home_id, away_id, status, deadline)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, version, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		m.TournamentID,
		m.GroupID,
		m.Round,
		m.Slot,
		m.Leg,
		m.HomeID,
		m.AwayID,
		m.Status,
		m.Deadline,
	).Scan(&m.ID, &m.Version, &m.CreatedAt, &m.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Constraint {
			case "matches_slot_key":
				return ErrMatchSlotTaken
			case "matches_home_id_fkey", "matches_away_id_fkey":
				return ErrMatchParticipantInvalid
			}
		}
		return fmt.Errorf("failed to insert match (tournament %d round %d slot %d): %w",
			m.TournamentID, m.Round, m.Slot, err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	m, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match %d: %w", id, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE tournament_id = $1
		ORDER BY round ASC, slot ASC, leg ASC, id ASC`

	return r.list(ctx, query, tournamentID)
}

func (r *postgresMatchRepository) ListBracketRound(ctx context.Context, tournamentID, round int) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE tournament_id = $1 AND group_id IS NULL AND round = $2
		ORDER BY slot ASC, id ASC`

	return r.list(ctx, query, tournamentID, round)
}

func (r *postgresMatchRepository) ListByGroup(ctx context.Context, groupID int) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE group_id = $1
		ORDER BY round ASC, slot ASC, leg ASC, id ASC`

	return r.list(ctx, query, groupID)
}

func (r *postgresMatchRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) MaxBracketRound(ctx context.Context, tournamentID int) (int, error) {
	query := `SELECT COALESCE(MAX(round), 0) FROM matches WHERE tournament_id = $1 AND group_id IS NULL`

	var round int
	if err := r.db.QueryRowContext(ctx, query, tournamentID).Scan(&round); err != nil {
		return 0, fmt.Errorf("failed to compute max bracket round for tournament %d: %w", tournamentID, err)
	}
	return round, nil
}

func (r *postgresMatchRepository) ListDueBefore(ctx context.Context, cutoff time.Time) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE status = $1 AND deadline IS NOT NULL AND deadline < $2
		ORDER BY deadline ASC, id ASC`

	return r.list(ctx, query, models.MatchScheduled, cutoff)
}

func (r *postgresMatchRepository) Update(ctx context.Context, m *models.Match, expectedVersion int) error {
	query := `
		UPDATE matches
		SET home_score = $1, away_score = $2, status = $3, reporter_id = $4,
		    confirmer_id = $5, winner_id = $6, deadline = $7, note = $8,
		    version = version + 1, updated_at = NOW()
		WHERE id = $9 AND version = $10
		RETURNING version, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		m.HomeScore,
		m.AwayScore,
		m.Status,
		m.ReporterID,
		m.ConfirmerID,
		m.WinnerID,
		m.Deadline,
		m.Note,
		m.ID,
		expectedVersion,
	).Scan(&m.Version, &m.UpdatedAt)

	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to update match %d: %w", m.ID, err)
	}

	// No row matched: either the match is gone or the token is stale.
	if _, getErr := r.GetByID(ctx, m.ID); getErr != nil {
		return getErr
	}
	return ErrMatchVersionConflict
}
