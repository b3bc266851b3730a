package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/offsideleague/league-engine/models"
)

var (
	ErrParticipantNotFound          = errors.New("participant not found")
	ErrParticipantTeamNameConflict  = errors.New("team name already registered in tournament")
	ErrParticipantCoachConflict     = errors.New("coach already has a team in tournament")
	ErrParticipantSeedConflict      = errors.New("seed already taken in tournament")
	ErrParticipantTournamentInvalid = errors.New("participant references unknown tournament")
	ErrParticipantGroupInvalid      = errors.New("participant references unknown group")
)

type ParticipantRepository interface {
	Create(ctx context.Context, p *models.Participant) error
	GetByID(ctx context.Context, id int) (*models.Participant, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Participant, error)
	ListByGroup(ctx context.Context, groupID int) ([]*models.Participant, error)
	NextSeed(ctx context.Context, tournamentID int) (int, error)
	UpdateSeed(ctx context.Context, id, seed int) error
	AssignGroup(ctx context.Context, id, groupID int) error
	Delete(ctx context.Context, id int) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

const participantColumns = `id, tournament_id, group_id, team_name, coach_id, seed, created_at, updated_at`

func scanParticipant(row interface{ Scan(...interface{}) error }) (*models.Participant, error) {
	p := &models.Participant{}
	err := row.Scan(
		&p.ID,
		&p.TournamentID,
		&p.GroupID,
		&p.TeamName,
		&p.CoachID,
		&p.Seed,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *postgresParticipantRepository) Create(ctx context.Context, p *models.Participant) error {
	query := `
		INSERT INTO participants (tournament_id, group_id, team_name, coach_id, seed)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		p.TournamentID,
		p.GroupID,
		p.TeamName,
		p.CoachID,
		p.Seed,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	return r.handleParticipantError(err)
}

func (r *postgresParticipantRepository) GetByID(ctx context.Context, id int) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE id = $1`

	p, err := scanParticipant(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to scan participant %d: %w", id, err)
	}
	return p, nil
}

func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM participants
		WHERE tournament_id = $1
		ORDER BY seed ASC, created_at ASC, id ASC`

	return r.list(ctx, query, tournamentID)
}

func (r *postgresParticipantRepository) ListByGroup(ctx context.Context, groupID int) ([]*models.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM participants
		WHERE group_id = $1
		ORDER BY seed ASC, created_at ASC, id ASC`

	return r.list(ctx, query, groupID)
}

func (r *postgresParticipantRepository) list(ctx context.Context, query string, arg interface{}) ([]*models.Participant, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		p, scanErr := scanParticipant(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", scanErr)
		}
		participants = append(participants, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during participant rows iteration: %w", err)
	}
	return participants, nil
}

func (r *postgresParticipantRepository) NextSeed(ctx context.Context, tournamentID int) (int, error) {
	query := `SELECT COALESCE(MAX(seed), 0) + 1 FROM participants WHERE tournament_id = $1`

	var seed int
	if err := r.db.QueryRowContext(ctx, query, tournamentID).Scan(&seed); err != nil {
		return 0, fmt.Errorf("failed to compute next seed for tournament %d: %w", tournamentID, err)
	}
	return seed, nil
}

func (r *postgresParticipantRepository) UpdateSeed(ctx context.Context, id, seed int) error {
	query := `UPDATE participants SET seed = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, seed, id)
	if err != nil {
		return r.handleParticipantError(err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) AssignGroup(ctx context.Context, id, groupID int) error {
	query := `UPDATE participants SET group_id = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, groupID, id)
	if err != nil {
		return r.handleParticipantError(err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM participants WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete participant %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) handleParticipantError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case "participants_team_name_key":
			return ErrParticipantTeamNameConflict
		case "participants_coach_key":
			return ErrParticipantCoachConflict
		case "participants_seed_key":
			return ErrParticipantSeedConflict
		case "participants_tournament_id_fkey":
			return ErrParticipantTournamentInvalid
		case "participants_group_id_fkey":
			return ErrParticipantGroupInvalid
		}
	}
	return err
}
