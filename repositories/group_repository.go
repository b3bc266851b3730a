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
	ErrGroupNotFound          = errors.New("group not found")
	ErrGroupNameConflict      = errors.New("group name already in use in tournament")
	ErrGroupTournamentInvalid = errors.New("group references unknown tournament")
)

type GroupRepository interface {
	Create(ctx context.Context, g *models.Group) error
	GetByID(ctx context.Context, id int) (*models.Group, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Group, error)
}

type postgresGroupRepository struct {
	db *sql.DB
}

func NewPostgresGroupRepository(db *sql.DB) GroupRepository {
	return &postgresGroupRepository{db: db}
}

func (r *postgresGroupRepository) Create(ctx context.Context, g *models.Group) error {
	query := `
		INSERT INTO groups (tournament_id, name, double_round)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, g.TournamentID, g.Name, g.DoubleRound).
		Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Constraint {
			case "groups_name_key":
				return ErrGroupNameConflict
			case "groups_tournament_id_fkey":
				return ErrGroupTournamentInvalid
			}
		}
		return fmt.Errorf("failed to insert group %q: %w", g.Name, err)
	}
	return nil
}

func (r *postgresGroupRepository) GetByID(ctx context.Context, id int) (*models.Group, error) {
	query := `
		SELECT id, tournament_id, name, double_round, created_at, updated_at
		FROM groups
		WHERE id = $1`

	g := &models.Group{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&g.ID,
		&g.TournamentID,
		&g.Name,
		&g.DoubleRound,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to scan group %d: %w", id, err)
	}
	return g, nil
}

func (r *postgresGroupRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Group, error) {
	query := `
		SELECT id, tournament_id, name, double_round, created_at, updated_at
		FROM groups
		WHERE tournament_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	groups := make([]*models.Group, 0)
	for rows.Next() {
		g := &models.Group{}
		if scanErr := rows.Scan(
			&g.ID,
			&g.TournamentID,
			&g.Name,
			&g.DoubleRound,
			&g.CreatedAt,
			&g.UpdatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan group row: %w", scanErr)
		}
		groups = append(groups, g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during group rows iteration: %w", err)
	}
	return groups, nil
}
