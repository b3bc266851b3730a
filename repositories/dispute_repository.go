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
	ErrDisputeNotFound     = errors.New("dispute not found")
	ErrDisputeMatchInvalid = errors.New("dispute references unknown match")
)

type DisputeRepository interface {
	Create(ctx context.Context, d *models.Dispute) error
	ListByMatch(ctx context.Context, matchID int) ([]*models.Dispute, error)
	// LatestOpen returns the most recently filed open dispute for the
	// match, the only actionable one.
	LatestOpen(ctx context.Context, matchID int) (*models.Dispute, error)
	Resolve(ctx context.Context, id int, resolution string) error
}

type postgresDisputeRepository struct {
	db *sql.DB
}

func NewPostgresDisputeRepository(db *sql.DB) DisputeRepository {
	return &postgresDisputeRepository{db: db}
}

const disputeColumns = `id, match_id, raised_by, reason, status, resolution, created_at, updated_at`

func scanDispute(row interface{ Scan(...interface{}) error }) (*models.Dispute, error) {
	d := &models.Dispute{}
	err := row.Scan(
		&d.ID,
		&d.MatchID,
		&d.RaisedBy,
		&d.Reason,
		&d.Status,
		&d.Resolution,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *postgresDisputeRepository) Create(ctx context.Context, d *models.Dispute) error {
	query := `
		INSERT INTO disputes (match_id, raised_by, reason, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, d.MatchID, d.RaisedBy, d.Reason, d.Status).
		Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Constraint == "disputes_match_id_fkey" {
			return ErrDisputeMatchInvalid
		}
		return fmt.Errorf("failed to insert dispute for match %d: %w", d.MatchID, err)
	}
	return nil
}

func (r *postgresDisputeRepository) ListByMatch(ctx context.Context, matchID int) ([]*models.Dispute, error) {
	query := `
		SELECT ` + disputeColumns + `
		FROM disputes
		WHERE match_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query disputes for match %d: %w", matchID, err)
	}
	defer rows.Close()

	disputes := make([]*models.Dispute, 0)
	for rows.Next() {
		d, scanErr := scanDispute(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan dispute row: %w", scanErr)
		}
		disputes = append(disputes, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during dispute rows iteration: %w", err)
	}
	return disputes, nil
}

func (r *postgresDisputeRepository) LatestOpen(ctx context.Context, matchID int) (*models.Dispute, error) {
	query := `
		SELECT ` + disputeColumns + `
		FROM disputes
		WHERE match_id = $1 AND status = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	d, err := scanDispute(r.db.QueryRowContext(ctx, query, matchID, models.DisputeOpen))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDisputeNotFound
		}
		return nil, fmt.Errorf("failed to scan latest open dispute for match %d: %w", matchID, err)
	}
	return d, nil
}

func (r *postgresDisputeRepository) Resolve(ctx context.Context, id int, resolution string) error {
	query := `
		UPDATE disputes
		SET status = $1, resolution = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4`

	result, err := r.db.ExecContext(ctx, query, models.DisputeResolved, resolution, id, models.DisputeOpen)
	if err != nil {
		return fmt.Errorf("failed to resolve dispute %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrDisputeNotFound)
}
