package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/offsideleague/league-engine/brackets"
	"github.com/offsideleague/league-engine/models"
	"github.com/offsideleague/league-engine/repositories"
)

type DisputeService interface {
	// File opens a dispute against a match and parks the match in the
	// disputed state under the caller's version token. Anyone coaching a
	// side of the match (or staff) may file.
	File(ctx context.Context, actor models.Actor, matchID int, reason string, expectedVersion int) (*models.Dispute, error)
	// Resolve closes the latest open dispute under the caller's version
	// token. Staff-only. The match is reset to scheduled with its scores,
	// winner, reporter and confirmer cleared so the sides can replay the
	// protocol from a clean slate.
	Resolve(ctx context.Context, actor models.Actor, matchID int, resolution string, expectedVersion int) (*models.Dispute, error)
	ListByMatch(ctx context.Context, matchID int) ([]*models.Dispute, error)
}

type disputeService struct {
	disputes     repositories.DisputeRepository
	matches      repositories.MatchRepository
	participants repositories.ParticipantRepository
	notifier     Notifier
}

func NewDisputeService(
	disputes repositories.DisputeRepository,
	matches repositories.MatchRepository,
	participants repositories.ParticipantRepository,
	notifier Notifier,
) DisputeService {
	return &disputeService{
		disputes:     disputes,
		matches:      matches,
		participants: participants,
		notifier:     notifier,
	}
}

// coaches reports whether the actor is staff or coaches a side of m.
func (s *disputeService) coaches(ctx context.Context, actor models.Actor, m *models.Match) (bool, error) {
	if actor.IsStaff {
		return true, nil
	}
	for _, side := range []*int{m.HomeID, m.AwayID} {
		if side == nil {
			continue
		}
		p, err := s.participants.GetByID(ctx, *side)
		if err != nil {
			if errors.Is(err, repositories.ErrParticipantNotFound) {
				continue
			}
			return false, fmt.Errorf("load participant %d: %w", *side, err)
		}
		if p.CoachID == actor.ID {
			return true, nil
		}
	}
	return false, nil
}

func (s *disputeService) File(ctx context.Context, actor models.Actor, matchID int, reason string, expectedVersion int) (*models.Dispute, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	if len(reason) > MaxReasonLength {
		return nil, ErrReasonTooLong
	}

	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("load match %d: %w", matchID, err)
	}
	if m.Status == models.MatchForfeited {
		return nil, fmt.Errorf("%w: cannot dispute a forfeited match", ErrInvalidTransition)
	}
	if m.HomeID == nil || m.AwayID == nil {
		return nil, fmt.Errorf("%w: a walkover has no result to dispute", ErrValidationFailed)
	}
	ok, err := s.coaches(ctx, actor, m)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}

	d := &models.Dispute{
		MatchID:  matchID,
		RaisedBy: actor.ID,
		Reason:   reason,
		Status:   models.DisputeOpen,
	}
	if err := s.disputes.Create(ctx, d); err != nil {
		if errors.Is(err, repositories.ErrDisputeMatchInvalid) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("file dispute on match %d: %w", matchID, err)
	}

	// Flag the match after the dispute row exists. If the flagging write
	// loses a version race the dispute stays open and the caller retries
	// with a fresh token; the extra open row is harmless since only the
	// latest one is actionable.
	if m.Status != models.MatchDisputed {
		m.Status = models.MatchDisputed
		if err := s.matches.Update(ctx, m, expectedVersion); err != nil {
			switch {
			case errors.Is(err, repositories.ErrMatchVersionConflict):
				return nil, ErrConcurrentModification
			case errors.Is(err, repositories.ErrMatchNotFound):
				return nil, ErrMatchNotFound
			default:
				return nil, fmt.Errorf("flag match %d as disputed: %w", matchID, err)
			}
		}
	}

	s.notifier.Notify(m.TournamentID, brackets.EventDisputeFiled, d)
	return d, nil
}

func (s *disputeService) Resolve(ctx context.Context, actor models.Actor, matchID int, resolution string, expectedVersion int) (*models.Dispute, error) {
	if !actor.IsStaff {
		return nil, ErrForbidden
	}
	resolution = strings.TrimSpace(resolution)
	if resolution == "" {
		return nil, ErrReasonRequired
	}

	d, err := s.disputes.LatestOpen(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrDisputeNotFound) {
			return nil, ErrDisputeNotFound
		}
		return nil, fmt.Errorf("find open dispute on match %d: %w", matchID, err)
	}

	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("load match %d: %w", matchID, err)
	}

	// Reset the match first. A retry after a crash between the two
	// writes then repeats an idempotent reset before closing the row.
	if m.Status == models.MatchDisputed {
		m.Status = models.MatchScheduled
		m.HomeScore = nil
		m.AwayScore = nil
		m.WinnerID = nil
		m.ReporterID = nil
		m.ConfirmerID = nil
		if err := s.matches.Update(ctx, m, expectedVersion); err != nil {
			switch {
			case errors.Is(err, repositories.ErrMatchVersionConflict):
				return nil, ErrConcurrentModification
			case errors.Is(err, repositories.ErrMatchNotFound):
				return nil, ErrMatchNotFound
			default:
				return nil, fmt.Errorf("reset disputed match %d: %w", matchID, err)
			}
		}
	}

	if err := s.disputes.Resolve(ctx, d.ID, resolution); err != nil {
		if errors.Is(err, repositories.ErrDisputeNotFound) {
			return nil, ErrDisputeNotFound
		}
		return nil, fmt.Errorf("resolve dispute %d: %w", d.ID, err)
	}
	d.Status = models.DisputeResolved
	d.Resolution = &resolution

	s.notifier.Notify(m.TournamentID, brackets.EventDisputeResolved, d)
	return d, nil
}

func (s *disputeService) ListByMatch(ctx context.Context, matchID int) ([]*models.Dispute, error) {
	if _, err := s.matches.GetByID(ctx, matchID); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("load match %d: %w", matchID, err)
	}
	disputes, err := s.disputes.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("list disputes of match %d: %w", matchID, err)
	}
	return disputes, nil
}
