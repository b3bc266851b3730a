package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/offsideleague/league-engine/brackets"
	"github.com/offsideleague/league-engine/models"
	"github.com/offsideleague/league-engine/repositories"
)

// PreviewPairing is one dry-run bracket slot. A nil Away marks a bye:
// Home advances without a match being created.
type PreviewPairing struct {
	Round int                 `json:"round"`
	Slot  int                 `json:"slot"`
	Home  *models.Participant `json:"home"`
	Away  *models.Participant `json:"away,omitempty"`
	Bye   bool                `json:"bye"`
}

type BracketPreview struct {
	TournamentID int              `json:"tournament_id"`
	Rounds       int              `json:"rounds"`
	Pairings     []PreviewPairing `json:"pairings"`
}

type BracketService interface {
	// Preview computes the round-1 draw from current registrations
	// without persisting anything.
	Preview(ctx context.Context, tournamentID int) (*BracketPreview, error)
	// Publish persists the round-1 draw. Staff-only and idempotent:
	// already-existing slots are kept as stored, so an interrupted
	// publish (or a concurrent duplicate) converges by repeating the
	// call. Moves the tournament from REG_OPEN to IN_PROGRESS.
	Publish(ctx context.Context, actor models.Actor, tournamentID int) ([]*models.Match, error)
}

type bracketService struct {
	tournaments  repositories.TournamentRepository
	participants repositories.ParticipantRepository
	matches      repositories.MatchRepository
	notifier     Notifier
}

func NewBracketService(
	tournaments repositories.TournamentRepository,
	participants repositories.ParticipantRepository,
	matches repositories.MatchRepository,
	notifier Notifier,
) BracketService {
	return &bracketService{
		tournaments:  tournaments,
		participants: participants,
		matches:      matches,
		notifier:     notifier,
	}
}

// seedOrdered returns the tournament's participants ranked by seed.
func seedOrdered(participants []*models.Participant) []*models.Participant {
	ranked := make([]*models.Participant, len(participants))
	copy(ranked, participants)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Seed < ranked[j].Seed })
	return ranked
}

func (s *bracketService) Preview(ctx context.Context, tournamentID int) (*BracketPreview, error) {
	if _, err := s.tournaments.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("load tournament %d: %w", tournamentID, err)
	}
	participants, err := s.participants.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list participants of tournament %d: %w", tournamentID, err)
	}

	pairings, err := brackets.FirstRound(seedOrdered(participants))
	if err != nil {
		if errors.Is(err, brackets.ErrNotEnoughParticipants) {
			return nil, fmt.Errorf("%w: a bracket needs at least 2 participants", ErrValidationFailed)
		}
		return nil, fmt.Errorf("draw bracket for tournament %d: %w", tournamentID, err)
	}

	preview := &BracketPreview{
		TournamentID: tournamentID,
		Rounds:       brackets.Rounds(len(participants)),
		Pairings:     make([]PreviewPairing, 0, len(pairings)),
	}
	for _, p := range pairings {
		preview.Pairings = append(preview.Pairings, PreviewPairing{
			Round: p.Round,
			Slot:  p.Slot,
			Home:  p.Home,
			Away:  p.Away,
			Bye:   p.Bye(),
		})
	}
	return preview, nil
}

func (s *bracketService) Publish(ctx context.Context, actor models.Actor, tournamentID int) ([]*models.Match, error) {
	if !actor.IsStaff {
		return nil, ErrForbidden
	}

	t, err := s.tournaments.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("load tournament %d: %w", tournamentID, err)
	}
	if t.Phase != models.PhaseRegOpen && t.Phase != models.PhaseInProgress {
		return nil, fmt.Errorf("%w: bracket needs an open or running tournament", ErrInvalidTransition)
	}

	var (
		participants []*models.Participant
		existing     []*models.Match
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		participants, err = s.participants.ListByTournament(gctx, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		existing, err = s.matches.ListBracketRound(gctx, tournamentID, 1)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("assemble bracket inputs for tournament %d: %w", tournamentID, err)
	}

	pairings, err := brackets.FirstRound(seedOrdered(participants))
	if err != nil {
		if errors.Is(err, brackets.ErrNotEnoughParticipants) {
			return nil, fmt.Errorf("%w: a bracket needs at least 2 participants", ErrValidationFailed)
		}
		return nil, fmt.Errorf("draw bracket for tournament %d: %w", tournamentID, err)
	}

	taken := make(map[int]bool, len(existing))
	for _, m := range existing {
		taken[m.Slot] = true
	}

	for _, p := range pairings {
		if taken[p.Slot] {
			continue
		}
		m := &models.Match{
			TournamentID: tournamentID,
			Round:        p.Round,
			Slot:         p.Slot,
			Leg:          p.Leg,
			HomeID:       &p.Home.ID,
			Status:       models.MatchScheduled,
		}
		if p.Bye() {
			// Byes are stored as settled walkovers so advancement can
			// read every slot of the round back from the ledger.
			m.Status = models.MatchConfirmed
			m.WinnerID = &p.Home.ID
		} else {
			m.AwayID = &p.Away.ID
		}
		if err := s.matches.Create(ctx, m); err != nil {
			if errors.Is(err, repositories.ErrMatchSlotTaken) {
				continue // a concurrent publish got here first
			}
			return nil, fmt.Errorf("insert bracket slot %d of tournament %d: %w", p.Slot, tournamentID, err)
		}
	}

	if t.Phase == models.PhaseRegOpen {
		err = s.tournaments.UpdatePhase(ctx, tournamentID, models.PhaseRegOpen, models.PhaseInProgress)
		if err != nil && !errors.Is(err, repositories.ErrTournamentPhaseStale) {
			return nil, fmt.Errorf("start tournament %d: %w", tournamentID, err)
		}
	}

	matches, err := s.matches.ListBracketRound(ctx, tournamentID, 1)
	if err != nil {
		return nil, fmt.Errorf("list round 1 of tournament %d: %w", tournamentID, err)
	}
	s.notifier.Notify(tournamentID, brackets.EventBracketPublished, map[string]interface{}{
		"round":   1,
		"matches": len(matches),
	})
	return matches, nil
}
