package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/offsideleague/league-engine/brackets"
	"github.com/offsideleague/league-engine/models"
	"github.com/offsideleague/league-engine/repositories"
)

type AdvanceService interface {
	// AdvanceRound pairs the winners of the latest bracket round into
	// the next one. Every match of the source round must be terminal,
	// else RoundIncomplete. When the source round was the final, the
	// tournament is completed instead and no matches are returned.
	AdvanceRound(ctx context.Context, actor models.Actor, tournamentID int) ([]*models.Match, error)
	// AdvanceGroups promotes the top N of every group into a fresh
	// knockout bracket. Every group fixture must be terminal first.
	// Qualifiers are ranked group winners first, then runners-up, and
	// so on, so that group winners earn the protected draw positions.
	AdvanceGroups(ctx context.Context, actor models.Actor, tournamentID, topN int) ([]*models.Match, error)
}

type advanceService struct {
	tournaments  repositories.TournamentRepository
	participants repositories.ParticipantRepository
	groups       repositories.GroupRepository
	matches      repositories.MatchRepository
	notifier     Notifier
}

func NewAdvanceService(
	tournaments repositories.TournamentRepository,
	participants repositories.ParticipantRepository,
	groups repositories.GroupRepository,
	matches repositories.MatchRepository,
	notifier Notifier,
) AdvanceService {
	return &advanceService{
		tournaments:  tournaments,
		participants: participants,
		groups:       groups,
		matches:      matches,
		notifier:     notifier,
	}
}

func (s *advanceService) AdvanceRound(ctx context.Context, actor models.Actor, tournamentID int) ([]*models.Match, error) {
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
	if t.Phase != models.PhaseInProgress {
		return nil, fmt.Errorf("%w: tournament is %s", ErrInvalidTransition, t.Phase)
	}

	round, err := s.matches.MaxBracketRound(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("find latest round of tournament %d: %w", tournamentID, err)
	}
	if round == 0 {
		return nil, fmt.Errorf("%w: no bracket has been published", ErrValidationFailed)
	}

	played, err := s.matches.ListBracketRound(ctx, tournamentID, round)
	if err != nil {
		return nil, fmt.Errorf("list round %d of tournament %d: %w", round, tournamentID, err)
	}
	for _, m := range played {
		if !m.Status.Terminal() {
			return nil, fmt.Errorf("%w: match %d is still %s", ErrRoundIncomplete, m.ID, m.Status)
		}
	}

	participants, err := s.participants.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list participants of tournament %d: %w", tournamentID, err)
	}
	byID := make(map[int]*models.Participant, len(participants))
	for _, p := range participants {
		byID[p.ID] = p
	}

	winners, err := s.roundWinners(round, played, byID)
	if err != nil {
		return nil, err
	}

	if len(winners) == 1 {
		// That round was the final.
		err = s.tournaments.UpdatePhase(ctx, tournamentID, models.PhaseInProgress, models.PhaseCompleted)
		if err != nil && !errors.Is(err, repositories.ErrTournamentPhaseStale) {
			return nil, fmt.Errorf("complete tournament %d: %w", tournamentID, err)
		}
		s.notifier.Notify(tournamentID, brackets.EventBracketPublished, map[string]interface{}{
			"champion_id": winners[0].ID,
		})
		return nil, nil
	}

	pairings, err := brackets.PairWinners(winners, round+1)
	if err != nil {
		return nil, fmt.Errorf("pair round %d winners of tournament %d: %w", round, tournamentID, err)
	}
	return s.persistRound(ctx, tournamentID, round+1, pairings)
}

// roundWinners returns the advancing participant of every slot of the
// source round, indexed by slot. Byes are persisted as settled
// walkovers at draw time, so the stored rows cover every slot and the
// draw never has to be re-derived.
func (s *advanceService) roundWinners(round int, played []*models.Match, byID map[int]*models.Participant) ([]*models.Participant, error) {
	winners := make([]*models.Participant, len(played))
	for _, m := range played {
		if m.WinnerID == nil {
			return nil, fmt.Errorf("%w: match %d has no winner", ErrValidationFailed, m.ID)
		}
		if m.Slot >= len(winners) {
			return nil, fmt.Errorf("%w: slot %d of round %d has no match", ErrRoundIncomplete, m.Slot, round)
		}
		w, ok := byID[*m.WinnerID]
		if !ok {
			return nil, fmt.Errorf("%w: winner %d of match %d is not registered", ErrValidationFailed, *m.WinnerID, m.ID)
		}
		winners[m.Slot] = w
	}
	for slot, w := range winners {
		if w == nil {
			return nil, fmt.Errorf("%w: slot %d of round %d has no match", ErrRoundIncomplete, slot, round)
		}
	}
	return winners, nil
}

// persistRound inserts the pairings, byes as settled walkovers, and
// skips slots that a concurrent call already wrote.
func (s *advanceService) persistRound(ctx context.Context, tournamentID, round int, pairings []brackets.Pairing) ([]*models.Match, error) {
	for _, p := range pairings {
		m := &models.Match{
			TournamentID: tournamentID,
			Round:        p.Round,
			Slot:         p.Slot,
			Leg:          p.Leg,
			HomeID:       &p.Home.ID,
			Status:       models.MatchScheduled,
		}
		if p.Bye() {
			m.Status = models.MatchConfirmed
			m.WinnerID = &p.Home.ID
		} else {
			m.AwayID = &p.Away.ID
		}
		if err := s.matches.Create(ctx, m); err != nil {
			if errors.Is(err, repositories.ErrMatchSlotTaken) {
				continue
			}
			return nil, fmt.Errorf("insert round %d slot %d of tournament %d: %w", round, p.Slot, tournamentID, err)
		}
	}

	matches, err := s.matches.ListBracketRound(ctx, tournamentID, round)
	if err != nil {
		return nil, fmt.Errorf("list round %d of tournament %d: %w", round, tournamentID, err)
	}
	s.notifier.Notify(tournamentID, brackets.EventBracketPublished, map[string]interface{}{
		"round":   round,
		"matches": len(matches),
	})
	return matches, nil
}

func (s *advanceService) AdvanceGroups(ctx context.Context, actor models.Actor, tournamentID, topN int) ([]*models.Match, error) {
	if !actor.IsStaff {
		return nil, ErrForbidden
	}
	if topN < 1 {
		return nil, fmt.Errorf("%w: top-N must be positive", ErrValidationFailed)
	}

	t, err := s.tournaments.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("load tournament %d: %w", tournamentID, err)
	}
	if t.Format != models.FormatGroupKnockout {
		return nil, fmt.Errorf("%w: tournament %q has no group stage", ErrInvalidFormat, t.Name)
	}
	if t.Phase != models.PhaseInProgress {
		return nil, fmt.Errorf("%w: tournament is %s", ErrInvalidTransition, t.Phase)
	}

	groupList, err := s.groups.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list groups of tournament %d: %w", tournamentID, err)
	}
	if len(groupList) == 0 {
		return nil, fmt.Errorf("%w: tournament has no groups", ErrValidationFailed)
	}

	g, gctx := errgroup.WithContext(ctx)
	results := make([][]*models.Participant, len(groupList))
	for i, grp := range groupList {
		i, grp := i, grp
		g.Go(func() error {
			groupMembers, err := s.participants.ListByGroup(gctx, grp.ID)
			if err != nil {
				return fmt.Errorf("list members of group %d: %w", grp.ID, err)
			}
			fixtures, err := s.matches.ListByGroup(gctx, grp.ID)
			if err != nil {
				return fmt.Errorf("list fixtures of group %d: %w", grp.ID, err)
			}
			if len(fixtures) == 0 {
				return fmt.Errorf("%w: group %q has no fixtures", ErrRoundIncomplete, grp.Name)
			}
			for _, m := range fixtures {
				if !m.Status.Terminal() {
					return fmt.Errorf("%w: match %d of group %q is still %s", ErrRoundIncomplete, m.ID, grp.Name, m.Status)
				}
			}

			table := BuildTable(groupMembers, fixtures, models.DefaultPoints())
			byID := make(map[int]*models.Participant, len(groupMembers))
			for _, p := range groupMembers {
				byID[p.ID] = p
			}
			n := topN
			if n > len(table) {
				n = len(table)
			}
			qualified := make([]*models.Participant, 0, n)
			for _, row := range table[:n] {
				qualified = append(qualified, byID[row.ParticipantID])
			}
			results[i] = qualified
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Rank-major interleave: group winners first, then runners-up, so
	// winners land in the protected positions of the draw.
	qualifiers := make([]*models.Participant, 0, topN*len(groupList))
	for rank := 0; rank < topN; rank++ {
		for _, qualified := range results {
			if rank < len(qualified) {
				qualifiers = append(qualifiers, qualified[rank])
			}
		}
	}

	pairings, err := brackets.FirstRound(qualifiers)
	if err != nil {
		if errors.Is(err, brackets.ErrNotEnoughParticipants) {
			return nil, fmt.Errorf("%w: need at least 2 qualifiers", ErrValidationFailed)
		}
		return nil, fmt.Errorf("draw knockout stage for tournament %d: %w", tournamentID, err)
	}
	return s.persistRound(ctx, tournamentID, 1, pairings)
}
