package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/offsideleague/league-engine/brackets"
	"github.com/offsideleague/league-engine/models"
	"github.com/offsideleague/league-engine/repositories"
)

// ScorePair carries a full scoreline in one value.
type ScorePair struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

type MatchService interface {
	Get(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error)
	// Report records a scoreline claimed by one side. Allowed from
	// scheduled or reported (a re-report overwrites the pending claim);
	// the match stays unconfirmed until the opponent agrees.
	Report(ctx context.Context, actor models.Actor, matchID int, score ScorePair, expectedVersion int) (*models.Match, error)
	// Confirm settles a reported match. The confirming actor must not be
	// the reporter. Passing a differing scoreline does not confirm:
	// it replaces the claim, with the confirmer as the new reporter.
	// Passing nil (or the same scoreline) finalizes the match.
	Confirm(ctx context.Context, actor models.Actor, matchID int, score *ScorePair, expectedVersion int) (*models.Match, error)
	// Forfeit awards a walkover to winnerID with a recorded reason.
	// Staff-only; the losing side is credited the standard 3–0 against.
	Forfeit(ctx context.Context, actor models.Actor, matchID, winnerID int, reason string, expectedVersion int) (*models.Match, error)
	// Reschedule moves the deadline and optionally replaces the note.
	Reschedule(ctx context.Context, actor models.Actor, matchID int, deadline time.Time, note *string, expectedVersion int) (*models.Match, error)
	// SweepOverdue announces every scheduled match whose deadline has
	// passed. It never forfeits on its own; staff decide that.
	SweepOverdue(ctx context.Context) (int, error)
}

type matchService struct {
	matches      repositories.MatchRepository
	participants repositories.ParticipantRepository
	tournaments  repositories.TournamentRepository
	notifier     Notifier
}

func NewMatchService(
	matches repositories.MatchRepository,
	participants repositories.ParticipantRepository,
	tournaments repositories.TournamentRepository,
	notifier Notifier,
) MatchService {
	return &matchService{
		matches:      matches,
		participants: participants,
		tournaments:  tournaments,
		notifier:     notifier,
	}
}

func (s *matchService) Get(ctx context.Context, id int) (*models.Match, error) {
	m, err := s.matches.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("load match %d: %w", id, err)
	}
	return m, nil
}

func (s *matchService) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	if _, err := s.tournaments.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("load tournament %d: %w", tournamentID, err)
	}
	matches, err := s.matches.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list matches of tournament %d: %w", tournamentID, err)
	}
	return matches, nil
}

// mayAct reports whether the actor is staff or coaches one of the
// match's sides.
func (s *matchService) mayAct(ctx context.Context, actor models.Actor, m *models.Match) (bool, error) {
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

func (s *matchService) write(ctx context.Context, m *models.Match, expectedVersion int) error {
	err := s.matches.Update(ctx, m, expectedVersion)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrMatchVersionConflict):
		return ErrConcurrentModification
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	default:
		return fmt.Errorf("update match %d: %w", m.ID, err)
	}
}

func (s *matchService) Report(ctx context.Context, actor models.Actor, matchID int, score ScorePair, expectedVersion int) (*models.Match, error) {
	if score.Home < 0 || score.Away < 0 {
		return nil, ErrNegativeScore
	}

	m, err := s.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.Status != models.MatchScheduled && m.Status != models.MatchReported {
		return nil, fmt.Errorf("%w: cannot report a %s match", ErrInvalidTransition, m.Status)
	}
	if m.GroupID == nil && score.Home == score.Away {
		return nil, ErrDrawNotAllowed
	}
	ok, err := s.mayAct(ctx, actor, m)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}

	home, away := score.Home, score.Away
	m.HomeScore = &home
	m.AwayScore = &away
	m.Status = models.MatchReported
	m.ReporterID = &actor.ID
	m.ConfirmerID = nil
	m.WinnerID = nil
	if err := s.write(ctx, m, expectedVersion); err != nil {
		return nil, err
	}

	s.notifier.Notify(m.TournamentID, brackets.EventMatchUpdated, m)
	return m, nil
}

// settle computes the winner of a finished scoreline. A draw yields a
// nil winner, which only group fixtures may carry.
func settle(m *models.Match) (*int, error) {
	switch {
	case *m.HomeScore > *m.AwayScore:
		return m.HomeID, nil
	case *m.HomeScore < *m.AwayScore:
		return m.AwayID, nil
	case m.GroupID != nil:
		return nil, nil
	default:
		return nil, ErrDrawNotAllowed
	}
}

func (s *matchService) Confirm(ctx context.Context, actor models.Actor, matchID int, score *ScorePair, expectedVersion int) (*models.Match, error) {
	m, err := s.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.Status != models.MatchReported {
		return nil, fmt.Errorf("%w: cannot confirm a %s match", ErrInvalidTransition, m.Status)
	}
	if m.ReporterID != nil && *m.ReporterID == actor.ID {
		return nil, fmt.Errorf("%w: reporter cannot confirm their own score", ErrForbidden)
	}
	ok, err := s.mayAct(ctx, actor, m)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}

	if score != nil && (*m.HomeScore != score.Home || *m.AwayScore != score.Away) {
		// The sides disagree. The counter-claim replaces the pending
		// report and now awaits confirmation by the other side.
		return s.Report(ctx, actor, matchID, *score, expectedVersion)
	}

	winner, err := settle(m)
	if err != nil {
		return nil, err
	}
	m.Status = models.MatchConfirmed
	m.ConfirmerID = &actor.ID
	m.WinnerID = winner
	if err := s.write(ctx, m, expectedVersion); err != nil {
		return nil, err
	}

	s.notifier.Notify(m.TournamentID, brackets.EventMatchUpdated, m)
	return m, nil
}

func (s *matchService) Forfeit(ctx context.Context, actor models.Actor, matchID, winnerID int, reason string, expectedVersion int) (*models.Match, error) {
	if !actor.IsStaff {
		return nil, ErrForbidden
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	m, err := s.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.Status.Terminal() {
		return nil, fmt.Errorf("%w: cannot forfeit a %s match", ErrInvalidTransition, m.Status)
	}
	if !m.Involves(winnerID) {
		return nil, fmt.Errorf("%w: winner %d does not play in match %d", ErrValidationFailed, winnerID, matchID)
	}

	winScore, lossScore := models.ForfeitScore, 0
	if m.HomeID != nil && *m.HomeID == winnerID {
		m.HomeScore, m.AwayScore = &winScore, &lossScore
	} else {
		m.HomeScore, m.AwayScore = &lossScore, &winScore
	}
	winner := winnerID
	m.Status = models.MatchForfeited
	m.WinnerID = &winner
	m.Note = &reason
	if err := s.write(ctx, m, expectedVersion); err != nil {
		return nil, err
	}

	s.notifier.Notify(m.TournamentID, brackets.EventMatchUpdated, m)
	return m, nil
}

func (s *matchService) Reschedule(ctx context.Context, actor models.Actor, matchID int, deadline time.Time, note *string, expectedVersion int) (*models.Match, error) {
	m, err := s.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.Status.Terminal() || m.Status == models.MatchDisputed {
		return nil, fmt.Errorf("%w: cannot reschedule a %s match", ErrInvalidTransition, m.Status)
	}
	ok, err := s.mayAct(ctx, actor, m)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}

	m.Deadline = &deadline
	if note != nil {
		m.Note = note
	}
	if err := s.write(ctx, m, expectedVersion); err != nil {
		return nil, err
	}

	s.notifier.Notify(m.TournamentID, brackets.EventMatchUpdated, m)
	return m, nil
}

func (s *matchService) SweepOverdue(ctx context.Context) (int, error) {
	overdue, err := s.matches.ListDueBefore(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("list overdue matches: %w", err)
	}
	for _, m := range overdue {
		s.notifier.Notify(m.TournamentID, brackets.EventMatchOverdue, m)
	}
	return len(overdue), nil
}
