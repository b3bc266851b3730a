package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/offsideleague/league-engine/brackets"
	"github.com/offsideleague/league-engine/models"
	"github.com/offsideleague/league-engine/repositories"
)

type CreateGroupInput struct {
	Name        string `json:"name"`
	DoubleRound bool   `json:"double_round"`
}

type GroupService interface {
	// CreateGroup adds a group to a group+knockout tournament before play
	// starts. Staff-only.
	CreateGroup(ctx context.Context, actor models.Actor, tournamentID int, input CreateGroupInput) (*models.Group, error)
	// AssignParticipant places a registered team into a group of the same
	// tournament. Staff-only; reassigning before fixtures exist is fine.
	AssignParticipant(ctx context.Context, actor models.Actor, groupID, participantID int) error
	ListGroups(ctx context.Context, tournamentID int) ([]*models.Group, error)
	// GenerateFixtures persists the group's round-robin schedule. Staff-only
	// and idempotent: fixtures that already exist are skipped, so an
	// interrupted run can simply be repeated. Moves the tournament from
	// REG_OPEN to IN_PROGRESS on first use.
	GenerateFixtures(ctx context.Context, actor models.Actor, groupID int) ([]*models.Match, error)
	ListFixtures(ctx context.Context, groupID int) ([]*models.Match, error)
}

type groupService struct {
	groups       repositories.GroupRepository
	participants repositories.ParticipantRepository
	matches      repositories.MatchRepository
	tournaments  repositories.TournamentRepository
	notifier     Notifier
}

func NewGroupService(
	groups repositories.GroupRepository,
	participants repositories.ParticipantRepository,
	matches repositories.MatchRepository,
	tournaments repositories.TournamentRepository,
	notifier Notifier,
) GroupService {
	return &groupService{
		groups:       groups,
		participants: participants,
		matches:      matches,
		tournaments:  tournaments,
		notifier:     notifier,
	}
}

func (s *groupService) CreateGroup(ctx context.Context, actor models.Actor, tournamentID int, input CreateGroupInput) (*models.Group, error) {
	if !actor.IsStaff {
		return nil, ErrForbidden
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name", ErrNameRequired)
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
	if t.Phase != models.PhaseDraft && t.Phase != models.PhaseRegOpen {
		return nil, fmt.Errorf("%w: groups are fixed once play starts", ErrInvalidTransition)
	}

	g := &models.Group{
		TournamentID: tournamentID,
		Name:         name,
		DoubleRound:  input.DoubleRound,
	}
	if err := s.groups.Create(ctx, g); err != nil {
		switch {
		case errors.Is(err, repositories.ErrGroupNameConflict):
			return nil, ErrGroupNameConflict
		case errors.Is(err, repositories.ErrGroupTournamentInvalid):
			return nil, ErrTournamentNotFound
		default:
			return nil, fmt.Errorf("create group %q in tournament %d: %w", name, tournamentID, err)
		}
	}
	return g, nil
}

func (s *groupService) AssignParticipant(ctx context.Context, actor models.Actor, groupID, participantID int) error {
	if !actor.IsStaff {
		return ErrForbidden
	}

	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return ErrGroupNotFound
		}
		return fmt.Errorf("load group %d: %w", groupID, err)
	}
	p, err := s.participants.GetByID(ctx, participantID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return ErrParticipantNotFound
		}
		return fmt.Errorf("load participant %d: %w", participantID, err)
	}
	if p.TournamentID != g.TournamentID {
		return fmt.Errorf("%w: participant %d belongs to another tournament", ErrValidationFailed, participantID)
	}

	if err := s.participants.AssignGroup(ctx, participantID, groupID); err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return ErrParticipantNotFound
		}
		return fmt.Errorf("assign participant %d to group %d: %w", participantID, groupID, err)
	}
	return nil
}

func (s *groupService) ListGroups(ctx context.Context, tournamentID int) ([]*models.Group, error) {
	if _, err := s.tournaments.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("load tournament %d: %w", tournamentID, err)
	}
	groups, err := s.groups.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list groups of tournament %d: %w", tournamentID, err)
	}
	return groups, nil
}

func (s *groupService) GenerateFixtures(ctx context.Context, actor models.Actor, groupID int) ([]*models.Match, error) {
	if !actor.IsStaff {
		return nil, ErrForbidden
	}

	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("load group %d: %w", groupID, err)
	}
	t, err := s.tournaments.GetByID(ctx, g.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("load tournament %d: %w", g.TournamentID, err)
	}
	if t.Phase == models.PhaseDraft || t.Phase == models.PhaseCompleted {
		return nil, fmt.Errorf("%w: fixtures need an open or running tournament", ErrInvalidTransition)
	}

	members, err := s.participants.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members of group %d: %w", groupID, err)
	}
	sort.SliceStable(members, func(i, j int) bool { return members[i].Seed < members[j].Seed })

	pairings, err := brackets.RoundRobin(members, g.DoubleRound)
	if err != nil {
		if errors.Is(err, brackets.ErrNotEnoughParticipants) {
			return nil, fmt.Errorf("%w: group %q needs at least 2 members", ErrValidationFailed, g.Name)
		}
		return nil, fmt.Errorf("schedule group %d: %w", groupID, err)
	}

	for _, p := range pairings {
		m := &models.Match{
			TournamentID: g.TournamentID,
			GroupID:      &g.ID,
			Round:        p.Round,
			Slot:         p.Slot,
			Leg:          p.Leg,
			HomeID:       &p.Home.ID,
			AwayID:       &p.Away.ID,
			Status:       models.MatchScheduled,
		}
		if err := s.matches.Create(ctx, m); err != nil {
			if errors.Is(err, repositories.ErrMatchSlotTaken) {
				continue // already generated, converge on the stored row
			}
			return nil, fmt.Errorf("insert fixture r%d s%d of group %d: %w", p.Round, p.Slot, groupID, err)
		}
	}

	if t.Phase == models.PhaseRegOpen {
		err = s.tournaments.UpdatePhase(ctx, t.ID, models.PhaseRegOpen, models.PhaseInProgress)
		if err != nil && !errors.Is(err, repositories.ErrTournamentPhaseStale) {
			return nil, fmt.Errorf("start tournament %d: %w", t.ID, err)
		}
	}

	fixtures, err := s.matches.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list fixtures of group %d: %w", groupID, err)
	}
	s.notifier.Notify(g.TournamentID, brackets.EventFixturesCreated, map[string]interface{}{
		"group_id": groupID,
		"matches":  len(fixtures),
	})
	return fixtures, nil
}

func (s *groupService) ListFixtures(ctx context.Context, groupID int) ([]*models.Match, error) {
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("load group %d: %w", groupID, err)
	}
	fixtures, err := s.matches.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list fixtures of group %d: %w", groupID, err)
	}
	return fixtures, nil
}
