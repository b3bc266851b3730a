package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/offsideleague/league-engine/models"
	"github.com/offsideleague/league-engine/repositories"
)

type RegisterParticipantInput struct {
	TeamName string `json:"team_name"`
	CoachID  int64  `json:"coach_id"`
	Seed     *int   `json:"seed,omitempty"`
}

type ParticipantService interface {
	// Register adds a team while the tournament is in DRAFT or REG_OPEN.
	// Staff may register on behalf of any coach; a coach may only
	// register themselves. Omitted seeds get the next free one.
	Register(ctx context.Context, actor models.Actor, tournamentID int, input RegisterParticipantInput) (*models.Participant, error)
	List(ctx context.Context, tournamentID int) ([]*models.Participant, error)
	// Reseed moves a registration to a new seed before the draw.
	// Staff-only, and only while the tournament is still DRAFT or
	// REG_OPEN; published slots reference the seeding at draw time.
	Reseed(ctx context.Context, actor models.Actor, participantID, seed int) (*models.Participant, error)
	// Remove deletes a registration. Staff-only, and gated like Reseed:
	// once the tournament is running the roster is frozen.
	Remove(ctx context.Context, actor models.Actor, participantID int) error
}

type participantService struct {
	participants repositories.ParticipantRepository
	tournaments  repositories.TournamentRepository
}

func NewParticipantService(
	participants repositories.ParticipantRepository,
	tournaments repositories.TournamentRepository,
) ParticipantService {
	return &participantService{
		participants: participants,
		tournaments:  tournaments,
	}
}

func (s *participantService) Register(ctx context.Context, actor models.Actor, tournamentID int, input RegisterParticipantInput) (*models.Participant, error) {
	teamName := strings.TrimSpace(input.TeamName)
	if teamName == "" {
		return nil, fmt.Errorf("%w: team name", ErrNameRequired)
	}
	if !actor.IsStaff && input.CoachID != actor.ID {
		return nil, ErrForbidden
	}

	t, err := s.tournaments.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("load tournament %d: %w", tournamentID, err)
	}
	if t.Phase != models.PhaseDraft && t.Phase != models.PhaseRegOpen {
		return nil, ErrRegistrationClosed
	}

	seed := 0
	if input.Seed != nil {
		if *input.Seed <= 0 {
			return nil, fmt.Errorf("%w: seed must be positive", ErrValidationFailed)
		}
		seed = *input.Seed
	} else {
		seed, err = s.participants.NextSeed(ctx, tournamentID)
		if err != nil {
			return nil, fmt.Errorf("assign seed in tournament %d: %w", tournamentID, err)
		}
	}

	p := &models.Participant{
		TournamentID: tournamentID,
		TeamName:     teamName,
		CoachID:      input.CoachID,
		Seed:         seed,
	}
	if err := s.participants.Create(ctx, p); err != nil {
		switch {
		case errors.Is(err, repositories.ErrParticipantTeamNameConflict):
			return nil, ErrTeamNameConflict
		case errors.Is(err, repositories.ErrParticipantCoachConflict):
			return nil, ErrCoachConflict
		case errors.Is(err, repositories.ErrParticipantSeedConflict):
			return nil, ErrSeedConflict
		case errors.Is(err, repositories.ErrParticipantTournamentInvalid):
			return nil, ErrTournamentNotFound
		default:
			return nil, fmt.Errorf("register %q in tournament %d: %w", teamName, tournamentID, err)
		}
	}
	return p, nil
}

func (s *participantService) List(ctx context.Context, tournamentID int) ([]*models.Participant, error) {
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
	return participants, nil
}

// mutable loads the participant and checks its tournament still accepts
// roster changes.
func (s *participantService) mutable(ctx context.Context, participantID int) (*models.Participant, error) {
	p, err := s.participants.GetByID(ctx, participantID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("load participant %d: %w", participantID, err)
	}
	t, err := s.tournaments.GetByID(ctx, p.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("load tournament %d: %w", p.TournamentID, err)
	}
	if t.Phase != models.PhaseDraft && t.Phase != models.PhaseRegOpen {
		return nil, ErrRegistrationClosed
	}
	return p, nil
}

func (s *participantService) Reseed(ctx context.Context, actor models.Actor, participantID, seed int) (*models.Participant, error) {
	if !actor.IsStaff {
		return nil, ErrForbidden
	}
	if seed <= 0 {
		return nil, fmt.Errorf("%w: seed must be positive", ErrValidationFailed)
	}
	p, err := s.mutable(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if err := s.participants.UpdateSeed(ctx, participantID, seed); err != nil {
		switch {
		case errors.Is(err, repositories.ErrParticipantSeedConflict):
			return nil, ErrSeedConflict
		case errors.Is(err, repositories.ErrParticipantNotFound):
			return nil, ErrParticipantNotFound
		default:
			return nil, fmt.Errorf("reseed participant %d: %w", participantID, err)
		}
	}
	p.Seed = seed
	return p, nil
}

func (s *participantService) Remove(ctx context.Context, actor models.Actor, participantID int) error {
	if !actor.IsStaff {
		return ErrForbidden
	}
	if _, err := s.mutable(ctx, participantID); err != nil {
		return err
	}
	if err := s.participants.Delete(ctx, participantID); err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return ErrParticipantNotFound
		}
		return fmt.Errorf("remove participant %d: %w", participantID, err)
	}
	return nil
}
