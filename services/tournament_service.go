package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/offsideleague/league-engine/cache"
	"github.com/offsideleague/league-engine/models"
	"github.com/offsideleague/league-engine/repositories"
	"github.com/offsideleague/league-engine/storage"
)

type CreateTournamentInput struct {
	Name   string                  `json:"name"`
	Format models.TournamentFormat `json:"format"`
	Rules  *string                 `json:"rules,omitempty"`
}

type TournamentService interface {
	Create(ctx context.Context, actor models.Actor, input CreateTournamentInput) (*models.Tournament, error)
	Get(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, limit, offset int) ([]*models.Tournament, error)
	// AdvancePhase moves the tournament to target, which must be the
	// immediate successor of the current phase. Regression is not an
	// engine operation.
	AdvancePhase(ctx context.Context, actor models.Actor, id int, target models.TournamentPhase) (*models.Tournament, error)
	UploadCrest(ctx context.Context, actor models.Actor, id int, contentType string, file io.Reader) (*models.Tournament, error)
}

type tournamentService struct {
	tournaments repositories.TournamentRepository
	lookup      *cache.Store[*models.Tournament]
	uploader    storage.FileUploader
}

func NewTournamentService(
	tournaments repositories.TournamentRepository,
	lookup *cache.Store[*models.Tournament],
	uploader storage.FileUploader,
) TournamentService {
	return &tournamentService{
		tournaments: tournaments,
		lookup:      lookup,
		uploader:    uploader,
	}
}

func (s *tournamentService) Create(ctx context.Context, actor models.Actor, input CreateTournamentInput) (*models.Tournament, error) {
	if !actor.IsStaff {
		return nil, ErrForbidden
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: tournament name", ErrNameRequired)
	}
	if !input.Format.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, input.Format)
	}

	t := &models.Tournament{
		Name:   name,
		Format: input.Format,
		Rules:  input.Rules,
		Phase:  models.PhaseDraft,
	}
	if err := s.tournaments.Create(ctx, t); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, ErrTournamentNameConflict
		}
		return nil, fmt.Errorf("create tournament: %w", err)
	}
	return t, nil
}

// Get serves reads through the short-TTL lookup cache. The cache is
// display-only: mutation paths always load from the store and never
// consult it for concurrency decisions.
func (s *tournamentService) Get(ctx context.Context, id int) (*models.Tournament, error) {
	key := strconv.Itoa(id)
	if t, ok := s.lookup.Get(key); ok {
		return t, nil
	}

	t, err := s.loadTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	s.decorate(t)
	s.lookup.Set(key, t)
	return t, nil
}

func (s *tournamentService) List(ctx context.Context, limit, offset int) ([]*models.Tournament, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	tournaments, err := s.tournaments.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}
	for _, t := range tournaments {
		s.decorate(t)
	}
	return tournaments, nil
}

func (s *tournamentService) AdvancePhase(ctx context.Context, actor models.Actor, id int, target models.TournamentPhase) (*models.Tournament, error) {
	if !actor.IsStaff {
		return nil, ErrForbidden
	}

	t, err := s.loadTournament(ctx, id)
	if err != nil {
		return nil, err
	}

	next, ok := t.Phase.NextPhase()
	if !ok || next != target {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidPhaseTransition, t.Phase, target)
	}

	if err := s.transition(ctx, id, t.Phase, target); err != nil {
		return nil, err
	}
	s.lookup.Delete(strconv.Itoa(id))
	t.Phase = target
	return t, nil
}

func (s *tournamentService) UploadCrest(ctx context.Context, actor models.Actor, id int, contentType string, file io.Reader) (*models.Tournament, error) {
	if !actor.IsStaff {
		return nil, ErrForbidden
	}
	if s.uploader == nil {
		return nil, fmt.Errorf("%w: crest uploads are not configured", ErrValidationFailed)
	}
	t, err := s.loadTournament(ctx, id)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("tournaments/%d/crest", id)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("upload crest for tournament %d: %w", id, err)
	}
	if err := s.tournaments.UpdateCrestKey(ctx, id, &result.Key); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("persist crest key for tournament %d: %w", id, err)
	}
	s.lookup.Delete(strconv.Itoa(id))

	t.CrestKey = &result.Key
	s.decorate(t)
	return t, nil
}

func (s *tournamentService) loadTournament(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.tournaments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("load tournament %d: %w", id, err)
	}
	return t, nil
}

// transition performs the conditional phase write, mapping a lost race
// onto the concurrency error so callers re-read.
func (s *tournamentService) transition(ctx context.Context, id int, from, to models.TournamentPhase) error {
	err := s.tournaments.UpdatePhase(ctx, id, from, to)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrTournamentPhaseStale):
		return ErrConcurrentModification
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	default:
		return fmt.Errorf("transition tournament %d to %s: %w", id, to, err)
	}
}

func (s *tournamentService) decorate(t *models.Tournament) {
	if t.CrestKey != nil && s.uploader != nil {
		url := s.uploader.GetPublicURL(*t.CrestKey)
		if url != "" {
			t.CrestURL = &url
		}
	}
}
