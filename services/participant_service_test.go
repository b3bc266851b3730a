package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offsideleague/league-engine/models"
)

type registryEnv struct {
	tournaments  *fakeTournamentRepo
	participants *fakeParticipantRepo
	svc          ParticipantService
}

func newRegistryEnv(t *testing.T, phase models.TournamentPhase, format models.TournamentFormat) (*registryEnv, *models.Tournament) {
	t.Helper()
	tournaments := newFakeTournamentRepo()
	participants := newFakeParticipantRepo()

	tournament := &models.Tournament{Name: "Spring", Format: format, Phase: phase}
	require.NoError(t, tournaments.Create(context.Background(), tournament))

	return &registryEnv{
		tournaments:  tournaments,
		participants: participants,
		svc:          NewParticipantService(participants, tournaments),
	}, tournament
}

func TestRegisterAutoSeeds(t *testing.T) {
	env, tournament := newRegistryEnv(t, models.PhaseRegOpen, models.FormatKnockout)
	ctx := context.Background()

	first, err := env.svc.Register(ctx, staff, tournament.ID, RegisterParticipantInput{TeamName: "Alpha", CoachID: 100})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Seed)

	second, err := env.svc.Register(ctx, staff, tournament.ID, RegisterParticipantInput{TeamName: "Beta", CoachID: 101})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Seed)
}

func TestRegisterCoachSelfOnly(t *testing.T) {
	env, tournament := newRegistryEnv(t, models.PhaseRegOpen, models.FormatKnockout)
	ctx := context.Background()

	// A coach may register their own team.
	p, err := env.svc.Register(ctx, coach, tournament.ID, RegisterParticipantInput{TeamName: "Alpha", CoachID: coach.ID})
	require.NoError(t, err)
	assert.Equal(t, coach.ID, p.CoachID)

	// But not someone else's.
	_, err = env.svc.Register(ctx, rival, tournament.ID, RegisterParticipantInput{TeamName: "Beta", CoachID: coach.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	// Staff may register on anyone's behalf.
	_, err = env.svc.Register(ctx, staff, tournament.ID, RegisterParticipantInput{TeamName: "Gamma", CoachID: 300})
	require.NoError(t, err)
}

func TestRegisterClosedPhases(t *testing.T) {
	for _, phase := range []models.TournamentPhase{models.PhaseInProgress, models.PhaseCompleted} {
		env, tournament := newRegistryEnv(t, phase, models.FormatKnockout)
		_, err := env.svc.Register(context.Background(), staff, tournament.ID, RegisterParticipantInput{TeamName: "Late", CoachID: 100})
		assert.ErrorIs(t, err, ErrRegistrationClosed, "phase %s", phase)
	}
}

func TestRegisterConflicts(t *testing.T) {
	env, tournament := newRegistryEnv(t, models.PhaseRegOpen, models.FormatKnockout)
	ctx := context.Background()

	_, err := env.svc.Register(ctx, staff, tournament.ID, RegisterParticipantInput{TeamName: "Alpha", CoachID: 100})
	require.NoError(t, err)

	_, err = env.svc.Register(ctx, staff, tournament.ID, RegisterParticipantInput{TeamName: "Alpha", CoachID: 101})
	assert.ErrorIs(t, err, ErrTeamNameConflict)

	_, err = env.svc.Register(ctx, staff, tournament.ID, RegisterParticipantInput{TeamName: "Beta", CoachID: 100})
	assert.ErrorIs(t, err, ErrCoachConflict)

	seed := 1
	_, err = env.svc.Register(ctx, staff, tournament.ID, RegisterParticipantInput{TeamName: "Beta", CoachID: 101, Seed: &seed})
	assert.ErrorIs(t, err, ErrSeedConflict)
}

func TestRegisterUnknownTournament(t *testing.T) {
	env, _ := newRegistryEnv(t, models.PhaseRegOpen, models.FormatKnockout)
	_, err := env.svc.Register(context.Background(), staff, 999, RegisterParticipantInput{TeamName: "Alpha", CoachID: 100})
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestRemoveParticipant(t *testing.T) {
	env, tournament := newRegistryEnv(t, models.PhaseRegOpen, models.FormatKnockout)
	ctx := context.Background()

	p, err := env.svc.Register(ctx, staff, tournament.ID, RegisterParticipantInput{TeamName: "Alpha", CoachID: 100})
	require.NoError(t, err)

	assert.ErrorIs(t, env.svc.Remove(ctx, coach, p.ID), ErrForbidden)
	require.NoError(t, env.svc.Remove(ctx, staff, p.ID))
	assert.ErrorIs(t, env.svc.Remove(ctx, staff, p.ID), ErrParticipantNotFound)

	listed, err := env.svc.List(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestRemoveLockedOnceRunning(t *testing.T) {
	env, tournament := newRegistryEnv(t, models.PhaseRegOpen, models.FormatKnockout)
	ctx := context.Background()

	p, err := env.svc.Register(ctx, staff, tournament.ID, RegisterParticipantInput{TeamName: "Alpha", CoachID: 100})
	require.NoError(t, err)

	require.NoError(t, env.tournaments.UpdatePhase(ctx, tournament.ID, models.PhaseRegOpen, models.PhaseInProgress))

	assert.ErrorIs(t, env.svc.Remove(ctx, staff, p.ID), ErrRegistrationClosed)

	listed, err := env.svc.List(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 1, "the roster is frozen")
}

func TestReseed(t *testing.T) {
	env, tournament := newRegistryEnv(t, models.PhaseRegOpen, models.FormatKnockout)
	ctx := context.Background()

	a, err := env.svc.Register(ctx, staff, tournament.ID, RegisterParticipantInput{TeamName: "Alpha", CoachID: 100})
	require.NoError(t, err)
	b, err := env.svc.Register(ctx, staff, tournament.ID, RegisterParticipantInput{TeamName: "Beta", CoachID: 101})
	require.NoError(t, err)

	moved, err := env.svc.Reseed(ctx, staff, a.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, moved.Seed)

	listed, err := env.svc.List(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, listed[0].ID, "Beta now holds the best seed")

	_, err = env.svc.Reseed(ctx, coach, b.ID, 7)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.svc.Reseed(ctx, staff, b.ID, 0)
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = env.svc.Reseed(ctx, staff, b.ID, 5)
	assert.ErrorIs(t, err, ErrSeedConflict)

	_, err = env.svc.Reseed(ctx, staff, 999, 9)
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}

func TestReseedLockedOnceRunning(t *testing.T) {
	env, tournament := newRegistryEnv(t, models.PhaseRegOpen, models.FormatKnockout)
	ctx := context.Background()

	p, err := env.svc.Register(ctx, staff, tournament.ID, RegisterParticipantInput{TeamName: "Alpha", CoachID: 100})
	require.NoError(t, err)

	require.NoError(t, env.tournaments.UpdatePhase(ctx, tournament.ID, models.PhaseRegOpen, models.PhaseInProgress))

	_, err = env.svc.Reseed(ctx, staff, p.ID, 2)
	assert.ErrorIs(t, err, ErrRegistrationClosed)
}
