package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offsideleague/league-engine/models"
)

type groupEnv struct {
	tournaments  *fakeTournamentRepo
	participants *fakeParticipantRepo
	groups       *fakeGroupRepo
	matches      *fakeMatchRepo
	notifier     *recordingNotifier
	svc          GroupService
}

func newGroupEnv(t *testing.T, phase models.TournamentPhase) (*groupEnv, *models.Tournament) {
	t.Helper()
	env := &groupEnv{
		tournaments:  newFakeTournamentRepo(),
		participants: newFakeParticipantRepo(),
		groups:       newFakeGroupRepo(),
		matches:      newFakeMatchRepo(),
		notifier:     &recordingNotifier{},
	}
	env.svc = NewGroupService(env.groups, env.participants, env.matches, env.tournaments, env.notifier)

	tournament := &models.Tournament{Name: "Spring", Format: models.FormatGroupKnockout, Phase: phase}
	require.NoError(t, env.tournaments.Create(context.Background(), tournament))
	return env, tournament
}

func (env *groupEnv) addMember(t *testing.T, tournamentID, groupID, seed int, name string, coachID int64) *models.Participant {
	t.Helper()
	p := &models.Participant{TournamentID: tournamentID, GroupID: &groupID, TeamName: name, CoachID: coachID, Seed: seed}
	require.NoError(t, env.participants.Create(context.Background(), p))
	return p
}

func TestCreateGroup(t *testing.T) {
	env, tournament := newGroupEnv(t, models.PhaseDraft)
	ctx := context.Background()

	g, err := env.svc.CreateGroup(ctx, staff, tournament.ID, CreateGroupInput{Name: "Group A", DoubleRound: true})
	require.NoError(t, err)
	assert.True(t, g.DoubleRound)

	_, err = env.svc.CreateGroup(ctx, coach, tournament.ID, CreateGroupInput{Name: "Group B"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.svc.CreateGroup(ctx, staff, tournament.ID, CreateGroupInput{Name: "Group A"})
	assert.ErrorIs(t, err, ErrGroupNameConflict)
}

func TestCreateGroupNeedsGroupFormat(t *testing.T) {
	env, _ := newGroupEnv(t, models.PhaseDraft)
	ctx := context.Background()

	knockoutOnly := &models.Tournament{Name: "Cup", Format: models.FormatKnockout, Phase: models.PhaseDraft}
	require.NoError(t, env.tournaments.Create(ctx, knockoutOnly))

	_, err := env.svc.CreateGroup(ctx, staff, knockoutOnly.ID, CreateGroupInput{Name: "Group A"})
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestCreateGroupLockedOncePlaying(t *testing.T) {
	env, tournament := newGroupEnv(t, models.PhaseInProgress)
	_, err := env.svc.CreateGroup(context.Background(), staff, tournament.ID, CreateGroupInput{Name: "Late"})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAssignParticipant(t *testing.T) {
	env, tournament := newGroupEnv(t, models.PhaseRegOpen)
	ctx := context.Background()

	g, err := env.svc.CreateGroup(ctx, staff, tournament.ID, CreateGroupInput{Name: "Group A"})
	require.NoError(t, err)

	p := &models.Participant{TournamentID: tournament.ID, TeamName: "Alpha", CoachID: 100, Seed: 1}
	require.NoError(t, env.participants.Create(ctx, p))

	require.NoError(t, env.svc.AssignParticipant(ctx, staff, g.ID, p.ID))
	assigned, err := env.participants.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, assigned.GroupID)
	assert.Equal(t, g.ID, *assigned.GroupID)

	assert.ErrorIs(t, env.svc.AssignParticipant(ctx, coach, g.ID, p.ID), ErrForbidden)
}

func TestAssignParticipantCrossTournament(t *testing.T) {
	env, tournament := newGroupEnv(t, models.PhaseRegOpen)
	ctx := context.Background()

	g, err := env.svc.CreateGroup(ctx, staff, tournament.ID, CreateGroupInput{Name: "Group A"})
	require.NoError(t, err)

	other := &models.Tournament{Name: "Other", Format: models.FormatGroupKnockout, Phase: models.PhaseRegOpen}
	require.NoError(t, env.tournaments.Create(ctx, other))
	stranger := &models.Participant{TournamentID: other.ID, TeamName: "Stray", CoachID: 100, Seed: 1}
	require.NoError(t, env.participants.Create(ctx, stranger))

	err = env.svc.AssignParticipant(ctx, staff, g.ID, stranger.ID)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestGenerateFixturesSingleRound(t *testing.T) {
	env, tournament := newGroupEnv(t, models.PhaseRegOpen)
	ctx := context.Background()

	g, err := env.svc.CreateGroup(ctx, staff, tournament.ID, CreateGroupInput{Name: "Group A"})
	require.NoError(t, err)
	for i := 1; i <= 4; i++ {
		env.addMember(t, tournament.ID, g.ID, i, "Team "+string(rune('A'+i-1)), int64(100+i))
	}

	fixtures, err := env.svc.GenerateFixtures(ctx, staff, g.ID)
	require.NoError(t, err)
	assert.Len(t, fixtures, 6)
	for _, m := range fixtures {
		require.NotNil(t, m.GroupID)
		assert.Equal(t, g.ID, *m.GroupID)
		assert.Equal(t, models.MatchScheduled, m.Status)
	}

	// Generating fixtures starts the tournament.
	updated, err := env.tournaments.GetByID(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseInProgress, updated.Phase)
}

func TestGenerateFixturesDoubleRound(t *testing.T) {
	env, tournament := newGroupEnv(t, models.PhaseRegOpen)
	ctx := context.Background()

	g, err := env.svc.CreateGroup(ctx, staff, tournament.ID, CreateGroupInput{Name: "Group A", DoubleRound: true})
	require.NoError(t, err)
	for i := 1; i <= 3; i++ {
		env.addMember(t, tournament.ID, g.ID, i, "Team "+string(rune('A'+i-1)), int64(100+i))
	}

	fixtures, err := env.svc.GenerateFixtures(ctx, staff, g.ID)
	require.NoError(t, err)
	assert.Len(t, fixtures, 6, "3 teams, both legs")
}

func TestGenerateFixturesIsIdempotent(t *testing.T) {
	env, tournament := newGroupEnv(t, models.PhaseRegOpen)
	ctx := context.Background()

	g, err := env.svc.CreateGroup(ctx, staff, tournament.ID, CreateGroupInput{Name: "Group A"})
	require.NoError(t, err)
	for i := 1; i <= 4; i++ {
		env.addMember(t, tournament.ID, g.ID, i, "Team "+string(rune('A'+i-1)), int64(100+i))
	}

	first, err := env.svc.GenerateFixtures(ctx, staff, g.ID)
	require.NoError(t, err)
	second, err := env.svc.GenerateFixtures(ctx, staff, g.ID)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestGenerateFixturesGuards(t *testing.T) {
	env, tournament := newGroupEnv(t, models.PhaseDraft)
	ctx := context.Background()

	g, err := env.svc.CreateGroup(ctx, staff, tournament.ID, CreateGroupInput{Name: "Group A"})
	require.NoError(t, err)

	_, err = env.svc.GenerateFixtures(ctx, coach, g.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	// Still in DRAFT.
	_, err = env.svc.GenerateFixtures(ctx, staff, g.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// One member is not enough once registration opens.
	require.NoError(t, env.tournaments.UpdatePhase(ctx, tournament.ID, models.PhaseDraft, models.PhaseRegOpen))
	env.addMember(t, tournament.ID, g.ID, 1, "Loner", 100)
	_, err = env.svc.GenerateFixtures(ctx, staff, g.ID)
	assert.ErrorIs(t, err, ErrValidationFailed)
}
