package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offsideleague/league-engine/brackets"
	"github.com/offsideleague/league-engine/models"
)

type bracketEnv struct {
	tournaments  *fakeTournamentRepo
	participants *fakeParticipantRepo
	matches      *fakeMatchRepo
	notifier     *recordingNotifier
	svc          BracketService
}

func newBracketEnv(t *testing.T, participantCount int) (*bracketEnv, *models.Tournament) {
	t.Helper()
	ctx := context.Background()

	env := &bracketEnv{
		tournaments:  newFakeTournamentRepo(),
		participants: newFakeParticipantRepo(),
		matches:      newFakeMatchRepo(),
		notifier:     &recordingNotifier{},
	}
	env.svc = NewBracketService(env.tournaments, env.participants, env.matches, env.notifier)

	tournament := &models.Tournament{Name: "Spring", Format: models.FormatKnockout, Phase: models.PhaseRegOpen}
	require.NoError(t, env.tournaments.Create(ctx, tournament))

	for i := 1; i <= participantCount; i++ {
		p := &models.Participant{
			TournamentID: tournament.ID,
			TeamName:     "Team " + string(rune('A'+i-1)),
			CoachID:      int64(100 + i),
			Seed:         i,
		}
		require.NoError(t, env.participants.Create(ctx, p))
	}
	return env, tournament
}

func TestPreviewDoesNotPersist(t *testing.T) {
	env, tournament := newBracketEnv(t, 4)
	ctx := context.Background()

	preview, err := env.svc.Preview(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, preview.Rounds)
	require.Len(t, preview.Pairings, 2)
	assert.Equal(t, 1, preview.Pairings[0].Home.Seed)
	assert.Equal(t, 4, preview.Pairings[0].Away.Seed)
	assert.Equal(t, 2, preview.Pairings[1].Home.Seed)
	assert.Equal(t, 3, preview.Pairings[1].Away.Seed)

	stored, err := env.matches.ListByTournament(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Empty(t, stored, "preview is a dry run")
}

func TestPreviewMarksByes(t *testing.T) {
	env, tournament := newBracketEnv(t, 3)

	preview, err := env.svc.Preview(context.Background(), tournament.ID)
	require.NoError(t, err)
	require.Len(t, preview.Pairings, 2)
	assert.True(t, preview.Pairings[0].Bye)
	assert.Equal(t, 1, preview.Pairings[0].Home.Seed)
	assert.False(t, preview.Pairings[1].Bye)
}

func TestPublishPersistsAndStartsTournament(t *testing.T) {
	env, tournament := newBracketEnv(t, 4)
	ctx := context.Background()

	matches, err := env.svc.Publish(ctx, staff, tournament.ID)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, m := range matches {
		assert.Equal(t, 1, m.Round)
		assert.Equal(t, models.MatchScheduled, m.Status)
		assert.Nil(t, m.GroupID)
	}

	updated, err := env.tournaments.GetByID(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseInProgress, updated.Phase)

	assert.Contains(t, env.notifier.types(), brackets.EventBracketPublished)
}

func TestPublishStoresByesAsWalkovers(t *testing.T) {
	env, tournament := newBracketEnv(t, 3)

	matches, err := env.svc.Publish(context.Background(), staff, tournament.ID)
	require.NoError(t, err)
	require.Len(t, matches, 2, "every slot of the round gets a row")

	bye := matches[0]
	assert.Equal(t, 0, bye.Slot)
	assert.Equal(t, models.MatchConfirmed, bye.Status)
	assert.Nil(t, bye.AwayID)
	require.NotNil(t, bye.WinnerID)
	assert.Equal(t, *bye.HomeID, *bye.WinnerID, "the top seed advances unplayed")

	assert.Equal(t, 1, matches[1].Slot)
	assert.Equal(t, models.MatchScheduled, matches[1].Status)
}

func TestPublishIsIdempotent(t *testing.T) {
	env, tournament := newBracketEnv(t, 4)
	ctx := context.Background()

	first, err := env.svc.Publish(ctx, staff, tournament.ID)
	require.NoError(t, err)
	second, err := env.svc.Publish(ctx, staff, tournament.ID)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID, "republishing converges on the stored rows")
	}
}

func TestPublishRequiresStaffAndOpenPhase(t *testing.T) {
	env, tournament := newBracketEnv(t, 4)
	ctx := context.Background()

	_, err := env.svc.Publish(ctx, coach, tournament.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, env.tournaments.UpdatePhase(ctx, tournament.ID, models.PhaseRegOpen, models.PhaseInProgress))
	require.NoError(t, env.tournaments.UpdatePhase(ctx, tournament.ID, models.PhaseInProgress, models.PhaseCompleted))
	_, err = env.svc.Publish(ctx, staff, tournament.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestPublishNeedsTwoParticipants(t *testing.T) {
	env, tournament := newBracketEnv(t, 1)
	_, err := env.svc.Publish(context.Background(), staff, tournament.ID)
	assert.ErrorIs(t, err, ErrValidationFailed)
}
