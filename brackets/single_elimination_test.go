package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offsideleague/league-engine/models"
)

func ranked(n int) []*models.Participant {
	participants := make([]*models.Participant, n)
	for i := 0; i < n; i++ {
		participants[i] = &models.Participant{ID: i + 1, Seed: i + 1}
	}
	return participants
}

func TestSeedOrder(t *testing.T) {
	tests := []struct {
		size int
		want []int
	}{
		{1, []int{0}},
		{2, []int{0, 1}},
		{4, []int{0, 3, 1, 2}},
		{8, []int{0, 7, 3, 4, 1, 6, 2, 5}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SeedOrder(tt.size), "size %d", tt.size)
	}
}

func TestSeedOrderTopSeedsInOppositeHalves(t *testing.T) {
	order := SeedOrder(16)
	half := len(order) / 2

	firstHalf := order[:half]
	assert.Contains(t, firstHalf, 0)
	assert.NotContains(t, firstHalf, 1)
}

func TestRounds(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{2, 1},
		{3, 2},
		{4, 2},
		{5, 3},
		{8, 3},
		{9, 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Rounds(tt.n), "n=%d", tt.n)
	}
}

func TestFirstRoundFourParticipants(t *testing.T) {
	pairings, err := FirstRound(ranked(4))
	require.NoError(t, err)
	require.Len(t, pairings, 2)

	// Top seed meets the bottom seed, never the second seed.
	assert.Equal(t, 1, pairings[0].Home.Seed)
	assert.Equal(t, 4, pairings[0].Away.Seed)
	assert.Equal(t, 2, pairings[1].Home.Seed)
	assert.Equal(t, 3, pairings[1].Away.Seed)
}

func TestFirstRoundByesLandOnTopSeeds(t *testing.T) {
	pairings, err := FirstRound(ranked(7))
	require.NoError(t, err)
	require.Len(t, pairings, 4)

	byes := 0
	for _, p := range pairings {
		if p.Bye() {
			byes++
			require.NotNil(t, p.Home, "a bye still carries its participant")
			assert.Equal(t, 1, p.Home.Seed)
		} else {
			require.NotNil(t, p.Away)
		}
	}
	assert.Equal(t, 1, byes)
}

func TestFirstRoundSlotsAreContiguous(t *testing.T) {
	pairings, err := FirstRound(ranked(6))
	require.NoError(t, err)

	for i, p := range pairings {
		assert.Equal(t, 1, p.Round)
		assert.Equal(t, i, p.Slot)
		assert.Equal(t, 1, p.Leg)
	}
}

func TestFirstRoundTooFewParticipants(t *testing.T) {
	_, err := FirstRound(ranked(1))
	assert.ErrorIs(t, err, ErrNotEnoughParticipants)
}

func TestPairWinnersSlotTopology(t *testing.T) {
	winners := ranked(4)
	pairings, err := PairWinners(winners, 2)
	require.NoError(t, err)
	require.Len(t, pairings, 2)

	// Winner of slot 0 meets winner of slot 1 in slot 0.
	assert.Equal(t, winners[0], pairings[0].Home)
	assert.Equal(t, winners[1], pairings[0].Away)
	assert.Equal(t, winners[2], pairings[1].Home)
	assert.Equal(t, winners[3], pairings[1].Away)
	assert.Equal(t, 2, pairings[0].Round)
}

func TestPairWinnersOddCount(t *testing.T) {
	_, err := PairWinners(ranked(3), 2)
	assert.ErrorIs(t, err, ErrOddWinnerCount)
}
