package brackets

import (
	"errors"

	"github.com/offsideleague/league-engine/models"
)

var (
	ErrNotEnoughParticipants = errors.New("at least 2 participants required")
	ErrOddWinnerCount        = errors.New("winner count must be even to pair a next round")
)

// SeedOrder returns bracket positions for seeds 0..size-1 such that
// consecutive positions form first-round pairs and the top seeds can
// only meet in the latest possible round: (0 vs size-1), (1 vs size-2)
// and so on, laid out so seed 0 and seed 1 land in opposite halves.
// size must be a power of two.
func SeedOrder(size int) []int {
	if size < 1 {
		return nil
	}
	order := []int{0}
	for len(order) < size {
		doubled := len(order) * 2
		next := make([]int, 0, doubled)
		for _, seed := range order {
			next = append(next, seed, doubled-1-seed)
		}
		order = next
	}
	return order
}

// FirstRound computes the round-1 pairings for a single-elimination
// bracket. Participants must already be ranked best-first; the list is
// padded to the next power of two with byes, which land on the top
// ranks. A bye pairing carries the real participant as Home and a nil
// Away, and must be auto-resolved by the caller instead of producing a
// playable match.
func FirstRound(participants []*models.Participant) ([]Pairing, error) {
	n := len(participants)
	if n < 2 {
		return nil, ErrNotEnoughParticipants
	}

	ranked := participants
	size := BracketSize(n)
	order := SeedOrder(size)

	at := func(pos int) *models.Participant {
		if pos >= n {
			return nil // padded bye slot
		}
		return ranked[pos]
	}

	pairings := make([]Pairing, 0, size/2)
	for i := 0; i < size; i += 2 {
		home, away := at(order[i]), at(order[i+1])
		if home == nil {
			// Byes pad the low end of the draw, so a nil top slot can
			// only face a real participant.
			home, away = away, home
		}
		pairings = append(pairings, Pairing{
			Round: 1,
			Slot:  i / 2,
			Leg:   1,
			Home:  home,
			Away:  away,
		})
	}
	return pairings, nil
}

// PairWinners pairs the winners of a completed round into the next
// one, preserving slot topology: the winner of slot 2i meets the
// winner of slot 2i+1 in slot i. winners must be indexed by source
// slot.
func PairWinners(winners []*models.Participant, nextRound int) ([]Pairing, error) {
	if len(winners) < 2 || len(winners)%2 != 0 {
		return nil, ErrOddWinnerCount
	}
	pairings := make([]Pairing, 0, len(winners)/2)
	for i := 0; i < len(winners); i += 2 {
		pairings = append(pairings, Pairing{
			Round: nextRound,
			Slot:  i / 2,
			Leg:   1,
			Home:  winners[i],
			Away:  winners[i+1],
		})
	}
	return pairings, nil
}
