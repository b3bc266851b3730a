package brackets

import (
	"math"

	"github.com/offsideleague/league-engine/models"
)

// Pairing is one generated fixture slot. Rounds are 1-based, slots are
// 0-based within a round so that the winners of slots 2i and 2i+1 meet
// in slot i of the next round. Away == nil marks a bye: Home advances
// without a playable match ever being created.
type Pairing struct {
	Round int
	Slot  int
	Leg   int
	Home  *models.Participant
	Away  *models.Participant
}

// Bye reports whether the pairing has no real opponent.
func (p Pairing) Bye() bool {
	return p.Away == nil
}

// BracketSize returns the participant count padded up to the next
// power of two.
func BracketSize(n int) int {
	if n <= 0 {
		return 0
	}
	return 1 << uint(Rounds(n))
}

// Rounds returns the number of theoretical bracket rounds for n
// participants, ceil(log2(n)).
func Rounds(n int) int {
	if n <= 1 {
		return 0
	}
	return int(math.Ceil(math.Log2(float64(n))))
}
