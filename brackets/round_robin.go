package brackets

import "github.com/offsideleague/league-engine/models"

// RoundRobin produces a full round-robin schedule for a group using
// the circle method: every unordered pair appears exactly once per
// leg, and with doubleRound a mirrored second leg (home/away swapped)
// follows the first. With an odd participant count one participant
// rotates out each round; no pairing is emitted for that bye.
func RoundRobin(participants []*models.Participant, doubleRound bool) ([]Pairing, error) {
	if len(participants) < 2 {
		return nil, ErrNotEnoughParticipants
	}

	circle := make([]*models.Participant, len(participants))
	copy(circle, participants)
	if len(circle)%2 == 1 {
		circle = append(circle, nil) // rotating bye
	}
	n := len(circle)

	var firstLeg []Pairing
	for round := 1; round < n; round++ {
		slot := 0
		for i := 0; i < n/2; i++ {
			home, away := circle[i], circle[n-1-i]
			if home == nil || away == nil {
				continue // this round's bye, no synthetic row
			}
			firstLeg = append(firstLeg, Pairing{
				Round: round,
				Slot:  slot,
				Leg:   1,
				Home:  home,
				Away:  away,
			})
			slot++
		}
		// Rotate everyone but the first position.
		rotated := make([]*models.Participant, 0, n)
		rotated = append(rotated, circle[0], circle[n-1])
		rotated = append(rotated, circle[1:n-1]...)
		circle = rotated
	}

	schedule := firstLeg
	if doubleRound {
		legRounds := n - 1
		for _, p := range firstLeg {
			schedule = append(schedule, Pairing{
				Round: p.Round + legRounds,
				Slot:  p.Slot,
				Leg:   2,
				Home:  p.Away,
				Away:  p.Home,
			})
		}
	}
	return schedule, nil
}
