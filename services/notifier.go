package services

import (
	"fmt"

	"github.com/offsideleague/league-engine/brackets"
)

// Notifier is the outbound-notification collaborator. Delivery is
// best-effort and must never block an engine operation; callers that
// miss an event re-read state over the query surface.
type Notifier interface {
	Notify(tournamentID int, eventType string, payload interface{})
}

type hubNotifier struct {
	hub *brackets.Hub
}

// NewHubNotifier adapts the websocket hub to the Notifier collaborator,
// using one room per tournament.
func NewHubNotifier(hub *brackets.Hub) Notifier {
	return &hubNotifier{hub: hub}
}

func (n *hubNotifier) Notify(tournamentID int, eventType string, payload interface{}) {
	room := fmt.Sprintf("tournament_%d", tournamentID)
	n.hub.BroadcastToRoom(room, brackets.Event{Type: eventType, Payload: payload})
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) Notify(int, string, interface{}) {}
