package handlers

import (
	"net/http"

	"github.com/offsideleague/league-engine/middleware"
	"github.com/offsideleague/league-engine/services"
)

type ParticipantHandler struct {
	participants services.ParticipantService
}

func NewParticipantHandler(participants services.ParticipantService) *ParticipantHandler {
	return &ParticipantHandler{participants: participants}
}

func (h *ParticipantHandler) Register(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		forbiddenResponse(w, r, err.Error())
		return
	}
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.RegisterParticipantInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	p, err := h.participants.Register(r.Context(), actor, tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"participant": p}, nil)
}

func (h *ParticipantHandler) List(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participants, err := h.participants.List(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"participants": participants}, nil)
}

func (h *ParticipantHandler) Reseed(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		forbiddenResponse(w, r, err.Error())
		return
	}
	participantID, err := idParam(r, "participantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Seed int `json:"seed"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	p, err := h.participants.Reseed(r.Context(), actor, participantID, input.Seed)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"participant": p}, nil)
}

func (h *ParticipantHandler) Remove(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		forbiddenResponse(w, r, err.Error())
		return
	}
	participantID, err := idParam(r, "participantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.participants.Remove(r.Context(), actor, participantID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "participant removed"}, nil)
}
