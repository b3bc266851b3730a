package handlers

import (
	"net/http"

	"github.com/offsideleague/league-engine/middleware"
	"github.com/offsideleague/league-engine/services"
)

type GroupHandler struct {
	groups services.GroupService
}

func NewGroupHandler(groups services.GroupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var input services.CreateGroupInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	g, err := h.groups.CreateGroup(r.Context(), actor, tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"group": g}, nil)
}

func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	groups, err := h.groups.ListGroups(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"groups": groups}, nil)
}

func (h *GroupHandler) AssignParticipant(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		forbiddenResponse(w, r, err.Error())
		return
	}
	groupID, err := idParam(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	participantID, err := idParam(r, "participantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.groups.AssignParticipant(r.Context(), actor, groupID, participantID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "participant assigned"}, nil)
}

func (h *GroupHandler) GenerateFixtures(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		forbiddenResponse(w, r, err.Error())
		return
	}
	groupID, err := idParam(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	fixtures, err := h.groups.GenerateFixtures(r.Context(), actor, groupID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"matches": fixtures}, nil)
}

func (h *GroupHandler) ListFixtures(w http.ResponseWriter, r *http.Request) {
	groupID, err := idParam(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	fixtures, err := h.groups.ListFixtures(r.Context(), groupID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"matches": fixtures}, nil)
}
