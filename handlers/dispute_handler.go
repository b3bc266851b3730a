package handlers

import (
	"net/http"

	"github.com/offsideleague/league-engine/middleware"
	"github.com/offsideleague/league-engine/services"
)

type DisputeHandler struct {
	disputes services.DisputeService
}

func NewDisputeHandler(disputes services.DisputeService) *DisputeHandler {
	return &DisputeHandler{disputes: disputes}
}

func (h *DisputeHandler) File(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		forbiddenResponse(w, r, err.Error())
		return
	}
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Reason          string `json:"reason"`
		ExpectedVersion int    `json:"expected_version"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	d, err := h.disputes.File(r.Context(), actor, matchID, input.Reason, input.ExpectedVersion)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"dispute": d}, nil)
}

func (h *DisputeHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		forbiddenResponse(w, r, err.Error())
		return
	}
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Resolution      string `json:"resolution"`
		ExpectedVersion int    `json:"expected_version"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	d, err := h.disputes.Resolve(r.Context(), actor, matchID, input.Resolution, input.ExpectedVersion)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"dispute": d}, nil)
}

func (h *DisputeHandler) ListByMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	disputes, err := h.disputes.ListByMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"disputes": disputes}, nil)
}
