package handlers

import (
	"net/http"

	"github.com/offsideleague/league-engine/middleware"
	"github.com/offsideleague/league-engine/services"
)

type BracketHandler struct {
	brackets services.BracketService
	advance  services.AdvanceService
}

func NewBracketHandler(brackets services.BracketService, advance services.AdvanceService) *BracketHandler {
	return &BracketHandler{brackets: brackets, advance: advance}
}

func (h *BracketHandler) Preview(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	preview, err := h.brackets.Preview(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"preview": preview}, nil)
}

func (h *BracketHandler) Publish(w http.ResponseWriter, r *http.Request) {
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

	matches, err := h.brackets.Publish(r.Context(), actor, tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"matches": matches}, nil)
}

func (h *BracketHandler) AdvanceRound(w http.ResponseWriter, r *http.Request) {
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

	matches, err := h.advance.AdvanceRound(r.Context(), actor, tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if matches == nil {
		writeJSON(w, http.StatusOK, jsonResponse{"message": "tournament completed"}, nil)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"matches": matches}, nil)
}

func (h *BracketHandler) AdvanceGroups(w http.ResponseWriter, r *http.Request) {
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

	var input struct {
		TopN int `json:"top_n"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.advance.AdvanceGroups(r.Context(), actor, tournamentID, input.TopN)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"matches": matches}, nil)
}
