package handlers

import (
	"net/http"
	"time"

	"github.com/offsideleague/league-engine/middleware"
	"github.com/offsideleague/league-engine/services"
)

type MatchHandler struct {
	matches services.MatchService
}

func NewMatchHandler(matches services.MatchService) *MatchHandler {
	return &MatchHandler{matches: matches}
}

func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	m, err := h.matches.Get(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"match": m}, nil)
}

func (h *MatchHandler) ListByTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.matches.ListByTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil)
}

func (h *MatchHandler) Report(w http.ResponseWriter, r *http.Request) {
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
		HomeScore       int `json:"home_score"`
		AwayScore       int `json:"away_score"`
		ExpectedVersion int `json:"expected_version"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	m, err := h.matches.Report(r.Context(), actor, matchID,
		services.ScorePair{Home: input.HomeScore, Away: input.AwayScore}, input.ExpectedVersion)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"match": m}, nil)
}

func (h *MatchHandler) Confirm(w http.ResponseWriter, r *http.Request) {
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
		HomeScore       *int `json:"home_score,omitempty"`
		AwayScore       *int `json:"away_score,omitempty"`
		ExpectedVersion int  `json:"expected_version"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var score *services.ScorePair
	if input.HomeScore != nil && input.AwayScore != nil {
		score = &services.ScorePair{Home: *input.HomeScore, Away: *input.AwayScore}
	}

	m, err := h.matches.Confirm(r.Context(), actor, matchID, score, input.ExpectedVersion)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"match": m}, nil)
}

func (h *MatchHandler) Forfeit(w http.ResponseWriter, r *http.Request) {
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
		WinnerID        int    `json:"winner_id"`
		Reason          string `json:"reason"`
		ExpectedVersion int    `json:"expected_version"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	m, err := h.matches.Forfeit(r.Context(), actor, matchID, input.WinnerID, input.Reason, input.ExpectedVersion)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"match": m}, nil)
}

func (h *MatchHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
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
		Deadline        time.Time `json:"deadline"`
		Note            *string   `json:"note,omitempty"`
		ExpectedVersion int       `json:"expected_version"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	m, err := h.matches.Reschedule(r.Context(), actor, matchID, input.Deadline, input.Note, input.ExpectedVersion)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"match": m}, nil)
}
