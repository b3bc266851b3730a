package handlers

import (
	"net/http"
	"strconv"

	"github.com/offsideleague/league-engine/models"
	"github.com/offsideleague/league-engine/services"
)

type StandingsHandler struct {
	standings services.StandingsService
}

func NewStandingsHandler(standings services.StandingsService) *StandingsHandler {
	return &StandingsHandler{standings: standings}
}

// pointsFromQuery reads optional win/draw/loss overrides, falling back
// to the 3/1/0 default.
func pointsFromQuery(r *http.Request) models.PointsConfig {
	cfg := models.DefaultPoints()
	if v, err := strconv.Atoi(r.URL.Query().Get("win")); err == nil {
		cfg.Win = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("draw")); err == nil {
		cfg.Draw = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("loss")); err == nil {
		cfg.Loss = v
	}
	return cfg
}

func (h *StandingsHandler) Tournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	table, err := h.standings.Tournament(r.Context(), tournamentID, pointsFromQuery(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"standings": table}, nil)
}

func (h *StandingsHandler) Group(w http.ResponseWriter, r *http.Request) {
	groupID, err := idParam(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	table, err := h.standings.Group(r.Context(), groupID, pointsFromQuery(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"standings": table}, nil)
}
