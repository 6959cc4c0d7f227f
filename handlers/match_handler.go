package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/prediction-league/models"
	"github.com/Dosada05/prediction-league/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{
		matchService: ms,
	}
}

// ListMatches отдает расписание, опционально суженное query-параметрами
// round и group.
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	var round *models.MatchRound
	if raw := r.URL.Query().Get("round"); raw != "" {
		value := models.MatchRound(raw)
		round = &value
	}
	var group *string
	if raw := r.URL.Query().Get("group"); raw != "" {
		group = &raw
	}

	matches, err := h.matchService.List(r.Context(), round, group)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) GetMatchByNumber(w http.ResponseWriter, r *http.Request) {
	matchNumber, err := getIDFromURL(r, "number")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetByNumber(r.Context(), matchNumber)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	matchNumber, err := getIDFromURL(r, "number")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.ResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.SubmitResult(r.Context(), matchNumber, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) SetPenaltyWinner(w http.ResponseWriter, r *http.Request) {
	matchNumber, err := getIDFromURL(r, "number")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		WinnerTeamID int `json:"winner_team_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.WinnerTeamID <= 0 {
		badRequestResponse(w, r, errors.New("winner_team_id is required"))
		return
	}

	match, err := h.matchService.SetPenaltyWinner(r.Context(), matchNumber, input.WinnerTeamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ReopenMatch снимает результат матча. Команды ниже по сетке, которые
// зависели от результата, дематериализуются в том же запросе.
func (h *MatchHandler) ReopenMatch(w http.ResponseWriter, r *http.Request) {
	matchNumber, err := getIDFromURL(r, "number")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.Reopen(r.Context(), matchNumber)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
