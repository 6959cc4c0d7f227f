package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/prediction-league/middleware"
	"github.com/Dosada05/prediction-league/services"
)

type ThirdPlaceHandler struct {
	thirdPlaceService services.ThirdPlaceService
}

func NewThirdPlaceHandler(ts services.ThirdPlaceService) *ThirdPlaceHandler {
	return &ThirdPlaceHandler{
		thirdPlaceService: ts,
	}
}

// GetBoard отдает автоматический рейтинг третьих мест по прогнозам
// пользователя вместе с его ручным порядком, если тот сохранен.
func (h *ThirdPlaceHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	board, err := h.thirdPlaceService.GetBoard(r.Context(), currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"third_place": board}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ThirdPlaceHandler) SavePicks(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input struct {
		TeamIDs []int `json:"team_ids"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if len(input.TeamIDs) == 0 {
		badRequestResponse(w, r, errors.New("team_ids must not be empty"))
		return
	}

	picks, err := h.thirdPlaceService.SavePicks(r.Context(), currentUserID, input.TeamIDs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"picks": picks}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ThirdPlaceHandler) ClearPicks(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := h.thirdPlaceService.ClearPicks(r.Context(), currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
