package handlers

import (
	"net/http"

	"github.com/Dosada05/prediction-league/middleware"
	"github.com/Dosada05/prediction-league/services"
)

type BracketHandler struct {
	bracketService services.BracketService
}

func NewBracketHandler(bs services.BracketService) *BracketHandler {
	return &BracketHandler{
		bracketService: bs,
	}
}

// bracketRequestSource выбирает источник сетки из query-параметра source.
// source=mine доступен только аутентифицированным пользователям; официальный
// источник для них дополняется сводкой их прогнозов.
func bracketRequestSource(w http.ResponseWriter, r *http.Request) (userID int, source string, ok bool) {
	source = r.URL.Query().Get("source")
	if source == "" {
		source = services.BracketSourceOfficial
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		if source == services.BracketSourceMine {
			unauthorizedResponse(w, r, "authentication required for source=mine")
			return 0, "", false
		}
		return 0, source, true
	}
	return currentUserID, source, true
}

func (h *BracketHandler) GetBracket(w http.ResponseWriter, r *http.Request) {
	userID, source, ok := bracketRequestSource(w, r)
	if !ok {
		return
	}

	view, err := h.bracketService.GetBracket(r.Context(), userID, source)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"bracket": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) GetStandings(w http.ResponseWriter, r *http.Request) {
	userID, source, ok := bracketRequestSource(w, r)
	if !ok {
		return
	}

	standings, err := h.bracketService.GetStandings(r.Context(), userID, source, r.URL.Query().Get("group"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
