package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Dosada05/prediction-league/services"
)

type SetupHandler struct {
	setupService   services.SetupService
	scoringService services.ScoringService
}

func NewSetupHandler(setupService services.SetupService, scoringService services.ScoringService) *SetupHandler {
	return &SetupHandler{
		setupService:   setupService,
		scoringService: scoringService,
	}
}

// BootstrapSchedule генерирует расписание турнира из текущего списка сборных.
func (h *SetupHandler) BootstrapSchedule(w http.ResponseWriter, r *http.Request) {
	var input struct {
		FirstKickoff       time.Time `json:"first_kickoff"`
		MatchSpacingMinute int       `json:"match_spacing_minutes"`
		Force              bool      `json:"force"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.setupService.Bootstrap(r.Context(), services.BootstrapInput{
		FirstKickoff: input.FirstKickoff,
		MatchSpacing: time.Duration(input.MatchSpacingMinute) * time.Minute,
		Force:        input.Force,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"schedule": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ImportTeams принимает CSV-файл со сборными в multipart-поле file.
func (h *SetupHandler) ImportTeams(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		badRequestResponse(w, r, errors.New("csv file is required in the 'file' form field"))
		return
	}
	defer file.Close()

	imported, err := h.setupService.ImportTeamsCSV(r.Context(), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"imported": imported}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ImportResults принимает CSV-файл с результатами в multipart-поле file.
func (h *SetupHandler) ImportResults(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		badRequestResponse(w, r, errors.New("csv file is required in the 'file' form field"))
		return
	}
	defer file.Close()

	applied, err := h.setupService.ImportResultsCSV(r.Context(), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"applied": applied}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SetupHandler) ExportMatches(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="matches.csv"`)

	if err := h.setupService.ExportMatchesCSV(r.Context(), w); err != nil {
		// Заголовки уже могли уйти клиенту, логируем и обрываем ответ.
		serverErrorResponse(w, r, err)
	}
}

func (h *SetupHandler) SimulateRemaining(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Seed int64 `json:"seed"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Seed == 0 {
		input.Seed = time.Now().UnixNano()
	}

	simulated, err := h.setupService.SimulateRemaining(r.Context(), input.Seed)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"simulated": simulated}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RescoreAll пересчитывает очки всех пользователей с нуля. Тяжелая
// операция, нужна после ручных правок данных.
func (h *SetupHandler) RescoreAll(w http.ResponseWriter, r *http.Request) {
	rescored, err := h.scoringService.RescoreAll(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rescored_users": rescored}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
