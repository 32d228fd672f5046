package handlers

import (
	"net/http"

	"github.com/yovohub/hub/internal/models"
	"github.com/yovohub/hub/internal/services"
)

type BadgeHandler struct {
	badgeService services.BadgeServiceInterface
}

func NewBadgeHandler(badgeService services.BadgeServiceInterface) *BadgeHandler {
	return &BadgeHandler{badgeService: badgeService}
}

func (h *BadgeHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	badges, err := h.badgeService.ListByUser(r.Context(), user.ID)
	if err != nil {
		writeInternalError(w, r, "Error listing badges", err)
		return
	}
	writeJSON(w, http.StatusOK, badges)
}

type QuizResultRequest struct {
	Category string `json:"category"`
	Score    int    `json:"score"`
	Total    int    `json:"total"`
}

type QuizResultResponse struct {
	Result *models.QuizResult `json:"result"`
	Badges []models.Badge     `json:"badges"`
}

// RecordQuizResult stores a finished quiz and reports newly earned badges.
func (h *BadgeHandler) RecordQuizResult(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req QuizResultRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, badges, err := h.badgeService.RecordQuizResult(r.Context(), user.ID, req.Category, req.Score, req.Total)
	if writeValidationError(w, err) {
		return
	}
	if err != nil {
		writeInternalError(w, r, "Error recording quiz result", err)
		return
	}
	writeJSON(w, http.StatusCreated, QuizResultResponse{Result: result, Badges: badges})
}
