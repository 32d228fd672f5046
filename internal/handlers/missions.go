package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yovohub/hub/internal/models"
	"github.com/yovohub/hub/internal/services"
)

type MissionHandler struct {
	missionService services.MissionServiceInterface
}

func NewMissionHandler(missionService services.MissionServiceInterface) *MissionHandler {
	return &MissionHandler{missionService: missionService}
}

// List returns active missions, 12 per page, filtered by the query string.
func (h *MissionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))

	filter := models.MissionFilter{
		Search:   strings.TrimSpace(q.Get("search")),
		Category: strings.TrimSpace(q.Get("category")),
		Type:     strings.TrimSpace(q.Get("type")),
		Location: strings.TrimSpace(q.Get("location")),
		Page:     page,
	}

	result, err := h.missionService.List(r.Context(), filter)
	if err != nil {
		writeInternalError(w, r, "Error listing missions", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type CreateMissionRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Duration     string   `json:"duration"`
	IsPaid       bool     `json:"is_paid"`
	Amount       *string  `json:"amount"`
	Skills       []string `json:"skills"`
	Location     string   `json:"location"`
	Organization string   `json:"organization"`
	Deadline     string   `json:"deadline"`
}

// parseDeadline accepts a calendar date or an RFC 3339 timestamp.
func parseDeadline(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func (h *MissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateMissionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	deadline, err := parseDeadline(req.Deadline)
	if err != nil {
		writeFieldError(w, "deadline", "Deadline must be a date (YYYY-MM-DD)")
		return
	}

	mission, err := h.missionService.Create(r.Context(), models.CreateMissionParams{
		UserID:       user.ID,
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Duration:     req.Duration,
		IsPaid:       req.IsPaid,
		Amount:       req.Amount,
		Skills:       req.Skills,
		Location:     req.Location,
		Organization: req.Organization,
		Deadline:     deadline,
	})
	if writeValidationError(w, err) {
		return
	}
	if err != nil {
		writeInternalError(w, r, "Error creating mission", err)
		return
	}
	writeJSON(w, http.StatusCreated, mission)
}

func (h *MissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Mission not found")
	if !ok {
		return
	}

	mission, err := h.missionService.Get(r.Context(), id)
	if errors.Is(err, services.ErrMissionNotFound) {
		writeError(w, http.StatusNotFound, "Mission not found")
		return
	}
	if err != nil {
		writeInternalError(w, r, "Error getting mission", err)
		return
	}
	writeJSON(w, http.StatusOK, mission)
}

func (h *MissionHandler) Apply(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "Mission not found")
	if !ok {
		return
	}

	var req struct {
		Message *string `json:"message"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	application, err := h.missionService.Apply(r.Context(), user.ID, id, req.Message)
	switch {
	case writeValidationError(w, err):
		return
	case errors.Is(err, services.ErrMissionNotFound):
		writeError(w, http.StatusNotFound, "Mission not found")
		return
	case errors.Is(err, services.ErrAlreadyApplied):
		writeError(w, http.StatusConflict, "You have already applied to this mission")
		return
	case err != nil:
		writeInternalError(w, r, "Error applying to mission", err)
		return
	}
	writeJSON(w, http.StatusCreated, application)
}

// ListMine returns a provider's own missions, or the missions a young user applied to.
func (h *MissionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	missions, err := h.missionService.ListMine(r.Context(), user)
	if err != nil {
		writeInternalError(w, r, "Error listing user missions", err)
		return
	}
	writeJSON(w, http.StatusOK, missions)
}
