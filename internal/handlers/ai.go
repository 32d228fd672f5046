package handlers

import (
	"errors"
	"net/http"

	"github.com/yovohub/hub/internal/models"
	"github.com/yovohub/hub/internal/services"
	"github.com/yovohub/hub/internal/services/ai"
)

type AIHandler struct {
	suggestionService services.SuggestionServiceInterface
}

func NewAIHandler(suggestionService services.SuggestionServiceInterface) *AIHandler {
	return &AIHandler{suggestionService: suggestionService}
}

type AssistantResponse struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities"`
	Avatar       string   `json:"avatar"`
	Status       string   `json:"status"`
}

var assistant = AssistantResponse{
	Name:        "YŌVO IA Assistant",
	Description: "Votre assistant personnel pour découvrir des mini-projets adaptés à vos compétences",
	Capabilities: []string{
		"Génération de projets personnalisés",
		"Analyse de vos compétences",
		"Suggestions basées sur votre localisation",
		"Projets adaptés au contexte africain",
	},
	Avatar: "🤖",
	Status: "online",
}

// Assistant describes the AI assistant shown in the client.
func (h *AIHandler) Assistant(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, assistant)
}

type GenerateSuggestionsRequest struct {
	Count *int `json:"count"`
}

type GenerateSuggestionsResponse struct {
	Suggestions []models.Suggestion `json:"suggestions"`
	Message     string              `json:"message"`
}

// requestedCount returns the count to generate. An absent count means the default.
func requestedCount(req GenerateSuggestionsRequest) (int, bool) {
	if req.Count == nil {
		return 0, true
	}
	if *req.Count < 1 || *req.Count > ai.MaxSuggestionCount {
		return 0, false
	}
	return *req.Count, true
}

func (h *AIHandler) GenerateSuggestions(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req GenerateSuggestionsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	count, ok := requestedCount(req)
	if !ok {
		writeError(w, http.StatusBadRequest, "count must be between 1 and 5")
		return
	}

	suggestions, err := h.suggestionService.Generate(r.Context(), user, count)
	if errors.Is(err, ai.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, "count must be between 1 and 5")
		return
	}
	if err != nil {
		writeInternalError(w, r, "Error generating suggestions", err)
		return
	}

	writeJSON(w, http.StatusOK, GenerateSuggestionsResponse{
		Suggestions: suggestions,
		Message:     "Suggestions générées avec succès par l'IA YŌVO",
	})
}

func (h *AIHandler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	suggestions, err := h.suggestionService.ListByUser(r.Context(), user.ID)
	if err != nil {
		writeInternalError(w, r, "Error listing suggestions", err)
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}

type AcceptSuggestionResponse struct {
	Mission *models.Mission `json:"mission"`
	Message string          `json:"message"`
}

// writeSuggestionError maps suggestion action failures to status codes.
func writeSuggestionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrSuggestionNotFound):
		writeError(w, http.StatusNotFound, "Suggestion introuvable")
	case errors.Is(err, services.ErrSuggestionNotOwned):
		writeError(w, http.StatusForbidden, "Non autorisé")
	case errors.Is(err, services.ErrSuggestionAlreadyProcessed):
		writeError(w, http.StatusBadRequest, "Cette suggestion a déjà été traitée")
	default:
		writeInternalError(w, r, "Error processing suggestion", err)
	}
}

func (h *AIHandler) AcceptSuggestion(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "Suggestion introuvable")
	if !ok {
		return
	}

	mission, _, err := h.suggestionService.Accept(r.Context(), user.ID, id)
	if err != nil {
		writeSuggestionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AcceptSuggestionResponse{
		Mission: mission,
		Message: "Suggestion convertie en mission avec succès",
	})
}

func (h *AIHandler) RejectSuggestion(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "Suggestion introuvable")
	if !ok {
		return
	}

	if _, err := h.suggestionService.Reject(r.Context(), user.ID, id); err != nil {
		writeSuggestionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Suggestion rejetée"})
}
